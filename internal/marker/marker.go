// Package marker persists the "a capability was granted before" flag in a
// small embedded SQLite key-value table.
//
// The flag carries no information that could be used to reacquire a
// capability. It only lets the UI prompt the user to re-select the file they
// used last time.
package marker

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// GrantKey is the fixed key under which the grant flag is stored.
const GrantKey = "shared_json_file_handle_v1"

const grantedValue = "1"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Store is a durable key-value store local to one state directory.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the store at path. The parent directory is created
// if needed.
//
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open marker store: %w", err)
	}
	// a single connection keeps writes ordered and avoids SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping marker store: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize marker schema: %w", err)
	}

	return &Store{conn: conn, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close marker store: %w", err)
	}
	s.conn = nil
	return nil
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	if s.conn == nil {
		return "", false, errors.New("marker store is closed")
	}
	var value string
	err := s.conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	if s.conn == nil {
		return errors.New("marker store is closed")
	}
	_, err := s.conn.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// MarkGranted sets the grant flag.
func (s *Store) MarkGranted() error {
	return s.Set(GrantKey, grantedValue)
}

// HasPriorGrant reports whether the grant flag is set.
func (s *Store) HasPriorGrant() (bool, error) {
	v, ok, err := s.Get(GrantKey)
	if err != nil {
		return false, err
	}
	return ok && v == grantedValue, nil
}
