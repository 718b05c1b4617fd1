// Package store keeps the shared backing file and its in-memory mirror in
// step.
//
// Every append is a whole-file read-modify-write: the caller's current
// Database plus the new Record is serialized and written back through the
// Capability in one atomic replace. This keeps the file a complete,
// human-readable JSON array that any participant can inspect at any time, at
// the cost of rewriting the file on every append.
//
// # Recovery
//
// Load never fails. Missing, empty or malformed content loads as an empty
// Database and the recovery is logged. The next Append then replaces the bad
// content rather than merging with it.
//
// # Concurrency
//
// Operations on one Capability are serialized by the Capability itself.
// Separate processes writing the same file are not coordinated and the last
// write wins.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/mschirtzinger/lanform/internal/capability"
	"github.com/mschirtzinger/lanform/internal/record"
)

var (
	// ErrNoCapability is returned when Append is called without a valid
	// capability. Nothing is written.
	ErrNoCapability = errors.New("no valid capability for backing file")

	// ErrWriteFailure wraps every failure to durably write the new content.
	ErrWriteFailure = errors.New("write failure")
)

// Store performs loads and appends against a backing file.
type Store struct {
	logger *log.Logger
}

// New creates a Store.
//
// If logger is nil, a default logger writing to stderr is used.
func New(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	return &Store{logger: logger}
}

// Load reads and parses the backing file. It never returns an error: content
// that is absent or not a valid sequence of Records loads as empty.
func (s *Store) Load(ctx context.Context, c *capability.Capability) record.Database {
	if !c.Valid() {
		s.logger.Printf("Load without a valid capability, starting empty")
		return record.Database{}
	}

	data, err := c.ReadAll(ctx)
	if err != nil {
		s.logger.Printf("Warning: could not read %s, starting empty: %v", c.Path(), err)
		return record.Database{}
	}

	db, err := record.Decode(data)
	if err != nil {
		s.logger.Printf("Warning: %s is not a valid record list, starting empty: %v", c.Path(), err)
		return record.Database{}
	}

	s.logger.Printf("Loaded %d records from %s", len(db), c.Path())
	return db
}

// Append writes current followed by rec to the backing file and returns the
// new Database.
//
// On any error the backing file holds its previous content and current is
// unchanged; the caller should keep using current. Write errors wrap
// ErrWriteFailure.
func (s *Store) Append(ctx context.Context, c *capability.Capability, current record.Database, rec record.Record) (record.Database, error) {
	if !c.Valid() {
		return nil, ErrNoCapability
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	next := current.With(rec)
	data, err := record.Encode(next)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}

	if err := c.WriteAll(ctx, data); err != nil {
		if errors.Is(err, capability.ErrReleased) {
			return nil, ErrNoCapability
		}
		s.logger.Printf("Failed to write %s: %v", c.Path(), err)
		return nil, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	s.logger.Printf("Appended record %d to %s", len(next), c.Path())
	return next, nil
}
