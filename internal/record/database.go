package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotSequence is returned by Decode when the content is valid JSON but
// not an array.
var ErrNotSequence = errors.New("content is not a sequence of records")

// Database is the ordered, append-only sequence of Records mirrored from the
// backing file.
type Database []Record

// With returns a new Database holding db followed by r. db itself is never
// modified, so a failed write leaves the caller's copy intact.
func (db Database) With(r Record) Database {
	out := make(Database, len(db), len(db)+1)
	copy(out, db)
	return append(out, r)
}

// Clone returns an independent copy of db.
func (db Database) Clone() Database {
	out := make(Database, len(db))
	copy(out, db)
	return out
}

// Equal reports whether db and other hold the same Records in the same order.
func (db Database) Equal(other Database) bool {
	if len(db) != len(other) {
		return false
	}
	for i := range db {
		if db[i] != other[i] {
			return false
		}
	}
	return true
}

// Encode serializes db as a two-space indented JSON array followed by a
// newline. A nil Database encodes as [].
func Encode(db Database) ([]byte, error) {
	if db == nil {
		db = Database{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(db); err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses data as a JSON array of Records and validates every element.
//
// Blank content decodes to an empty Database. Anything else that is not a
// well-formed array of valid Records is an error; callers that want the
// tolerant "start fresh" behaviour handle that themselves.
func Decode(data []byte) (Database, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Database{}, nil
	}
	if data[0] != '[' {
		if !json.Valid(data) {
			return nil, errors.New("content is not valid JSON")
		}
		return nil, ErrNotSequence
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	db := make(Database, 0, len(elems))
	for i, raw := range elems {
		r, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		db = append(db, r)
	}
	return db, nil
}

// decodeRecord parses one array element. Unknown keys are rejected so a
// rewrite never drops data it did not understand.
func decodeRecord(raw json.RawMessage) (Record, error) {
	var wire struct {
		Record
		Age *Age `json:"age"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return Record{}, fmt.Errorf("failed to parse record: %w", err)
	}
	if wire.Age == nil {
		return Record{}, fmt.Errorf("%w: age is required", ErrInvalidRecord)
	}
	r := wire.Record
	r.Age = *wire.Age
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}
