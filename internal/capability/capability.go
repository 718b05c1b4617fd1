package capability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrReleased is returned for operations on a capability after Release.
	ErrReleased = errors.New("capability released")

	// ErrBusy is returned when another operation is already using the
	// capability.
	ErrBusy = errors.New("capability busy")
)

// Capability is an exclusive, non-persistable grant to read and write one
// backing file for the current session.
type Capability struct {
	path string

	// op serializes reads and writes; it is only ever TryLock'ed
	op sync.Mutex

	mu       sync.Mutex
	released bool
}

func newCapability(path string) *Capability {
	return &Capability{path: path}
}

// Path returns the absolute path of the backing file.
func (c *Capability) Path() string {
	return c.path
}

// Name returns the base name of the backing file.
func (c *Capability) Name() string {
	return filepath.Base(c.path)
}

// Valid reports whether c is non-nil and not yet released.
func (c *Capability) Valid() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.released
}

// Release ends the capability's lifetime. It is safe to call more than once.
func (c *Capability) Release() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.released = true
	c.mu.Unlock()
}

func (c *Capability) begin() (func(), error) {
	if !c.Valid() {
		return nil, ErrReleased
	}
	if !c.op.TryLock() {
		return nil, ErrBusy
	}
	return c.op.Unlock, nil
}

// ReadAll returns the full content of the backing file. A missing file reads
// as empty content, not as an error.
func (c *Capability) ReadAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end, err := c.begin()
	if err != nil {
		return nil, err
	}
	defer end()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", c.path, err)
	}
	return data, nil
}

// WriteAll replaces the content of the backing file with data. Readers see
// either the old content or the new content, never a mix.
func (c *Capability) WriteAll(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	end, err := c.begin()
	if err != nil {
		return err
	}
	defer end()

	return writeFileAtomic(c.path, data)
}
