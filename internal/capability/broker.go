package capability

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

var (
	// ErrSelectionCancelled means the user dismissed the picker. It is not a
	// failure and should be reported as a neutral status.
	ErrSelectionCancelled = errors.New("file selection cancelled")

	// ErrSelectionFailed means a capability could not be obtained for any
	// reason other than the user cancelling.
	ErrSelectionFailed = errors.New("file selection failed")
)

// MarkerStore persists the single "previously granted" flag.
type MarkerStore interface {
	MarkGranted() error
	HasPriorGrant() (bool, error)
}

// Broker turns an explicit user choice into a Capability.
type Broker struct {
	picker Picker
	marker MarkerStore
	logger *log.Logger
}

// NewBroker creates a Broker. marker may be nil, in which case the grant
// marker is never persisted and always reads as false.
//
// If logger is nil, a default logger writing to stderr is used.
func NewBroker(picker Picker, marker MarkerStore, logger *log.Logger) *Broker {
	if logger == nil {
		logger = log.New(os.Stderr, "[capability] ", log.LstdFlags)
	}
	return &Broker{
		picker: picker,
		marker: marker,
		logger: logger,
	}
}

// Acquire asks the user to choose a backing file and returns a Capability
// for it.
//
// The returned error matches ErrSelectionCancelled when the user aborts and
// ErrSelectionFailed for everything else. Acquire does not touch the grant
// marker; call MarkGranted separately.
func (b *Broker) Acquire(ctx context.Context) (*Capability, error) {
	if b.picker == nil {
		return nil, fmt.Errorf("%w: no file picker available", ErrSelectionFailed)
	}

	path, err := b.picker.Pick(ctx)
	if err != nil {
		if errors.Is(err, ErrPickAborted) || errors.Is(err, context.Canceled) {
			return nil, ErrSelectionCancelled
		}
		b.logger.Printf("File pick error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrSelectionFailed, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSelectionFailed, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		b.logger.Printf("File pick error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrSelectionFailed, err)
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrSelectionFailed, abs)
	}

	b.logger.Printf("Granted capability for %s", abs)
	return newCapability(abs), nil
}

// MarkGranted records that a capability was granted in this session.
func (b *Broker) MarkGranted() error {
	if b.marker == nil {
		return nil
	}
	if err := b.marker.MarkGranted(); err != nil {
		return fmt.Errorf("failed to persist grant marker: %w", err)
	}
	return nil
}

// HasPriorGrantMarker reports whether an earlier session recorded a grant.
// Any error reading the marker reads as false.
func (b *Broker) HasPriorGrantMarker() bool {
	if b.marker == nil {
		return false
	}
	ok, err := b.marker.HasPriorGrant()
	if err != nil {
		b.logger.Printf("Warning: could not read grant marker: %v", err)
		return false
	}
	return ok
}
