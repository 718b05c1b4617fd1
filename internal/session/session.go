// Package session drives one user's interaction with the shared backing
// file: picking it, loading it, and submitting records to it.
//
// A Session exclusively owns the Capability and the in-memory Database. Each
// submission runs to completion, from validation through the local commit to
// the relay attempt, before another pick or submit is accepted. A call that
// arrives while one is outstanding fails with ErrBusy.
//
// For every submission the backing-file write completes before the relay
// attempt begins, and the relay outcome only changes the status text.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mschirtzinger/lanform/internal/capability"
	"github.com/mschirtzinger/lanform/internal/connectivity"
	"github.com/mschirtzinger/lanform/internal/record"
	"github.com/mschirtzinger/lanform/internal/relay"
	"github.com/mschirtzinger/lanform/internal/store"
)

// Status messages shown to the user.
const (
	StatusIdle            = "Idle"
	StatusRegrant         = "Re-select previously used shared JSON file"
	StatusLoaded          = "Loaded shared file"
	StatusCancelled       = "Cancelled selection"
	StatusSelectionFailed = "File selection failed"
	StatusSaved           = "Saved locally"
	StatusSavedOffline    = "Saved locally (offline)"
	StatusSavedSent       = "Saved locally + sent"
	StatusSendFailed      = "Saved locally; send failed"
	StatusWriteFailure    = "Write failure"
	StatusBackOnline      = "Back online"
	StatusOffline         = "Offline mode: writes go to shared file"
)

// ErrBusy is returned when a pick or submit is already in progress.
var ErrBusy = errors.New("another operation is in progress")

// Forwarder relays a committed record.
type Forwarder interface {
	Relay(ctx context.Context, rec record.Record, state connectivity.State) relay.Result
}

// Observer receives session events, e.g. for a live dashboard. Calls are
// made synchronously and must not call back into the Session.
type Observer interface {
	OnCommitted(id uuid.UUID, rec record.Record, total int)
	OnRelay(id uuid.UUID, res relay.Result)
	OnStatus(status string)
}

// Config holds the collaborators of a Session.
type Config struct {
	// Broker grants the capability. Required.
	Broker *capability.Broker

	// Store reads and writes the backing file (default: store.New(Logger)).
	Store *store.Store

	// Forwarder relays committed records. Required.
	Forwarder Forwarder

	// Sensor supplies the connectivity reading (default: always offline).
	Sensor *connectivity.Sensor

	// Observer is notified of session events. Optional.
	Observer Observer

	// Logger for session activity
	Logger *log.Logger
}

// PickResult describes a completed pick.
type PickResult struct {
	Status    string
	Cancelled bool
	File      string
	Records   int
}

// SubmitResult describes a completed submission.
type SubmitResult struct {
	ID      uuid.UUID
	Status  string
	Records int
	Relay   relay.Result
}

// Session is one user's session against a shared backing file.
type Session struct {
	broker    *capability.Broker
	store     *store.Store
	forwarder Forwarder
	sensor    *connectivity.Sensor
	observer  Observer
	logger    *log.Logger

	busy atomic.Bool

	mu     sync.Mutex
	cap    *capability.Capability
	db     record.Database
	status string

	unsubscribe func()
}

// New creates a Session and subscribes it to connectivity transitions.
// Close must be called to release the capability and the subscription.
func New(config Config) (*Session, error) {
	if config.Broker == nil {
		return nil, fmt.Errorf("broker cannot be nil")
	}
	if config.Forwarder == nil {
		return nil, fmt.Errorf("forwarder cannot be nil")
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[session] ", log.LstdFlags)
	}
	if config.Store == nil {
		config.Store = store.New(config.Logger)
	}
	if config.Sensor == nil {
		config.Sensor = connectivity.NewSensor(connectivity.Offline)
	}

	s := &Session{
		broker:    config.Broker,
		store:     config.Store,
		forwarder: config.Forwarder,
		sensor:    config.Sensor,
		observer:  config.Observer,
		logger:    config.Logger,
		db:        record.Database{},
		status:    StatusIdle,
	}
	if s.broker.HasPriorGrantMarker() {
		s.status = StatusRegrant
	}
	s.unsubscribe = s.sensor.OnChange(s.onConnectivity)
	return s, nil
}

func (s *Session) onConnectivity(state connectivity.State) {
	if state == connectivity.Online {
		s.setStatus(StatusBackOnline)
	} else {
		s.setStatus(StatusOffline)
	}
}

func (s *Session) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	if s.observer != nil {
		s.observer.OnStatus(status)
	}
}

// Status returns the latest status message.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Connectivity returns the current connectivity reading.
func (s *Session) Connectivity() connectivity.State {
	return s.sensor.CurrentState()
}

// Database returns a copy of the in-memory mirror.
func (s *Session) Database() record.Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Clone()
}

// File returns the path of the current backing file, or "" if none.
func (s *Session) File() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cap.Valid() {
		return ""
	}
	return s.cap.Path()
}

// HasFile reports whether the session holds a valid capability.
func (s *Session) HasFile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cap.Valid()
}

// Pick acquires a capability for a (possibly different) backing file and
// loads it. Cancelling the picker is reported in the result, not as an
// error; the previous capability, if any, stays in use.
func (s *Session) Pick(ctx context.Context) (PickResult, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return PickResult{}, ErrBusy
	}
	defer s.busy.Store(false)

	c, err := s.broker.Acquire(ctx)
	if err != nil {
		if errors.Is(err, capability.ErrSelectionCancelled) {
			s.setStatus(StatusCancelled)
			return PickResult{Status: StatusCancelled, Cancelled: true}, nil
		}
		s.setStatus(StatusSelectionFailed)
		return PickResult{Status: StatusSelectionFailed}, err
	}

	if err := s.broker.MarkGranted(); err != nil {
		s.logger.Printf("Warning: %v", err)
	}

	db := s.store.Load(ctx, c)

	s.mu.Lock()
	prev := s.cap
	s.cap = c
	s.db = db
	s.mu.Unlock()
	prev.Release()

	s.setStatus(StatusLoaded)
	return PickResult{Status: StatusLoaded, File: c.Path(), Records: len(db)}, nil
}

// Submit appends rec to the backing file and then relays it.
//
// An error is returned only when the record was not committed: no file
// picked, invalid record, or a write failure. In that case the in-memory
// Database is unchanged. Relay failures are reported in the result.
func (s *Session) Submit(ctx context.Context, rec record.Record) (SubmitResult, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return SubmitResult{}, ErrBusy
	}
	defer s.busy.Store(false)

	id := uuid.New()
	res := SubmitResult{ID: id}

	s.mu.Lock()
	c := s.cap
	current := s.db
	s.mu.Unlock()

	next, err := s.store.Append(ctx, c, current, rec)
	if err != nil {
		if errors.Is(err, store.ErrWriteFailure) {
			s.setStatus(StatusWriteFailure)
			res.Status = StatusWriteFailure
		}
		s.logger.Printf("Submission %s not committed: %v", id, err)
		res.Records = len(current)
		return res, err
	}

	s.mu.Lock()
	s.db = next
	s.mu.Unlock()
	s.setStatus(StatusSaved)
	if s.observer != nil {
		s.observer.OnCommitted(id, rec, len(next))
	}

	// read at the moment of the attempt, never cached
	state := s.sensor.CurrentState()
	res.Relay = s.forwarder.Relay(ctx, rec, state)

	switch res.Relay.Outcome {
	case relay.OutcomeRelayed:
		res.Status = StatusSavedSent
	case relay.OutcomeFailed:
		res.Status = StatusSendFailed
	default:
		res.Status = StatusSavedOffline
	}
	s.setStatus(res.Status)
	if s.observer != nil {
		s.observer.OnRelay(id, res.Relay)
	}

	s.logger.Printf("Submission %s committed (%d records), relay: %s", id, len(next), res.Relay.Outcome)
	res.Records = len(next)
	return res, nil
}

// Close releases the capability and unsubscribes from connectivity events.
// It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	c := s.cap
	s.cap = nil
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	c.Release()
	if unsubscribe != nil {
		unsubscribe()
	}
}
