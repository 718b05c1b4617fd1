// Package connectivity tracks whether the relay endpoint is reachable.
//
// A Sensor holds the current State and fans transition events out to
// subscribed listeners. It does not decide when a transition happened: a
// platform source such as Prober calls Transition, and every call is
// delivered to every listener exactly once, without deduplication.
package connectivity

import (
	"sort"
	"sync"
)

// State is the two-valued reachability signal.
type State int

const (
	// Offline means the relay cannot be reached.
	Offline State = iota
	// Online means the relay was reachable at the last observation.
	Online
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case Offline:
		return "offline"
	case Online:
		return "online"
	default:
		return "unknown"
	}
}

// Listener receives the new state after each transition.
type Listener func(State)

// Sensor reports the current State and notifies subscribers of transitions.
type Sensor struct {
	mu        sync.Mutex
	state     State
	listeners map[uint64]Listener
	nextID    uint64
}

// NewSensor creates a Sensor starting in the given state.
func NewSensor(initial State) *Sensor {
	return &Sensor{
		state:     initial,
		listeners: make(map[uint64]Listener),
	}
}

// CurrentState returns the state as of the most recent transition.
func (s *Sensor) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers l and returns a function that unregisters it. The
// returned function may be called any number of times.
func (s *Sensor) OnChange(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// ListenerCount returns the number of registered listeners.
func (s *Sensor) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Transition records a platform transition to state and notifies every
// listener once, in registration order. Listeners run on the caller's
// goroutine, outside the sensor's lock.
func (s *Sensor) Transition(state State) {
	s.mu.Lock()
	s.state = state
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
}
