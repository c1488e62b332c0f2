// Package asyncstate tracks the lifecycle of asynchronous reads and writes:
// idle, loading, then success with data or failure with a message.
package asyncstate

import (
	"sync"
)

// FallbackMessage is shown for errors that carry no text.
const FallbackMessage = "An error occurred"

// Status is the phase of an asynchronous operation.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Failure
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// State is a snapshot of an operation. Data holds the last successful result.
type State[T any] struct {
	Status Status
	Data   T
	Err    string
}

func (s State[T]) IsLoading() bool { return s.Status == Loading }

func (s State[T]) Failed() bool { return s.Status == Failure }

// ErrorMessage renders err for display.
func ErrorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return FallbackMessage
	}
	return err.Error()
}

// machine holds a State and the generation of the newest run. Only the
// newest run may settle it.
type machine[T any] struct {
	mu     sync.Mutex
	state  State[T]
	gen    uint64
	nextID int
	subs   map[int]func(State[T])
}

func (m *machine[T]) snapshot() State[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// begin moves to Loading with the error cleared and returns the run's generation.
func (m *machine[T]) begin() uint64 {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.state.Status = Loading
	m.state.Err = ""
	s, subs := m.state, m.subscribers()
	m.mu.Unlock()
	notify(subs, s)
	return gen
}

// settle applies update if gen is still the newest run and reports whether it did.
func (m *machine[T]) settle(gen uint64, update func(*State[T])) bool {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return false
	}
	update(&m.state)
	s, subs := m.state, m.subscribers()
	m.mu.Unlock()
	notify(subs, s)
	return true
}

// reset returns to Idle and orphans any run in flight.
func (m *machine[T]) reset() {
	m.mu.Lock()
	m.gen++
	m.state = State[T]{}
	s, subs := m.state, m.subscribers()
	m.mu.Unlock()
	notify(subs, s)
}

func (m *machine[T]) subscribe(fn func(State[T])) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subs == nil {
		m.subs = make(map[int]func(State[T]))
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// subscribers copies the observer list. Caller holds mu.
func (m *machine[T]) subscribers() []func(State[T]) {
	if len(m.subs) == 0 {
		return nil
	}
	out := make([]func(State[T]), 0, len(m.subs))
	for i := 0; i < m.nextID; i++ {
		if fn, ok := m.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify[T any](subs []func(State[T]), s State[T]) {
	for _, fn := range subs {
		fn(s)
	}
}
