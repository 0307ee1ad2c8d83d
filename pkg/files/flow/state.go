// Package flow provides a latest-value observable: one writer publishes
// values, any number of readers load the current value or subscribe to
// changes.
package flow

import (
	"sync"

	"github.com/google/uuid"
)

// Subscription receives the latest published values of a State.
//
// Values are conflated: a slow reader only ever sees the most recent value,
// never a backlog. The channel is closed by Unsubscribe or State.Close.
type Subscription[T any] struct {
	ID     string
	Values chan T
}

// State holds the latest value of type T.
type State[T any] struct {
	mu          sync.RWMutex
	value       T
	equal       func(a, b T) bool
	subscribers map[string]*Subscription[T]
	closed      bool
}

// NewState creates a State holding initial. When equal is non-nil, Set
// ignores values equal to the current one, so subscribers never see
// duplicates.
func NewState[T any](initial T, equal func(a, b T) bool) *State[T] {
	return &State[T]{
		value:       initial,
		equal:       equal,
		subscribers: make(map[string]*Subscription[T]),
	}
}

// Load returns the current value.
func (s *State[T]) Load() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set publishes v. It reports whether the value changed.
func (s *State[T]) Set(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if s.equal != nil && s.equal(s.value, v) {
		return false
	}

	s.value = v
	for _, sub := range s.subscribers {
		offer(sub.Values, v)
	}
	return true
}

// Subscribe returns a subscription whose channel immediately holds the
// current value. Returns nil if the state is closed.
func (s *State[T]) Subscribe() *Subscription[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	sub := &Subscription[T]{
		ID:     uuid.New().String(),
		Values: make(chan T, 1),
	}
	sub.Values <- s.value
	s.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (s *State[T]) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subscribers[id]; ok {
		close(sub.Values)
		delete(s.subscribers, id)
	}
}

// subscriberCount returns the number of active subscriptions.
func (s *State[T]) subscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Close closes every subscription. Later Set calls are ignored.
func (s *State[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	for _, sub := range s.subscribers {
		close(sub.Values)
	}
	s.subscribers = make(map[string]*Subscription[T])
}

// offer replaces whatever is pending in ch with v. Must be called with the
// state's write lock held, which makes it the only sender.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
