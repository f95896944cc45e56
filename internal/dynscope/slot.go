// Package dynscope implements dynamically-scoped storage cells.
//
// A Slot holds per-activation state for one capability instance so that
// nested activations do not leak into each other's activity window. The
// current state is scoped to the dynamic extent of one Activate call:
// pushed on entry, restored on every exit path, LIFO on re-entry.
//
// A slot is confined to one logical task per activation. The kernel's
// dispatch is synchronous, so handlers triggered by operations performed
// inside the body observe the activated state on the same goroutine.
// Concurrent tasks each use their own capability (and therefore slot)
// instance; the slot performs no cross-goroutine propagation.
package dynscope

import (
	"sync"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
)

// Slot is a single named, dynamically-scoped storage cell.
type Slot[T any] struct {
	name  string
	mu    sync.Mutex
	stack []T
}

// NewSlot creates an inactive slot. The name appears in strict-read
// errors and identifies the owning capability.
func NewSlot[T any](name string) *Slot[T] {
	return &Slot[T]{name: name}
}

// Name returns the slot's identifying name.
func (s *Slot[T]) Name() string {
	return s.name
}

// Active reports whether an activation is currently in effect.
func (s *Slot[T]) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack) > 0
}

// Depth returns the current activation nesting depth.
func (s *Slot[T]) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack)
}

// CurrentOrZero returns the innermost activated state, or the zero value
// and false outside any activation. It never returns a stale value from
// an exited activation.
func (s *Slot[T]) CurrentOrZero() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		var zero T
		return zero, false
	}
	return s.stack[len(s.stack)-1], true
}

// Current is the strict variant: it returns a ScopeError when no
// activation is in effect. Used where a capability requires an explicit
// enclosing scope.
func (s *Slot[T]) Current() (T, error) {
	state, ok := s.CurrentOrZero()
	if !ok {
		var zero T
		return zero, apperrors.NewScopeError(s.name)
	}
	return state, nil
}

// Activate runs body with state visible to every CurrentOrZero call made
// during its dynamic extent, including handlers invoked as a side effect
// of operations performed inside body. The previous state is restored on
// exit even if body returns an error or panics. Re-activating an already
// active slot is legal and restores the outer state afterward.
func (s *Slot[T]) Activate(state T, body func() error) error {
	s.push(state)
	defer s.pop()
	return body()
}

// Call is the value-returning form of Activate, for bodies that produce
// a result alongside their error.
func Call[T, R any](s *Slot[T], state T, body func() (R, error)) (R, error) {
	s.push(state)
	defer s.pop()
	return body()
}

func (s *Slot[T]) push(state T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack = append(s.stack, state)
}

func (s *Slot[T]) pop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.stack); n > 0 {
		var zero T
		s.stack[n-1] = zero
		s.stack = s.stack[:n-1]
	}
}
