package core

import (
	"sync"

	"github.com/go-drift/viewbridge/pkg/errors"
)

// LifecycleScope is the part of a platform lifecycle the bridge relies on:
// the ability to run cleanup when the scope ends.
//
// OnDispose registers cleanup and returns a function that unregisters it.
// If the scope has already ended, cleanup runs immediately.
type LifecycleScope interface {
	OnDispose(cleanup func()) func()
}

// Disposable is implemented by anything holding resources released at
// scope end.
type Disposable interface {
	Dispose()
}

// Scope is an attachment scope: a set of cleanup functions that run once,
// in reverse registration order, when the scope is disposed.
//
// Platform adapters create one Scope per on-screen lifetime of a view and
// dispose it from whatever teardown signal the platform delivers, orderly
// or not.
type Scope struct {
	disposers []func()
	disposed  bool
	mu        sync.Mutex
}

// NewScope returns an active scope.
func NewScope() *Scope {
	return &Scope{}
}

// OnDispose registers a cleanup function to be called when the scope is disposed.
// Returns an unregister function that can be called to remove the disposer.
// The cleanup function will only be called once.
func (s *Scope) OnDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		runDisposer("core.Scope.OnDispose", cleanup)
		return func() {}
	}
	index := len(s.disposers)
	s.disposers = append(s.disposers, cleanup)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if index < len(s.disposers) {
			s.disposers[index] = nil
		}
	}
}

// Dispose runs all registered disposers in reverse order. A panicking
// disposer is reported and does not stop the remaining ones.
// Calling Dispose more than once is a no-op.
func (s *Scope) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	disposers := s.disposers
	s.disposers = nil
	s.mu.Unlock()

	for i := len(disposers) - 1; i >= 0; i-- {
		if disposers[i] != nil {
			runDisposer("core.Scope.Dispose", disposers[i])
		}
	}
}

// IsDisposed returns true if this scope has been disposed.
func (s *Scope) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func runDisposer(op string, fn func()) {
	defer errors.Recover(op)
	fn()
}
