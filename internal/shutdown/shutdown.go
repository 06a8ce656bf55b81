// Package shutdown models the process-wide cancellation token the driver's
// components observe: created once by the bootstrap entry point, it is the
// sole cancellation source for every suspending operation in the File
// Daemon. Collaborators register a callback to run when it fires; they
// otherwise just watch its context for suspending reads/writes.
package shutdown

import (
	"context"
	"sync"
	"sync/atomic"
)

// Signal is a process-wide, one-shot cancellation token.
type Signal struct {
	ctx    context.Context
	cancel context.CancelFunc

	fired atomic.Bool

	mu        sync.Mutex
	callbacks []func()
}

// New creates an unfired Signal.
func New() *Signal {
	ctx, cancel := context.WithCancel(context.Background())
	return &Signal{ctx: ctx, cancel: cancel}
}

// Context returns the cancellation context; suspending operations should
// select on Context().Done() alongside their own work.
func (s *Signal) Context() context.Context {
	return s.ctx
}

// Requested reports whether Trigger has been called.
func (s *Signal) Requested() bool {
	return s.fired.Load()
}

// Register adds cb to the set run when the signal fires. If the signal
// has already fired, cb runs immediately on the calling goroutine.
// Returns an unregister func that removes cb from the set (a no-op once
// the signal has already fired).
func (s *Signal) Register(cb func()) (unregister func()) {
	if s.fired.Load() {
		cb()
		return func() {}
	}

	s.mu.Lock()
	idx := len(s.callbacks)
	s.callbacks = append(s.callbacks, cb)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if idx < len(s.callbacks) {
			s.callbacks[idx] = nil
		}
		s.mu.Unlock()
	}
}

// Trigger fires the signal exactly once: cancels Context(), then runs
// every still-registered callback, in registration order, on the calling
// goroutine. Subsequent Trigger calls are no-ops.
func (s *Signal) Trigger() {
	if !s.fired.CompareAndSwap(false, true) {
		return
	}
	s.cancel()

	s.mu.Lock()
	cbs := make([]func(), len(s.callbacks))
	copy(cbs, s.callbacks)
	s.mu.Unlock()

	for _, cb := range cbs {
		if cb != nil {
			cb()
		}
	}
}
