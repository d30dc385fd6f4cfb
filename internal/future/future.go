// Package future implements a one-shot, externally-resolvable
// awaitable used throughout the client to model the source library's
// deferred-completion handshake steps (provisioning, express-mode,
// authorization, device enumeration) without needing a promise type.
package future

import (
	"context"
	"sync"
)

// Future is a one-shot awaitable. It may be completed at most once,
// either via Resolve or Reject; subsequent completions are no-ops.
// Await returns immediately once the Future has settled, even to
// callers that start awaiting after settlement.
type Future[T any] struct {
	once sync.Once
	done chan struct{}

	mu    sync.Mutex
	value T
	err   error
}

// New creates an unsettled Future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve settles the Future successfully. Only the first call (of
// Resolve or Reject) has any effect.
func (f *Future[T]) Resolve(value T) {
	f.once.Do(func() {
		f.mu.Lock()
		f.value = value
		f.mu.Unlock()
		close(f.done)
	})
}

// Reject settles the Future with an error. Only the first call (of
// Resolve or Reject) has any effect.
func (f *Future[T]) Reject(err error) {
	f.once.Do(func() {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		close(f.done)
	})
}

// Settled reports whether the Future has been resolved or rejected.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the Future settles or ctx is done, whichever
// comes first. A context timeout/cancellation does not settle the
// Future itself — callers that race on the same Future will still see
// the eventual outcome.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
