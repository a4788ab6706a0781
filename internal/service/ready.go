package service

import (
	"context"
	"sync"
)

// Ready is a one-shot readiness signal carrying a value. The first Signal
// wins; waiters block until it arrives or their context ends.
type Ready[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
}

// NewReady returns an unsignalled Ready.
func NewReady[T any]() *Ready[T] {
	return &Ready[T]{done: make(chan struct{})}
}

// Signal stores v and releases all waiters. It reports whether this call
// was the one that signalled.
func (r *Ready[T]) Signal(v T) bool {
	signalled := false
	r.once.Do(func() {
		r.val = v
		close(r.done)
		signalled = true
	})
	return signalled
}

// Done is closed once Signal has been called.
func (r *Ready[T]) Done() <-chan struct{} {
	return r.done
}

// Value returns the signalled value without blocking.
func (r *Ready[T]) Value() (T, bool) {
	select {
	case <-r.done:
		return r.val, true
	default:
		var zero T
		return zero, false
	}
}

// Wait blocks until Signal is called or ctx is done.
func (r *Ready[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.val, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
