package workerpool

import (
	"context"
	"sync"
)

// Future is the caller's handle on the outcome of a task submitted with
// Submit or SubmitFunc. It resolves exactly once, after the task body has
// finished, and may be waited on any number of times from any goroutine.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// resolve stores the outcome. Only the first call has an effect.
func (f *Future[T]) resolve(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed when the task has completed or failed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the outcome is available without blocking.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task has run and returns its value and error.
// The error is whatever the work returned, or a *PanicError if it panicked.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// WaitContext is like Wait but gives up when ctx is done, returning ctx.Err().
// Giving up does not cancel the task; a later Wait still observes its outcome.
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
