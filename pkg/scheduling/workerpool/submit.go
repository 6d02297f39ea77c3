package workerpool

import (
	"fmt"
	"runtime/debug"

	tperrors "github.com/qiuyinlan/threadpool/pkg/common/errors"
)

// PanicError is the failure recorded for a task whose body panicked.
// It unwraps to errors.ErrTaskPanicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func newPanicError(recovered interface{}) *PanicError {
	return &PanicError{Value: recovered, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	return tperrors.ErrTaskPanicked
}

// futureTask pairs caller work with the Future it resolves.
type futureTask[T any] struct {
	work   func() (T, error)
	future *Future[T]
}

// Execute runs the work and resolves the future with its outcome. The
// outcome error is also returned so the pool can count failures.
func (t *futureTask[T]) Execute() (err error) {
	var value T
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
		t.future.resolve(value, err)
	}()

	value, err = t.work()
	return err
}

// Submit enqueues work on p and returns a Future for its outcome. The
// future is returned before the work runs. If the pool has been shut down
// Submit returns ErrPoolClosed and the work never runs.
func Submit[T any](p Pool, work func() (T, error)) (*Future[T], error) {
	if work == nil {
		return nil, tperrors.ErrNilTask
	}

	task := &futureTask[T]{
		work:   work,
		future: newFuture[T](),
	}
	if err := p.Submit(task); err != nil {
		return nil, err
	}
	return task.future, nil
}

// SubmitFunc is Submit for work that reports failure only by panicking.
func SubmitFunc[T any](p Pool, work func() T) (*Future[T], error) {
	if work == nil {
		return nil, tperrors.ErrNilTask
	}
	return Submit(p, func() (T, error) {
		return work(), nil
	})
}
