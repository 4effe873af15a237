// Package notify delivers the outcome of background work (a folder search, a
// cell navigation) to whoever started it. Each invocation gets its own Task;
// nothing is shared between invocations.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Result is the tagged outcome of a Task: either Value or Err is meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the task succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Task is a single piece of work running on its own goroutine.
type Task[T any] struct {
	id        string
	done      chan struct{}
	callbacks []func(Result[T])
	result    Result[T]
	started   time.Time
	finished  time.Time
}

// Option configures a Task before it starts.
type Option[T any] func(*Task[T])

// OnComplete registers fn to receive the Result. Callbacks run on the task
// goroutine, in registration order, before Done is closed; a callback must
// not Wait on its own task.
func OnComplete[T any](fn func(Result[T])) Option[T] {
	return func(t *Task[T]) {
		if fn != nil {
			t.callbacks = append(t.callbacks, fn)
		}
	}
}

// Go starts fn on a new goroutine and returns its Task immediately.
// A panic in fn is recovered and reported as the Result's error.
func Go[T any](fn func() (T, error), opts ...Option[T]) *Task[T] {
	t := &Task[T]{
		id:      uuid.NewString(),
		done:    make(chan struct{}),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(t)
	}

	go t.run(fn)
	return t
}

func (t *Task[T]) run(fn func() (T, error)) {
	defer close(t.done)

	t.result = capture(fn)
	t.finished = time.Now()
	for _, cb := range t.callbacks {
		cb(t.result)
	}
}

func capture[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: fmt.Errorf("task panicked: %v", r)}
		}
	}()
	v, err := fn()
	return Result[T]{Value: v, Err: err}
}

// ID is the task's unique identifier.
func (t *Task[T]) ID() string {
	return t.id
}

// Done is closed once the Result is available and all callbacks returned.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done. Giving up on ctx does
// not stop the task.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.result.Value, t.result.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking; ok is false while running.
func (t *Task[T]) Result() (Result[T], bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result[T]{}, false
	}
}

// Elapsed is the run time so far, or the total once finished.
func (t *Task[T]) Elapsed() time.Duration {
	select {
	case <-t.done:
		return t.finished.Sub(t.started)
	default:
		return time.Since(t.started)
	}
}
