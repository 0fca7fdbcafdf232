package transport

import (
	"context"
	"errors"
	"sync"
)

// errUnknownFailure replaces a nil error passed to Fail
var errUnknownFailure = errors.New("unknown failure")

// Future is the result of an asynchronous transport operation.
// It is completed exactly once, either with a value or with an error.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	result    T
	err       error
	listeners []func(*Future[T])
}

// NewFuture creates an uncompleted future
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// CompletedFuture returns a future that already succeeded with v
func CompletedFuture[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Complete(v)
	return f
}

// FailedFuture returns a future that already failed with err
func FailedFuture[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Fail(err)
	return f
}

// Complete completes the future successfully.
// It returns false if the future was already completed.
func (f *Future[T]) Complete(v T) bool {
	return f.finish(v, nil)
}

// Fail completes the future with an error.
// It returns false if the future was already completed.
func (f *Future[T]) Fail(err error) bool {
	if err == nil {
		err = errUnknownFailure
	}
	var zero T
	return f.finish(zero, err)
}

// IsDone reports whether the future is completed
func (f *Future[T]) IsDone() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// IsSuccess reports whether the future completed without error
func (f *Future[T]) IsSuccess() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed && f.err == nil
}

// Result returns the value of a successful future (zero value otherwise)
func (f *Future[T]) Result() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Cause returns the error of a failed future (nil otherwise)
func (f *Future[T]) Cause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Done returns a channel that is closed once the future is completed
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future is completed or ctx is done
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete registers a listener. Listeners run in registration order on the
// goroutine that completes the future. If the future is already completed the
// listener runs immediately on the calling goroutine.
func (f *Future[T]) OnComplete(listener func(*Future[T])) {
	f.mu.Lock()
	if !f.completed {
		f.listeners = append(f.listeners, listener)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	listener(f)
}

func (f *Future[T]) finish(v T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.result = v
	f.err = err
	listeners := f.listeners
	f.listeners = nil
	close(f.done)
	f.mu.Unlock()

	for _, l := range listeners {
		l(f)
	}
	return true
}
