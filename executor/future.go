package executor

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Future holds the eventual result of a submitted task
type Future[T any] struct {
	log  *zap.Logger
	done chan struct{}

	mu        sync.Mutex
	resolved  bool
	value     T
	err       error
	callbacks []func(T, error)
}

func newFuture[T any](log *zap.Logger) *Future[T] {
	return &Future[T]{log: log, done: make(chan struct{})}
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the task finishes or ctx is done. Cancelling ctx only stops
// the wait; the task itself still runs to completion.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers cb to receive the result. Callbacks registered before completion
// run on the worker goroutine and must hand long work off; callbacks registered
// after completion run immediately on the caller's goroutine.
func (f *Future[T]) Then(cb func(T, error)) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.notify(cb)
}

func (f *Future[T]) resolve(value T, err error) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return
	}
	f.value, f.err = value, err
	f.resolved = true
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		f.notify(cb)
	}
}

func (f *Future[T]) notify(cb func(T, error)) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("future callback panic recovered", zap.Any("panic", r))
		}
	}()
	cb(f.value, f.err)
}
