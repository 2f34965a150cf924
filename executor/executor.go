// Package executor runs storage work on a single background goroutine.
//
// Tasks are executed one at a time in submission order, so the resource they
// share (a database handle) never sees concurrent use. Submitting never blocks:
// the queue is unbounded and results are delivered through a Future.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrClosed is returned for tasks submitted after Close
	ErrClosed = errors.New("executor closed")
	// ErrPanic wraps a panic raised inside a task
	ErrPanic = errors.New("task panicked")
)

// Hook is run on the worker goroutine around the lifetime of the queue
type Hook func(ctx context.Context) error

// Option configures an Executor
type Option func(*Executor)

// WithLogger sets the logger used for lifecycle and panic reports
func WithLogger(log *zap.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// WithInit sets a hook run before the first task. If it fails, the task that
// triggered it fails with the hook's error and the hook runs again before the next task.
func WithInit(hook Hook) Option {
	return func(e *Executor) { e.init = hook }
}

// WithCleanup sets a hook run after the queue is drained by Close.
// It only runs if the init hook succeeded.
func WithCleanup(hook Hook) Option {
	return func(e *Executor) { e.cleanup = hook }
}

type job func(ctx context.Context, initErr error)

// Executor is a single-worker FIFO task queue
type Executor struct {
	log     *zap.Logger
	init    Hook
	cleanup Hook

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool

	// owned by the worker goroutine
	ready bool

	closeOnce  sync.Once
	cleanupErr error
	done       chan struct{}
}

// New starts an executor and its worker goroutine
func New(opts ...Option) *Executor {
	e := &Executor{
		log:  zap.NewNop(),
		done: make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	for _, opt := range opts {
		opt(e)
	}
	go e.run()
	return e
}

// Pending returns the number of queued tasks that have not started yet
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Close stops accepting tasks, waits for the queued ones to finish and runs the cleanup hook.
// It is safe to call more than once; later calls return the first result.
func (e *Executor) Close() error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.cond.Broadcast()
		e.mu.Unlock()
		<-e.done
	})
	<-e.done
	return e.cleanupErr
}

func (e *Executor) enqueue(j job) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.queue = append(e.queue, j)
	e.cond.Signal()
	return nil
}

func (e *Executor) next() (job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) == 0 && !e.closed {
		e.cond.Wait()
	}
	if len(e.queue) == 0 {
		return nil, false
	}
	j := e.queue[0]
	e.queue[0] = nil
	e.queue = e.queue[1:]
	return j, true
}

func (e *Executor) run() {
	defer close(e.done)
	ctx := context.Background()

	for {
		j, ok := e.next()
		if !ok {
			break
		}
		j(ctx, e.ensureInit(ctx))
	}

	if e.ready && e.cleanup != nil {
		if err := e.cleanup(ctx); err != nil {
			e.log.Error("cleanup failed", zap.Error(err))
			e.cleanupErr = err
		}
	}
	e.log.Debug("executor stopped")
}

func (e *Executor) ensureInit(ctx context.Context) error {
	if e.ready {
		return nil
	}
	if e.init != nil {
		if err := e.init(ctx); err != nil {
			e.log.Warn("init failed, will retry on next task", zap.Error(err))
			return err
		}
	}
	e.ready = true
	e.log.Debug("executor initialized")
	return nil
}

// Submit queues fn on the executor and returns a future for its result
func Submit[T any](e *Executor, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T](e.log)
	err := e.enqueue(func(ctx context.Context, initErr error) {
		if initErr != nil {
			var zero T
			f.resolve(zero, initErr)
			return
		}
		f.resolve(call(ctx, e.log, fn))
	})
	if err != nil {
		var zero T
		f.resolve(zero, err)
	}
	return f
}

func call[T any](ctx context.Context, log *zap.Logger, fn func(ctx context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			var zero T
			value, err = zero, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(ctx)
}
