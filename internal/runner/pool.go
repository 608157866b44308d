// Package runner executes external commands and arbitrary blocking calls on a
// bounded pool of worker goroutines, keeping the foreground loop free. It is
// the only sanctioned path for blocking work in the panel: routing everything
// through the pool is what lets cancellation reach child processes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
)

// DefaultPoolWorkers is the default number of blocking-call workers.
const DefaultPoolWorkers = 4

// ErrPoolStopped is returned when a blocking call is submitted to a pool that
// has been stopped.
var ErrPoolStopped = errors.New("executor pool is stopped")

type poolOutcome struct {
	value any
	err   error
}

type poolTask struct {
	fn   func() (any, error)
	done chan poolOutcome
}

// Pool runs blocking functions on a fixed set of worker goroutines.
type Pool struct {
	tasks   chan poolTask
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *logger.Logger

	mu      sync.Mutex
	stopped bool
}

// NewPool creates a pool and starts its workers.
func NewPool(workers int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = DefaultPoolWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:   make(chan poolTask),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		logger:  log,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Debug("executor pool started", logger.Field{Key: "workers", Value: workers})
	return p
}

// WorkerCount returns the number of pool workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.tasks:
			task.done <- p.execute(task.fn)
		case <-p.ctx.Done():
			return
		}
	}
}

// execute runs fn and converts a panic into an error so a misbehaving blocking
// call cannot take down a worker.
func (p *Pool) execute(fn func() (any, error)) (out poolOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = poolOutcome{err: fmt.Errorf("panic in blocking call: %v", r)}
			p.logger.Error("blocking call panicked", out.err)
		}
	}()
	value, err := fn()
	return poolOutcome{value: value, err: err}
}

// RunBlocking schedules fn on the pool and blocks the caller until it
// finishes, returning fn's value and error unchanged. If ctx is cancelled
// while fn is still running, RunBlocking returns ctx.Err() and the call is
// abandoned on the worker. Calling RunBlocking on a stopped pool fails
// immediately rather than hanging.
func (p *Pool) RunBlocking(ctx context.Context, fn func() (any, error)) (any, error) {
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return nil, ErrPoolStopped
	}

	task := poolTask{fn: fn, done: make(chan poolOutcome, 1)}

	select {
	case p.tasks <- task:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		return nil, ErrPoolStopped
	}

	select {
	case out := <-task.done:
		return out.value, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Blocking is a typed wrapper around Pool.RunBlocking.
func Blocking[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	value, err := p.RunBlocking(ctx, func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	if value == nil {
		return zero, nil
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("blocking call returned %T", value)
	}
	return typed, nil
}

// Stop shuts the pool down and waits up to timeout for in-flight calls to
// finish. It is safe to call more than once.
func (p *Pool) Stop(timeout time.Duration) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug("executor pool stopped")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("executor pool did not stop within %s", timeout)
	}
}
