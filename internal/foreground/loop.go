// Package foreground provides the cooperative callback loop the GUI side of
// the panel runs on. All posted callbacks execute sequentially on one
// dedicated goroutine, mirroring a single-threaded UI event loop: the loop
// never blocks inside a callback for long-running work; it schedules that
// work elsewhere and returns.
package foreground

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
)

// DefaultQueueSize is the default callback queue capacity.
const DefaultQueueSize = 128

// Loop executes posted callbacks one at a time on a dedicated goroutine.
type Loop struct {
	calls  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	logger *logger.Logger

	mu      sync.Mutex
	stopped bool
}

// NewLoop creates the loop and starts its goroutine immediately.
func NewLoop(queueSize int, log *logger.Logger) *Loop {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		calls:  make(chan func(), queueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		logger: log,
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.calls:
			l.invoke(fn)
		case <-l.ctx.Done():
			return
		}
	}
}

// invoke shields the loop from a panicking callback.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("foreground callback panicked", fmt.Errorf("panic: %v", r))
		}
	}()
	fn()
}

// Post schedules fn to run on the loop as soon as possible. It reports false
// when the loop has stopped; it never blocks the caller indefinitely.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.calls <- fn:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// PostAfter schedules fn to run on the loop after the delay. The returned
// timer can be stopped to cancel the callback before it fires.
func (l *Loop) PostAfter(delay time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(delay, func() {
		l.Post(fn)
	})
}

// Stop terminates the loop and waits for its goroutine to exit. Pending
// callbacks that were not yet picked up are discarded. Safe to call more
// than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.mu.Unlock()

	l.cancel()
	<-l.done
}
