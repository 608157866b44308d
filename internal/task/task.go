// Package task hosts the asynchronous execution bridge of the control panel:
// a worker-side scheduler that launches, tracks and cancels background tasks,
// plus the synchronization primitives that let foreground (GUI) code and task
// code hand control back and forth without touching each other's state.
package task

import (
	"context"
	"sync"
	"time"
)

// Status is the lifecycle state of a task. Transitions only move forward:
// Pending → Running → {Completed | Failed | Cancelled}.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusCancelled
)

// String returns the lowercase label for the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a final one.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Func is one unit of asynchronous work. It must honor ctx cancellation at
// its blocking points.
type Func func(ctx context.Context) (any, error)

// Callback is invoked exactly once when a task reaches a terminal state. A
// nil err means the task completed; the result is whatever the task returned
// and may itself be nil. A failed task delivers a nil result and its error,
// a cancelled one delivers context.Canceled.
type Callback func(result any, err error)

// Priority orders task launch when submissions compete for the scheduler.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

// Handle identifies a submitted task and exposes its progress.
type Handle struct {
	id          string
	name        string
	priority    Priority
	submittedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	finish sync.Once

	mu     sync.Mutex
	status Status
	result any
	err    error
}

// ID returns the unique task id.
func (h *Handle) ID() string { return h.id }

// Name returns the human label given at submission. Names may collide across
// tasks; only the id is unique.
func (h *Handle) Name() string { return h.name }

// Priority returns the submission priority.
func (h *Handle) Priority() Priority { return h.priority }

// SubmittedAt returns the submission time.
func (h *Handle) SubmittedAt() time.Time { return h.submittedAt }

// Status returns the current lifecycle state.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Done returns a channel closed when the task reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result returns the task outcome. It is only meaningful after Done is
// closed.
func (h *Handle) Result() (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Cancel requests cooperative cancellation of this task. The task stops at
// its next suspension point.
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) markRunning() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status == StatusPending {
		h.status = StatusRunning
	}
}

// complete records the terminal state once; later calls are ignored.
func (h *Handle) complete(status Status, result any, err error) bool {
	completed := false
	h.finish.Do(func() {
		h.mu.Lock()
		h.status = status
		h.result = result
		h.err = err
		h.mu.Unlock()
		close(h.done)
		completed = true
	})
	return completed
}
