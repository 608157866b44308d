package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
)

const submitQueueSize = 64

// ErrShutdown is returned for submissions to a manager that is shutting down
// or already shut down.
var ErrShutdown = errors.New("task manager is shut down")

// Stats is a point-in-time snapshot of the task registry. It may be stale by
// the time the caller reads it; tasks keep progressing concurrently.
type Stats struct {
	Total     int // tasks currently registered
	Running   int // tasks in the Running state
	Completed int // tasks retired since the manager started
}

type submission struct {
	handle   *Handle
	fn       Func
	callback Callback
}

// Manager owns the worker-side scheduler, the task registry and the
// statistics counters. Construct one explicitly and pass it to whoever needs
// it; there is no package-level instance, so tests can run isolated managers
// side by side.
type Manager struct {
	logger  *logger.Logger
	metrics *Metrics

	mu           sync.Mutex
	tasks        map[string]*Handle
	started      bool
	shuttingDown bool
	retired      int

	ctx          context.Context
	cancel       context.CancelFunc
	submitNormal chan submission
	submitHigh   chan submission
	calls        chan func()
	loopDone     chan struct{}
	running      sync.WaitGroup
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithMetrics attaches prometheus collectors to the manager.
func WithMetrics(m *Metrics) ManagerOption {
	return func(mgr *Manager) { mgr.metrics = m }
}

// NewManager creates a Manager. The scheduler starts lazily on the first
// submission, or eagerly via Start.
func NewManager(log *logger.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		logger: log,
		tasks:  make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start brings up the scheduler goroutine. It is idempotent: calling it when
// the scheduler is already running is a no-op, and it never spawns a second
// scheduler. Start has no effect after Shutdown.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startLocked()
}

func (m *Manager) startLocked() {
	if m.started || m.shuttingDown {
		return
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.submitNormal = make(chan submission, submitQueueSize)
	m.submitHigh = make(chan submission, submitQueueSize)
	m.calls = make(chan func(), submitQueueSize)
	m.loopDone = make(chan struct{})
	m.started = true

	go m.loop()
	m.logger.Info("task scheduler started")
}

// Active reports whether the scheduler is up and accepting work.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started && !m.shuttingDown
}

// loop is the scheduler: it launches submitted tasks and services closures
// marshalled from the foreground thread. High-priority submissions are
// preferred when both queues have work.
func (m *Manager) loop() {
	defer close(m.loopDone)

	for {
		select {
		case sub := <-m.submitHigh:
			m.launch(sub)
			continue
		case <-m.ctx.Done():
			return
		default:
		}

		select {
		case sub := <-m.submitHigh:
			m.launch(sub)
		case sub := <-m.submitNormal:
			m.launch(sub)
		case fn := <-m.calls:
			fn()
		case <-m.ctx.Done():
			return
		}
	}
}

// TaskOption configures one submission.
type TaskOption func(*taskOptions)

type taskOptions struct {
	name     string
	priority Priority
	callback Callback
}

// WithName attaches a human label to the task.
func WithName(name string) TaskOption {
	return func(o *taskOptions) { o.name = name }
}

// WithPriority sets the launch priority.
func WithPriority(p Priority) TaskOption {
	return func(o *taskOptions) { o.priority = p }
}

// WithCallback registers a completion callback, fired once on the worker
// side when the task finishes, fails or is cancelled. A nil error means
// success; the result may be nil if the task returned none.
func WithCallback(cb Callback) TaskOption {
	return func(o *taskOptions) { o.callback = cb }
}

// RunTask registers a task and submits it to the scheduler, returning
// immediately with a handle. After Shutdown it fails with ErrShutdown rather
// than hanging.
func (m *Manager) RunTask(fn Func, opts ...TaskOption) (*Handle, error) {
	var o taskOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = "unnamed"
	}

	m.mu.Lock()
	if m.shuttingDown {
		m.mu.Unlock()
		return nil, ErrShutdown
	}
	m.startLocked()

	tctx, tcancel := context.WithCancel(m.ctx)
	h := &Handle{
		id:          uuid.NewString(),
		name:        o.name,
		priority:    o.priority,
		submittedAt: time.Now(),
		ctx:         tctx,
		cancel:      tcancel,
		done:        make(chan struct{}),
		status:      StatusPending,
	}
	m.tasks[h.id] = h
	queue := m.submitNormal
	if o.priority == PriorityHigh {
		queue = m.submitHigh
	}
	schedCtx := m.ctx
	m.mu.Unlock()

	select {
	case queue <- submission{handle: h, fn: fn, callback: o.callback}:
		m.metrics.TaskSubmitted()
		m.logger.Debug("task submitted",
			logger.Field{Key: "task_id", Value: h.id},
			logger.Field{Key: "task_name", Value: h.name})
		return h, nil
	case <-schedCtx.Done():
		m.drop(h.id)
		tcancel()
		return nil, ErrShutdown
	}
}

// launch moves a task from Pending to Running and runs it on its own
// goroutine. A task cancelled before launch goes straight to Cancelled
// without running.
func (m *Manager) launch(sub submission) {
	h := sub.handle
	if h.ctx.Err() != nil {
		m.retire(sub, nil, context.Canceled, false)
		return
	}

	h.markRunning()
	m.metrics.TaskStarted()
	m.running.Add(1)

	go func() {
		defer m.running.Done()
		defer func() {
			if r := recover(); r != nil {
				m.retire(sub, nil, fmt.Errorf("panic in task %s: %v", h.name, r), true)
			}
		}()
		res, err := sub.fn(h.ctx)
		m.retire(sub, res, err, true)
	}()
}

// retire records a task's terminal state, fires its completion callback
// exactly once, and removes it from the registry.
func (m *Manager) retire(sub submission, res any, err error, wasRunning bool) {
	h := sub.handle

	status := StatusCompleted
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = StatusCancelled
		} else {
			status = StatusFailed
		}
	}

	if !h.complete(status, res, err) {
		// Already finished through another path (e.g. a panic after the
		// callback itself failed); nothing more to record.
		return
	}

	duration := time.Since(h.submittedAt)
	m.metrics.TaskFinished(status, wasRunning, duration)

	if sub.callback != nil {
		m.safeCallback(sub, status, res, err)
	}

	m.mu.Lock()
	if _, ok := m.tasks[h.id]; ok {
		delete(m.tasks, h.id)
		m.retired++
	}
	m.mu.Unlock()

	m.logger.Debug("task finished",
		logger.Field{Key: "task_id", Value: h.id},
		logger.Field{Key: "task_name", Value: h.name},
		logger.Field{Key: "status", Value: status.String()},
		logger.Field{Key: "duration_ms", Value: duration.Milliseconds()})
}

func (m *Manager) safeCallback(sub submission, status Status, res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("task callback panicked",
				fmt.Errorf("panic: %v", r),
				logger.Field{Key: "task_id", Value: sub.handle.id})
		}
	}()

	switch {
	case status == StatusCancelled:
		sub.callback(nil, context.Canceled)
	case err != nil:
		sub.callback(nil, err)
	default:
		sub.callback(res, nil)
	}
}

// Cancel requests cancellation of a single task by id. It reports whether the
// id was known.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	h, ok := m.tasks[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	h.Cancel()
	return true
}

// CancelAll requests cancellation of every registered task and waits up to
// timeout for them to reach a terminal state. Tasks still not terminal after
// the timeout are dropped from the registry and abandoned; their underlying
// work is not guaranteed to have stopped. Returns the number of abandoned
// tasks.
func (m *Manager) CancelAll(timeout time.Duration) int {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.tasks))
	for _, h := range m.tasks {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	if len(handles) == 0 {
		return 0
	}
	m.logger.Info("cancelling tasks", logger.Field{Key: "count", Value: len(handles)})

	for _, h := range handles {
		h.Cancel()
	}

	deadline := time.Now().Add(timeout)
	abandoned := 0
	for _, h := range handles {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if m.drop(h.id) {
				abandoned++
			}
			continue
		}
		select {
		case <-h.done:
		case <-time.After(remaining):
			if m.drop(h.id) {
				abandoned++
			}
		}
	}

	if abandoned > 0 {
		m.logger.Warn("tasks did not cancel within timeout",
			logger.Field{Key: "abandoned", Value: abandoned},
			logger.Field{Key: "timeout", Value: timeout.String()})
	}
	return abandoned
}

// drop removes a registry entry without counting it as retired.
func (m *Manager) drop(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return false
	}
	delete(m.tasks, id)
	return true
}

// Count returns the number of currently registered tasks.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// GetStats returns a snapshot of the task counters.
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	running := 0
	for _, h := range m.tasks {
		if h.Status() == StatusRunning {
			running++
		}
	}
	return Stats{
		Total:     len(m.tasks),
		Running:   running,
		Completed: m.retired,
	}
}

// post marshals a closure onto the scheduler goroutine. It is the only safe
// way for foreign threads to touch scheduler-owned state. Returns false when
// no scheduler is running.
func (m *Manager) post(fn func()) bool {
	m.mu.Lock()
	if !m.started || m.shuttingDown {
		m.mu.Unlock()
		return false
	}
	calls := m.calls
	ctx := m.ctx
	m.mu.Unlock()

	select {
	case calls <- fn:
		return true
	case <-ctx.Done():
		return false
	}
}

// Shutdown cancels all tasks, stops the scheduler and leaves the manager
// permanently rejecting new submissions. It is safe to call multiple times.
func (m *Manager) Shutdown(timeout time.Duration) error {
	m.mu.Lock()
	if m.shuttingDown {
		m.mu.Unlock()
		return nil
	}
	m.shuttingDown = true
	started := m.started
	m.mu.Unlock()

	if !started {
		return nil
	}

	m.logger.Info("shutting down task manager")
	m.CancelAll(timeout / 2)

	m.cancel()

	deadline := time.After(timeout)
	select {
	case <-m.loopDone:
	case <-deadline:
		m.logger.Warn("scheduler did not stop within timeout",
			logger.Field{Key: "timeout", Value: timeout.String()})
		return fmt.Errorf("task scheduler did not stop within %s", timeout)
	}

	joined := make(chan struct{})
	go func() {
		m.running.Wait()
		close(joined)
	}()
	select {
	case <-joined:
	case <-deadline:
		m.logger.Warn("tasks still running after shutdown timeout")
	}

	m.mu.Lock()
	m.tasks = make(map[string]*Handle)
	m.mu.Unlock()

	m.logger.Info("task manager shutdown complete")
	return nil
}
