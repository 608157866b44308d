package task

import (
	"sync"

	"github.com/google/uuid"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
)

type syncEvent struct {
	ch       chan struct{}
	signaled bool
}

// SyncBridge lets foreground-thread code unblock a waiting task. The typical
// round trip: a task creates an event, schedules a foreground callback (e.g.
// a modal dialog) that calls SignalFromForeground when the user answers, then
// waits on the event channel. The bridge owns the pending-event map; the gate
// itself is only ever closed on the scheduler goroutine.
type SyncBridge struct {
	mgr    *Manager
	logger *logger.Logger

	mu     sync.Mutex
	events map[string]*syncEvent
}

// NewSyncBridge creates a bridge bound to a manager.
func NewSyncBridge(mgr *Manager, log *logger.Logger) *SyncBridge {
	return &SyncBridge{
		mgr:    mgr,
		logger: log,
		events: make(map[string]*syncEvent),
	}
}

// CreateEvent registers a new rendezvous point and returns its id plus the
// channel the task side waits on. With no live scheduler the returned channel
// is already closed, so callers never deadlock against a dead system.
func (b *SyncBridge) CreateEvent() (string, <-chan struct{}) {
	id := uuid.NewString()

	if !b.mgr.Active() {
		b.logger.Warn("cannot create sync event, scheduler not running",
			logger.Field{Key: "event_id", Value: id})
		satisfied := make(chan struct{})
		close(satisfied)
		return id, satisfied
	}

	ev := &syncEvent{ch: make(chan struct{})}
	b.mu.Lock()
	b.events[id] = ev
	b.mu.Unlock()
	return id, ev.ch
}

// SignalFromForeground releases the task waiting on id. It must be called
// from the foreground side only; the actual close is marshalled onto the
// scheduler goroutine. Signaling an unknown id is a no-op.
func (b *SyncBridge) SignalFromForeground(id string) {
	posted := b.mgr.post(func() { b.signal(id) })
	if !posted {
		b.logger.Warn("cannot signal sync event, scheduler not running",
			logger.Field{Key: "event_id", Value: id})
	}
}

func (b *SyncBridge) signal(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev, ok := b.events[id]
	if !ok || ev.signaled {
		return
	}
	ev.signaled = true
	close(ev.ch)
}

// Cleanup releases the bookkeeping for an event id. The task side calls it
// after resuming; it is safe to call without or after a signal, and more than
// once.
func (b *SyncBridge) Cleanup(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.events, id)
}

// Pending returns the number of events awaiting a signal or cleanup.
func (b *SyncBridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
