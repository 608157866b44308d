package task

import (
	"errors"
	"sync"
)

// ErrGroupCancelled is returned when work is submitted to a cancelled group.
var ErrGroupCancelled = errors.New("task group has been cancelled")

// Group ties related tasks to one cancellation fate, typically all the work
// behind a single user action. Defer Close so that an abandoned action, such
// as a window closed mid-operation, cannot leave orphaned background work.
type Group struct {
	mgr  *Manager
	name string

	mu        sync.Mutex
	handles   map[string]*Handle
	cancelled bool
}

// NewGroup creates a group bound to a manager.
func NewGroup(mgr *Manager, name string) *Group {
	return &Group{
		mgr:     mgr,
		name:    name,
		handles: make(map[string]*Handle),
	}
}

// Name returns the group label.
func (g *Group) Name() string { return g.name }

// RunTask submits a task through the group's manager and tracks its handle.
// A cancelled group rejects new submissions immediately.
func (g *Group) RunTask(fn Func, name string, opts ...TaskOption) (*Handle, error) {
	g.mu.Lock()
	if g.cancelled {
		g.mu.Unlock()
		return nil, ErrGroupCancelled
	}
	g.mu.Unlock()

	fullName := name
	if g.name != "" && name != "" {
		fullName = g.name + "." + name
	} else if g.name != "" {
		fullName = g.name
	}

	h, err := g.mgr.RunTask(fn, append(opts, WithName(fullName))...)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.cancelled {
		g.mu.Unlock()
		h.Cancel()
		return nil, ErrGroupCancelled
	}
	g.handles[h.ID()] = h
	g.mu.Unlock()

	// Drop the handle from tracking once the task retires.
	go func() {
		<-h.Done()
		g.mu.Lock()
		delete(g.handles, h.ID())
		g.mu.Unlock()
	}()

	return h, nil
}

// CancelAll marks the group cancelled and cancels every tracked task. Member
// tasks may cancel in any order, concurrently.
func (g *Group) CancelAll() {
	g.mu.Lock()
	g.cancelled = true
	handles := make([]*Handle, 0, len(g.handles))
	for _, h := range g.handles {
		handles = append(handles, h)
	}
	g.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
}

// Size returns the number of tasks still tracked by the group.
func (g *Group) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handles)
}

// Close cancels all remaining group work. It always succeeds and exists so
// the group can be torn down with defer, whatever the exit path.
func (g *Group) Close() error {
	g.CancelAll()
	return nil
}
