package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
)

type fakeStopper struct {
	calls int
	err   error
}

func (f *fakeStopper) Stop(timeout time.Duration) error {
	f.calls++
	return f.err
}

func TestShutdownAll_StopsManagerAndStoppers(t *testing.T) {
	m := NewManager(logger.Nop())
	m.Start()
	stopper := &fakeStopper{}

	require.NoError(t, ShutdownAll(m, time.Second, stopper))
	assert.Equal(t, 1, stopper.calls)
	assert.False(t, m.Active())

	_, err := m.RunTask(func(ctx context.Context) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestShutdownAll_CollectsErrors(t *testing.T) {
	bad := &fakeStopper{err: errors.New("pool stuck")}
	good := &fakeStopper{}

	err := ShutdownAll(nil, time.Second, bad, good)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool stuck")
	assert.Equal(t, 1, good.calls)
}

func TestShutdownAll_NilManager(t *testing.T) {
	assert.NoError(t, ShutdownAll(nil, time.Second))
}

func TestShutdownAll_CallableTwice(t *testing.T) {
	m := NewManager(logger.Nop())
	m.Start()

	require.NoError(t, ShutdownAll(m, time.Second))
	require.NoError(t, ShutdownAll(m, time.Second))
}

func TestShutdown_CancelsRunningTasks(t *testing.T) {
	m := NewManager(logger.Nop())

	running := make(chan struct{})
	h, err := m.RunTask(func(ctx context.Context) (any, error) {
		close(running)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-running

	require.NoError(t, m.Shutdown(2*time.Second))
	waitDone(t, h)
	assert.Equal(t, StatusCancelled, h.Status())
	assert.Equal(t, 0, m.Count())
}
