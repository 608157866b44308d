package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(logger.Nop())
	t.Cleanup(func() {
		_ = m.Shutdown(2 * time.Second)
	})
	return m
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("task %s did not finish", h.Name())
	}
}

func TestManager_RunTask_Completes(t *testing.T) {
	m := newTestManager(t)

	h, err := m.RunTask(func(ctx context.Context) (any, error) {
		return "done", nil
	}, WithName("quick"))
	require.NoError(t, err)
	require.NotEmpty(t, h.ID())
	assert.Equal(t, "quick", h.Name())

	waitDone(t, h)
	res, taskErr := h.Result()
	assert.NoError(t, taskErr)
	assert.Equal(t, "done", res)
	assert.Equal(t, StatusCompleted, h.Status())
}

func TestManager_RunTask_FailureSetsFailedStatus(t *testing.T) {
	m := newTestManager(t)

	boom := errors.New("boom")
	h, err := m.RunTask(func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.NoError(t, err)

	waitDone(t, h)
	_, taskErr := h.Result()
	assert.Same(t, boom, taskErr)
	assert.Equal(t, StatusFailed, h.Status())
}

func TestManager_Callback_ExactlyOnce(t *testing.T) {
	m := newTestManager(t)

	var calls atomic.Int32
	got := make(chan struct{})
	h, err := m.RunTask(
		func(ctx context.Context) (any, error) { return 5, nil },
		WithCallback(func(result any, err error) {
			calls.Add(1)
			assert.Equal(t, 5, result)
			assert.NoError(t, err)
			close(got)
		}))
	require.NoError(t, err)

	waitDone(t, h)
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestManager_Callback_ErrorPath(t *testing.T) {
	m := newTestManager(t)

	boom := errors.New("task exploded")
	got := make(chan error, 1)
	h, err := m.RunTask(
		func(ctx context.Context) (any, error) { return nil, boom },
		WithCallback(func(result any, err error) {
			assert.Nil(t, result)
			got <- err
		}))
	require.NoError(t, err)

	waitDone(t, h)
	select {
	case cbErr := <-got:
		assert.Same(t, boom, cbErr)
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestManager_PanicInTaskBecomesFailure(t *testing.T) {
	m := newTestManager(t)

	h, err := m.RunTask(func(ctx context.Context) (any, error) {
		panic("task meltdown")
	}, WithName("panicky"))
	require.NoError(t, err)

	waitDone(t, h)
	_, taskErr := h.Result()
	require.Error(t, taskErr)
	assert.Contains(t, taskErr.Error(), "task meltdown")
	assert.Equal(t, StatusFailed, h.Status())
}

func TestManager_CountDropsAfterCallback(t *testing.T) {
	m := newTestManager(t)

	release := make(chan struct{})
	h, err := m.RunTask(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count())

	close(release)
	waitDone(t, h)

	assert.Eventually(t, func() bool { return m.Count() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestManager_Start_Idempotent(t *testing.T) {
	m := newTestManager(t)

	m.Start()
	loop1 := m.loopDone
	m.Start()
	m.Start()
	assert.Equal(t, loop1, m.loopDone, "a second scheduler must not be spawned")
	assert.True(t, m.Active())
}

func TestManager_RunTaskAfterShutdownFails(t *testing.T) {
	m := NewManager(logger.Nop())
	m.Start()
	require.NoError(t, m.Shutdown(time.Second))

	_, err := m.RunTask(func(ctx context.Context) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestManager_ShutdownIdempotent(t *testing.T) {
	m := NewManager(logger.Nop())
	m.Start()
	require.NoError(t, m.Shutdown(time.Second))
	require.NoError(t, m.Shutdown(time.Second))
}

func TestManager_LazyStartOnFirstSubmission(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.Active())

	h, err := m.RunTask(func(ctx context.Context) (any, error) { return nil, nil })
	require.NoError(t, err)
	assert.True(t, m.Active())
	waitDone(t, h)
}

func TestManager_HighPriorityAccepted(t *testing.T) {
	m := newTestManager(t)

	h, err := m.RunTask(
		func(ctx context.Context) (any, error) { return "vip", nil },
		WithName("urgent"), WithPriority(PriorityHigh))
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, h.Priority())

	waitDone(t, h)
	res, taskErr := h.Result()
	require.NoError(t, taskErr)
	assert.Equal(t, "vip", res)
}
