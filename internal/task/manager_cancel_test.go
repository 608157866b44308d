package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CancelAll_BoundedWait(t *testing.T) {
	m := newTestManager(t)

	// Five tasks that sleep far longer than the cancellation timeout but do
	// honor their context.
	for i := 0; i < 5; i++ {
		_, err := m.RunTask(func(ctx context.Context) (any, error) {
			select {
			case <-time.After(10 * time.Second):
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}, WithName("sleeper"))
		require.NoError(t, err)
	}
	require.Equal(t, 5, m.Count())

	start := time.Now()
	abandoned := m.CancelAll(time.Second)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 3*time.Second, "CancelAll must return within timeout plus margin")
	assert.Zero(t, abandoned, "cooperative tasks should all cancel in time")
	assert.Eventually(t, func() bool { return m.Count() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestManager_CancelAll_AbandonsUncooperativeTasks(t *testing.T) {
	m := newTestManager(t)

	release := make(chan struct{})
	defer close(release)

	// This task ignores its context entirely.
	_, err := m.RunTask(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	}, WithName("stubborn"))
	require.NoError(t, err)

	start := time.Now()
	abandoned := m.CancelAll(200 * time.Millisecond)
	elapsed := time.Since(start)

	assert.Equal(t, 1, abandoned)
	assert.Less(t, elapsed, 2*time.Second)
	// The registry entry is dropped even though the work never stopped.
	assert.Equal(t, 0, m.Count())
}

func TestManager_PerHandleCancel(t *testing.T) {
	m := newTestManager(t)

	running := make(chan struct{})
	h, err := m.RunTask(func(ctx context.Context) (any, error) {
		close(running)
		<-ctx.Done()
		return nil, ctx.Err()
	}, WithName("victim"))
	require.NoError(t, err)
	<-running

	keep, err := m.RunTask(func(ctx context.Context) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return "survived", nil
		}
	}, WithName("bystander"))
	require.NoError(t, err)

	assert.True(t, m.Cancel(h.ID()))
	waitDone(t, h)
	assert.Equal(t, StatusCancelled, h.Status())

	// Cancelling one task must not touch unrelated tasks.
	waitDone(t, keep)
	res, keepErr := keep.Result()
	require.NoError(t, keepErr)
	assert.Equal(t, "survived", res)
}

func TestManager_CancelUnknownID(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.Cancel("no-such-task"))
}

func TestManager_CancelledTaskDeliversCancelledCompletion(t *testing.T) {
	m := newTestManager(t)

	got := make(chan error, 1)
	running := make(chan struct{})
	h, err := m.RunTask(
		func(ctx context.Context) (any, error) {
			close(running)
			<-ctx.Done()
			return nil, ctx.Err()
		},
		WithCallback(func(result any, err error) {
			got <- err
		}))
	require.NoError(t, err)
	<-running

	h.Cancel()
	select {
	case cbErr := <-got:
		assert.ErrorIs(t, cbErr, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled task silently disappeared without a completion")
	}
}

func TestManager_CancelBeforeLaunch(t *testing.T) {
	m := newTestManager(t)
	m.Start()

	// Block the scheduler so the next submission stays pending.
	blocker := make(chan struct{})
	require.True(t, m.post(func() { <-blocker }))

	h, err := m.RunTask(func(ctx context.Context) (any, error) {
		return "ran anyway", nil
	}, WithName("never-launched"))
	require.NoError(t, err)

	h.Cancel()
	close(blocker)

	waitDone(t, h)
	assert.Equal(t, StatusCancelled, h.Status())
	_, taskErr := h.Result()
	assert.ErrorIs(t, taskErr, context.Canceled)
}
