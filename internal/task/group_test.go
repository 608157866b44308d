package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSleeper(t *testing.T, g *Group, name string) *Handle {
	t.Helper()
	h, err := g.RunTask(func(ctx context.Context) (any, error) {
		select {
		case <-time.After(10 * time.Second):
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, name)
	require.NoError(t, err)
	return h
}

func TestGroup_ScopeExitCancelsPendingTasks(t *testing.T) {
	m := newTestManager(t)

	g := NewGroup(m, "archive-project")
	h1 := runSleeper(t, g, "scan")
	h2 := runSleeper(t, g, "compress")

	// Scope exit, normal or exceptional.
	require.NoError(t, g.Close())

	waitDone(t, h1)
	waitDone(t, h2)
	assert.Equal(t, StatusCancelled, h1.Status())
	assert.Equal(t, StatusCancelled, h2.Status())
}

func TestGroup_CancelledGroupRejectsNewWork(t *testing.T) {
	m := newTestManager(t)

	g := NewGroup(m, "cleanup")
	g.CancelAll()

	_, err := g.RunTask(func(ctx context.Context) (any, error) {
		return nil, nil
	}, "late")
	assert.ErrorIs(t, err, ErrGroupCancelled)
}

func TestGroup_NamePrefix(t *testing.T) {
	m := newTestManager(t)

	g := NewGroup(m, "git-view")
	h, err := g.RunTask(func(ctx context.Context) (any, error) {
		return nil, nil
	}, "fetch")
	require.NoError(t, err)
	assert.Equal(t, "git-view.fetch", h.Name())
	waitDone(t, h)
}

func TestGroup_TracksAndReleasesHandles(t *testing.T) {
	m := newTestManager(t)

	g := NewGroup(m, "batch")
	release := make(chan struct{})
	h, err := g.RunTask(func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	}, "worker")
	require.NoError(t, err)
	assert.Equal(t, 1, g.Size())

	close(release)
	waitDone(t, h)
	assert.Eventually(t, func() bool { return g.Size() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestGroup_CancelAllIsIdempotent(t *testing.T) {
	m := newTestManager(t)

	g := NewGroup(m, "twice")
	h := runSleeper(t, g, "victim")

	g.CancelAll()
	g.CancelAll()

	waitDone(t, h)
	assert.Equal(t, StatusCancelled, h.Status())
}
