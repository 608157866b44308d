package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/result"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	validator, err := NewValidator(nil)
	require.NoError(t, err)
	return New(newTestPool(t, 2), validator, logger.Nop())
}

func TestRun_EchoHello(t *testing.T) {
	r := newTestRunner(t)

	completed, err := r.Run(context.Background(), Options{Command: []string{"echo", "hello"}})
	require.NoError(t, err)
	assert.Equal(t, 0, completed.ExitCode)
	assert.Contains(t, completed.Stdout, "hello")
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	r := newTestRunner(t)

	completed, err := r.Run(context.Background(), Options{Shell: "exit 1"})
	require.NoError(t, err)
	assert.Equal(t, 1, completed.ExitCode)
}

func TestRun_CapturesStderr(t *testing.T) {
	r := newTestRunner(t)

	completed, err := r.Run(context.Background(), Options{Shell: "echo oops >&2; exit 2"})
	require.NoError(t, err)
	assert.Equal(t, 2, completed.ExitCode)
	assert.Contains(t, completed.Stderr, "oops")
}

func TestRun_StartupFailureIsAnError(t *testing.T) {
	r := newTestRunner(t)

	_, err := r.Run(context.Background(), Options{Command: []string{"/no/such/binary-xyz"}})
	require.Error(t, err)

	var serr *result.Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, result.CodeProcess, serr.Code)
}

func TestRun_EmptyCommandRejected(t *testing.T) {
	r := newTestRunner(t)

	_, err := r.Run(context.Background(), Options{})
	var serr *result.Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, result.CodeValidation, serr.Code)
}

func TestRun_WorkingDirectory(t *testing.T) {
	r := newTestRunner(t)
	dir := t.TempDir()

	completed, err := r.Run(context.Background(), Options{Command: []string{"pwd"}, Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(completed.Stdout))
}

func TestRun_TimeoutKillsProcess(t *testing.T) {
	r := newTestRunner(t)

	start := time.Now()
	completed, err := r.Run(context.Background(), Options{
		Command: []string{"sleep", "10"},
		Timeout: 200 * time.Millisecond,
	})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 5*time.Second)
	// Killed processes surface either as a non-zero exit or as a context error
	// from the bridge; both count as the child being stopped.
	if err == nil {
		assert.NotEqual(t, 0, completed.ExitCode)
	}
}

func TestRunStreaming_ThreeLines(t *testing.T) {
	r := newTestRunner(t)

	var mu sync.Mutex
	var lines []string
	code, full, err := r.RunStreaming(context.Background(),
		Options{Shell: "printf 'one\\ntwo\\nthree\\n'"},
		func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		})

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.GreaterOrEqual(t, len(lines), 3)
	for _, want := range []string{"one", "two", "three"} {
		assert.Contains(t, full, want)
	}
}

func TestRunStreaming_CombinesStderr(t *testing.T) {
	r := newTestRunner(t)

	code, full, err := r.RunStreaming(context.Background(),
		Options{Shell: "echo out; echo err >&2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, full, "out")
	assert.Contains(t, full, "err")
}

func TestRunStreaming_StartupFailureReportedNotRaised(t *testing.T) {
	r := newTestRunner(t)

	var calls int
	code, full, err := r.RunStreaming(context.Background(),
		Options{Command: []string{"/no/such/binary-xyz"}},
		func(string) { calls++ })

	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(full, startFailureMarker), "output: %q", full)
	assert.Equal(t, 1, calls)
}

func TestRunStreaming_SingleOverlongLine(t *testing.T) {
	r := newTestRunner(t)

	var (
		code int
		full string
		err  error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		code, full, err = r.RunStreaming(context.Background(),
			Options{Shell: "head -c 2000000 /dev/zero | tr '\\0' 'a'; echo; echo TAIL"}, nil)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("RunStreaming did not return for a single output line past any buffer size")
	}

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, full, "TAIL")
	assert.GreaterOrEqual(t, len(full), 2000000)
}

func TestRunStreaming_NonZeroExitCode(t *testing.T) {
	r := newTestRunner(t)

	code, full, err := r.RunStreaming(context.Background(),
		Options{Shell: "echo failing; exit 3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Contains(t, full, "failing")
}

func TestRun_DeniedCommandNeverRuns(t *testing.T) {
	r := newTestRunner(t)
	dir := t.TempDir()

	_, err := r.Run(context.Background(), Options{Shell: "dd if=/dev/zero of=/dev/sda", Dir: dir})
	var serr *result.Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, result.CodeValidation, serr.Code)
}
