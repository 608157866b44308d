package command

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/runner"
)

func newTestRunner(t *testing.T) *runner.Runner {
	t.Helper()
	pool := runner.NewPool(2, logger.Nop())
	t.Cleanup(func() {
		_ = pool.Stop(2 * time.Second)
	})
	return runner.New(pool, nil, logger.Nop())
}

func TestArchiveCreatesArchive(t *testing.T) {
	if _, err := exec.LookPath("tar"); err != nil {
		t.Skip("tar not available")
	}

	dir := t.TempDir()
	source := filepath.Join(dir, "project")
	mustMkdir(t, source)
	mustWrite(t, filepath.Join(source, "readme.txt"), "some project content to compress")
	archive := filepath.Join(dir, "project.tgz")

	cmdline := fmt.Sprintf("tar -czf %s -C %s .", archive, source)
	cmd := NewArchiveCommand(newTestRunner(t), source, archive, cmdline, nil, nil)
	res := cmd.Execute(context.Background())

	require.True(t, res.IsSuccess(), "unexpected result: %v", res.Err())
	report, ok := res.Data().(ArchiveReport)
	require.True(t, ok)
	assert.Equal(t, archive, report.ArchivePath)
	assert.Positive(t, report.OriginalSize)
	assert.Positive(t, report.CompressedSize)
	assert.FileExists(t, archive)
}

func TestArchiveMissingSource(t *testing.T) {
	dir := t.TempDir()
	cmd := NewArchiveCommand(newTestRunner(t), filepath.Join(dir, "absent"), filepath.Join(dir, "out.tgz"), "true", nil, nil)
	res := cmd.Execute(context.Background())
	assert.True(t, res.IsError())
}

func TestArchiveEmptyCommandRejected(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "f"), "x")
	cmd := NewArchiveCommand(newTestRunner(t), filepath.Join(dir, "f"), filepath.Join(dir, "out"), "", nil, nil)
	res := cmd.Execute(context.Background())
	assert.True(t, res.IsError())
}

func TestArchiveCommandFailure(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "f"), "x")
	cmd := NewArchiveCommand(newTestRunner(t), filepath.Join(dir, "f"), filepath.Join(dir, "out"), "exit 3", nil, nil)
	res := cmd.Execute(context.Background())
	require.True(t, res.IsError())
}

func TestArchivePartialWhenArchiveMissing(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "f"), "x")
	cmd := NewArchiveCommand(newTestRunner(t), filepath.Join(dir, "f"), filepath.Join(dir, "never-written"), "true", nil, nil)
	res := cmd.Execute(context.Background())
	assert.True(t, res.IsPartial())
}
