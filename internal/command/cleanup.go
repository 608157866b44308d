package command

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/result"
)

// CleanupReport summarizes one cleanup pass over a project directory.
type CleanupReport struct {
	Deleted    []string
	Failed     []string
	FreedBytes int64
}

// CleanupCommand removes throwaway directories (caches, build output) from a
// project tree.
type CleanupCommand struct {
	Base
	Dir        string
	IgnoreDirs []string
}

// NewCleanupCommand creates a cleanup command for dir. ignoreDirs lists the
// directory basenames to remove, e.g. "__pycache__" or "dist".
func NewCleanupCommand(dir string, ignoreDirs []string, progress ProgressFunc, log *logger.Logger) *CleanupCommand {
	return &CleanupCommand{
		Base:       NewBase(progress, log),
		Dir:        dir,
		IgnoreDirs: ignoreDirs,
	}
}

func (c *CleanupCommand) Name() string { return "cleanup" }

func (c *CleanupCommand) Execute(ctx context.Context) result.Result[any] {
	if c.Dir == "" {
		return result.Failure[any](result.NewValidationError("project directory is required", "dir"))
	}
	if info, err := os.Stat(c.Dir); err != nil || !info.IsDir() {
		return result.Failure[any](result.NewResourceError("project directory not accessible", c.Dir))
	}

	targets, err := c.scan(ctx)
	if err != nil {
		return result.Failure[any](result.Classify(err))
	}
	c.Notify(fmt.Sprintf("Found %d items to clean", len(targets)), LevelInfo)

	report := CleanupReport{}
	for _, target := range targets {
		if ctx.Err() != nil {
			return result.Failure[any](&result.Error{
				Code:    result.CodeCancelled,
				Message: "cleanup cancelled",
			})
		}

		size := dirSize(target)
		if err := os.RemoveAll(target); err != nil {
			report.Failed = append(report.Failed, target)
			c.Notify(fmt.Sprintf("Failed to delete %s", target), LevelWarning)
			continue
		}
		report.Deleted = append(report.Deleted, target)
		report.FreedBytes += size
		c.Notify(fmt.Sprintf("Deleted %s", target), LevelInfo)
	}

	switch {
	case len(report.Failed) > 0 && len(report.Deleted) > 0:
		return result.Partial[any](report, result.NewResourceError(
			fmt.Sprintf("%d of %d deletions failed", len(report.Failed), len(targets)), ""))
	case len(report.Failed) > 0:
		return result.Failure[any](result.NewResourceError("all deletions failed", c.Dir))
	default:
		c.Notify("Cleanup complete", LevelSuccess)
		return result.Success[any](report,
			fmt.Sprintf("Removed %d items, freed %d bytes", len(report.Deleted), report.FreedBytes))
	}
}

// scan collects ignored directories without descending into them.
func (c *CleanupCommand) scan(ctx context.Context) ([]string, error) {
	ignored := make(map[string]bool, len(c.IgnoreDirs))
	for _, name := range c.IgnoreDirs {
		ignored[name] = true
	}

	var targets []string
	err := filepath.WalkDir(c.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() && path != c.Dir && ignored[d.Name()] {
			targets = append(targets, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}

func dirSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
