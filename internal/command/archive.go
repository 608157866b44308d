package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/result"
	"github.com/CTRL-ALT-OP/docker-tools/internal/runner"
)

// ArchiveReport describes a finished archive run.
type ArchiveReport struct {
	ArchivePath    string
	OriginalSize   int64
	CompressedSize int64
	Ratio          float64
}

// ArchiveCommand packs a source path into an archive using a platform
// command line, e.g. "tar -czf out.tgz src". The command line comes
// pre-expanded from the preset catalog.
type ArchiveCommand struct {
	Base
	Runner      *runner.Runner
	Source      string
	ArchivePath string
	CommandLine string
	Timeout     time.Duration
}

func NewArchiveCommand(r *runner.Runner, source, archivePath, commandLine string, progress ProgressFunc, log *logger.Logger) *ArchiveCommand {
	return &ArchiveCommand{
		Base:        NewBase(progress, log),
		Runner:      r,
		Source:      source,
		ArchivePath: archivePath,
		CommandLine: commandLine,
	}
}

func (c *ArchiveCommand) Name() string { return "archive" }

func (c *ArchiveCommand) Execute(ctx context.Context) result.Result[any] {
	if c.CommandLine == "" {
		return result.Failure[any](result.NewValidationError("archive command line is required", "command"))
	}
	info, err := os.Stat(c.Source)
	if err != nil {
		return result.Failure[any](result.NewResourceError("source path not accessible", c.Source))
	}
	original := info.Size()
	if info.IsDir() {
		original = dirSize(c.Source)
	}

	c.Notify(fmt.Sprintf("Archiving %s", c.Source), LevelInfo)

	proc, err := c.Runner.Run(ctx, runner.Options{
		Shell:   c.CommandLine,
		Timeout: c.Timeout,
	})
	if err != nil {
		return result.Failure[any](result.Classify(err))
	}
	if proc.ExitCode != 0 {
		return result.Failure[any](result.NewProcessError("archive command failed", proc.ExitCode, proc.Stdout, proc.Stderr))
	}

	report := ArchiveReport{ArchivePath: c.ArchivePath, OriginalSize: original}
	if out, err := os.Stat(c.ArchivePath); err == nil {
		report.CompressedSize = out.Size()
		if original > 0 {
			report.Ratio = float64(report.CompressedSize) / float64(original)
		}
	} else {
		// Command exited zero but the archive is missing. Report what ran.
		return result.Partial[any](report, result.NewResourceError("archive file not found after command", c.ArchivePath))
	}

	c.Notify(fmt.Sprintf("Archive written to %s", c.ArchivePath), LevelSuccess)
	return result.Success[any](report,
		fmt.Sprintf("Archived %s (%d -> %d bytes)", c.Source, report.OriginalSize, report.CompressedSize))
}
