package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/result"
	"github.com/CTRL-ALT-OP/docker-tools/internal/runner"
)

// GitStatusReport holds the working tree state of a repository.
type GitStatusReport struct {
	Branch   string
	Clean    bool
	Modified []string
}

// GitStatusCommand reads branch and dirty-file state from a git checkout.
type GitStatusCommand struct {
	Base
	Runner *runner.Runner
	Dir    string
}

func NewGitStatusCommand(r *runner.Runner, dir string, progress ProgressFunc, log *logger.Logger) *GitStatusCommand {
	return &GitStatusCommand{
		Base:   NewBase(progress, log),
		Runner: r,
		Dir:    dir,
	}
}

func (c *GitStatusCommand) Name() string { return "git-status" }

func (c *GitStatusCommand) Execute(ctx context.Context) result.Result[any] {
	branch, err := c.git(ctx, "git rev-parse --abbrev-ref HEAD")
	if err != nil {
		return result.Failure[any](result.Classify(err))
	}

	status, err := c.git(ctx, "git status --porcelain")
	if err != nil {
		return result.Failure[any](result.Classify(err))
	}

	report := GitStatusReport{Branch: branch, Clean: status == ""}
	for _, line := range strings.Split(status, "\n") {
		if line == "" {
			continue
		}
		// Porcelain lines are "XY <path>".
		if len(line) > 3 {
			report.Modified = append(report.Modified, strings.TrimSpace(line[3:]))
		}
	}

	msg := fmt.Sprintf("On branch %s, working tree clean", report.Branch)
	if !report.Clean {
		msg = fmt.Sprintf("On branch %s, %d modified files", report.Branch, len(report.Modified))
	}
	return result.Success[any](report, msg)
}

// git runs one git command in the repository directory and returns trimmed
// stdout. A non-zero exit becomes a process error.
func (c *GitStatusCommand) git(ctx context.Context, cmdline string) (string, error) {
	proc, err := c.Runner.Run(ctx, runner.Options{
		Shell: cmdline,
		Dir:   c.Dir,
	})
	if err != nil {
		return "", err
	}
	if proc.ExitCode != 0 {
		return "", result.NewProcessError("git command failed", proc.ExitCode, proc.Stdout, proc.Stderr)
	}
	return strings.TrimSpace(proc.Stdout), nil
}
