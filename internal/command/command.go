// Package command defines the panel's unit-of-work abstraction: a closed set
// of command variants sharing one Execute capability, plus the single entry
// point that guarantees every command terminates in a well-formed result with
// exactly one completion callback invocation.
package command

import (
	"context"
	"fmt"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/result"
)

// Level grades a progress message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// ProgressFunc receives interim progress messages while a command runs. The
// GUI layer redispatches these onto its own loop; commands call it from the
// worker side.
type ProgressFunc func(message string, level Level)

// CompletionFunc receives the final result of a command run.
type CompletionFunc func(res result.Result[any])

// Command is one unit of panel work. Implementations catch their expected
// failure modes (process failed, file missing) and fold them into Partial or
// Error results; only genuinely unexpected failures are left to Run's safety
// net.
type Command interface {
	Name() string
	Execute(ctx context.Context) result.Result[any]
}

// Base carries the progress callback and logger shared by all command
// variants.
type Base struct {
	progress ProgressFunc
	log      *logger.Logger
}

// NewBase builds the shared command plumbing. Both arguments may be nil.
func NewBase(progress ProgressFunc, log *logger.Logger) Base {
	if log == nil {
		log = logger.Nop()
	}
	return Base{progress: progress, log: log}
}

// Notify reports interim progress if a callback was supplied.
func (b *Base) Notify(message string, level Level) {
	if b.progress != nil {
		b.progress(message, level)
	}
}

// Log returns the command logger.
func (b *Base) Log() *logger.Logger {
	return b.log
}

// Run is the only entry point callers use to execute a command. It invokes
// Execute, converts a panic into an Error result so nothing escapes, and then
// always invokes completion exactly once, whether the command succeeded,
// partially succeeded, failed cleanly, or panicked.
func Run(ctx context.Context, cmd Command, progress ProgressFunc, completion CompletionFunc, log *logger.Logger) (res result.Result[any]) {
	if log == nil {
		log = logger.Nop()
	}

	defer func() {
		if r := recover(); r != nil {
			err := result.Errorf("command %s failed: %v", cmd.Name(), r)
			log.Error("command panicked", err,
				logger.Field{Key: "command", Value: cmd.Name()})
			res = result.Failure[any](err)
		}
		if completion != nil {
			completion(res)
		}
	}()

	if progress != nil {
		progress(fmt.Sprintf("Starting %s...", cmd.Name()), LevelInfo)
	}

	res = cmd.Execute(ctx)
	return res
}
