package runner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
	"github.com/CTRL-ALT-OP/docker-tools/internal/result"
)

// startFailureMarker prefixes the streamed output when the process could not
// be started at all. Callers inspect the returned exit code, not the marker.
const startFailureMarker = "Error in subprocess: "

// Options describes one external command invocation.
type Options struct {
	Command  []string      // argv form; used when Shell is empty
	Shell    string        // full shell line, run via "sh -c"
	Dir      string        // working directory
	Encoding string        // charset of the process output; empty means UTF-8
	Env      []string      // extra KEY=VALUE entries appended to the environment
	Timeout  time.Duration // per-invocation cap; zero means no cap
}

// commandLine renders the invocation as a single line for validation and
// logging.
func (o Options) commandLine() string {
	if o.Shell != "" {
		return o.Shell
	}
	return strings.Join(o.Command, " ")
}

// CompletedProcess is the outcome of a finished command.
type CompletedProcess struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes external commands on the executor pool. Cancelling the
// context kills the child process rather than abandoning it.
type Runner struct {
	pool      *Pool
	validator *Validator
	logger    *logger.Logger
}

// New creates a Runner. The validator may be nil to skip command screening.
func New(pool *Pool, validator *Validator, log *logger.Logger) *Runner {
	return &Runner{pool: pool, validator: validator, logger: log}
}

// Run executes a command to completion off the caller's goroutine and returns
// its exit code plus captured output. A non-zero exit code is not an error;
// the error return is reserved for rejected input and processes that could
// not be started.
func (r *Runner) Run(ctx context.Context, opts Options) (*CompletedProcess, error) {
	if err := r.screen(opts); err != nil {
		return nil, err
	}

	ctx, cancel := r.applyTimeout(ctx, opts)
	defer cancel()

	r.logger.Debug("running process", logger.Field{Key: "command", Value: opts.commandLine()})

	return Blocking(ctx, r.pool, func() (*CompletedProcess, error) {
		cmd := buildCmd(ctx, opts)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err := cmd.Run()
		completed := &CompletedProcess{
			Stdout: decodeBytes(opts.Encoding, stdout.Bytes()),
			Stderr: decodeBytes(opts.Encoding, stderr.Bytes()),
		}

		if err == nil {
			return completed, nil
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			completed.ExitCode = exitErr.ExitCode()
			return completed, nil
		}
		return nil, result.NewProcessError("failed to start process: "+err.Error(), -1, "", "")
	})
}

// RunStreaming launches a command and feeds its combined output to onOutput
// one line at a time, from the worker side. The full accumulated output and
// the exit code are returned when the process finishes. If the process cannot
// be started, RunStreaming reports exit code 1 with a diagnostic marker in
// the output instead of failing; the error return is reserved for rejected
// input, a dead executor pool, and failures reading the output stream.
func (r *Runner) RunStreaming(ctx context.Context, opts Options, onOutput func(line string)) (int, string, error) {
	if err := r.screen(opts); err != nil {
		return 0, "", err
	}

	ctx, cancel := r.applyTimeout(ctx, opts)
	defer cancel()

	r.logger.Debug("running process with streaming output",
		logger.Field{Key: "command", Value: opts.commandLine()})

	type streamed struct {
		code   int
		output string
	}

	res, err := Blocking(ctx, r.pool, func() (streamed, error) {
		cmd := buildCmd(ctx, opts)

		pr, pw := io.Pipe()
		cmd.Stdout = pw
		cmd.Stderr = pw

		if err := cmd.Start(); err != nil {
			diagnostic := startFailureMarker + err.Error() + "\n"
			if onOutput != nil {
				onOutput(diagnostic)
			}
			return streamed{code: 1, output: diagnostic}, nil
		}

		waitErr := make(chan error, 1)
		go func() {
			waitErr <- cmd.Wait()
			pw.Close()
		}()

		// ReadString grows its buffer as needed, so a single output line of
		// any length cannot stall the read loop.
		var full strings.Builder
		reader := bufio.NewReader(decodeReader(pr, opts.Encoding))
		var readErr error
		for {
			line, err := reader.ReadString('\n')
			if len(line) > 0 {
				full.WriteString(line)
				if onOutput != nil {
					onOutput(line)
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				readErr = err
				// Keep consuming the pipe so exec's copy goroutine and
				// cmd.Wait are not blocked behind unread output.
				_, _ = io.Copy(io.Discard, pr)
				break
			}
		}

		code := 0
		if err := <-waitErr; err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			} else {
				code = 1
			}
		}
		if readErr != nil {
			return streamed{}, fmt.Errorf("failed to read process output: %w", readErr)
		}
		return streamed{code: code, output: full.String()}, nil
	})
	if err != nil {
		return 0, "", err
	}
	return res.code, res.output, nil
}

// screen validates the invocation before anything is launched.
func (r *Runner) screen(opts Options) error {
	line := strings.TrimSpace(opts.commandLine())
	if line == "" {
		return result.NewValidationError("command is required", "command")
	}
	if r.validator != nil {
		if err := r.validator.Validate(line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) applyTimeout(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func buildCmd(ctx context.Context, opts Options) *exec.Cmd {
	var cmd *exec.Cmd
	if opts.Shell != "" {
		cmd = exec.CommandContext(ctx, "sh", "-c", opts.Shell)
	} else {
		cmd = exec.CommandContext(ctx, opts.Command[0], opts.Command[1:]...)
	}
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	return cmd
}
