package system

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// CommandRunner defines an interface for running system commands.
type CommandRunner interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// Stream executes a command with its output copied to w as it is produced.
	Stream(ctx context.Context, w io.Writer, name string, args ...string) error
}

// ExecCommandRunner executes commands on the local host. Each command is
// recorded in the audit log.
type ExecCommandRunner struct {
	logger *zap.Logger
}

// NewCommandRunner returns a command runner that logs to logger. A nil
// logger disables audit logging.
func NewCommandRunner(logger *zap.Logger) *ExecCommandRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecCommandRunner{logger: logger}
}

// Run executes a command and returns its combined output.
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	start := time.Now()
	output, err := cmd.CombinedOutput()
	r.record(name, args, start, err)
	return string(output), err
}

// Stream executes a command, writing stdout and stderr to w. The last part
// of the output is kept and returned inside the error on failure.
func (r *ExecCommandRunner) Stream(ctx context.Context, w io.Writer, name string, args ...string) error {
	tail := &tailBuffer{max: 4096}
	out := io.MultiWriter(w, tail)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	err := cmd.Run()
	r.record(name, args, start, err)
	if err != nil {
		return &CommandError{Err: err, Output: tail.String()}
	}
	return nil
}

func (r *ExecCommandRunner) record(name string, args []string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("command", name),
		zap.Strings("args", args),
		zap.Duration("duration", time.Since(start)),
		zap.Int("exit_code", exitCode(err)),
	}
	if err != nil {
		r.logger.Warn("command failed", append(fields, zap.Error(err))...)
		return
	}
	r.logger.Info("command finished", fields...)
}

// CommandError wraps a failed streamed command together with the tail of
// its output.
type CommandError struct {
	Err    error
	Output string
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\nOutput: " + e.Output
}

func (e *CommandError) Unwrap() error { return e.Err }

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}

// NeedsSudo reports whether privileged commands must be prefixed with
// "sudo -n".
func NeedsSudo() bool {
	return os.Geteuid() != 0
}

// privileged prefixes a command with "sudo -n" when useSudo is set.
func privileged(useSudo bool, name string, args ...string) (string, []string) {
	if !useSudo {
		return name, args
	}
	return "sudo", append([]string{"-n", name}, args...)
}
