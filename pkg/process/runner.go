// Package process runs external executables synchronously, optionally under a
// wall-clock limit that kills the process once exceeded.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// ExitAbnormal is reported when a process produced no exit status of its own
// (it could not be started, was killed by a signal or by its time limit).
const ExitAbnormal = -1

type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration // Zero means no limit
	Stdout  io.Writer     // Discarded when nil
	Stderr  io.Writer     // Discarded when nil
}

func (c Command) String() string {
	return fmt.Sprintf("%s %v", c.Path, c.Args)
}

type Runner interface {
	// Run blocks until the command exits and returns its exit code. A non-nil error
	// always comes with ExitAbnormal, except for plain non-zero exits which are not errors.
	Run(ctx context.Context, command Command) (int, error)
}

type execRunner struct {
	logger *zap.Logger
}

func NewExecRunner(logger *zap.Logger) Runner {
	return &execRunner{logger: logger}
}

func (runner *execRunner) Run(ctx context.Context, command Command) (int, error) {
	if command.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, command.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command.Path, command.Args...)
	cmd.Stdout = command.Stdout
	cmd.Stderr = command.Stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		runner.logger.Warn("process killed", zap.Stringer("command", command), zap.Duration("duration", duration), zap.Error(ctx.Err()))
		return ExitAbnormal, fmt.Errorf("%v was stopped: %w", command.Path, ctx.Err())
	case errors.As(err, &exitErr) && exitErr.ExitCode() != ExitAbnormal:
		// A regular non-zero exit, the caller decides what it means
	default:
		runner.logger.Warn("process terminated abnormally", zap.Stringer("command", command), zap.Error(err))
		return ExitAbnormal, fmt.Errorf("an error occurred during %v execution: %w", command.Path, err)
	}

	exitCode := cmd.ProcessState.ExitCode()
	runner.logger.Debug("process finished", zap.Stringer("command", command), zap.Int("exitCode", exitCode), zap.Duration("duration", duration))
	return exitCode, nil
}
