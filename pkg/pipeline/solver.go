package pipeline

import (
	"context"
	"io"
	"slices"

	"github.com/limaJavier/bvasolve/pkg/process"
	"go.uber.org/zap"
)

const noBinaryFlag = "--no-binary"

type Solver interface {
	// Solve runs the solver on problem, writing its proof to proof and its standard
	// output to stdout. Abnormal terminations are reported as process.ExitAbnormal.
	Solve(ctx context.Context, problem, proof string, stdout io.Writer) int
}

type externalSolver struct {
	runner  process.Runner
	path    string
	options []string
	stderr  io.Writer
	logger  *zap.Logger
}

// NewExternalSolver expects options already normalized (see config.NormalizeSolverOptions)
func NewExternalSolver(runner process.Runner, path string, options []string, stderr io.Writer, logger *zap.Logger) Solver {
	return &externalSolver{
		runner:  runner,
		path:    path,
		options: slices.Clone(options),
		stderr:  stderr,
		logger:  logger,
	}
}

func (solver *externalSolver) Solve(ctx context.Context, problem, proof string, stdout io.Writer) int {
	args := make([]string, 0, len(solver.options)+3)
	args = append(args, problem, proof)
	args = append(args, solver.options...)
	args = append(args, noBinaryFlag)

	exitCode, err := solver.runner.Run(ctx, process.Command{
		Path:   solver.path,
		Args:   args,
		Stdout: stdout,
		Stderr: solver.stderr,
	})
	if err != nil {
		solver.logger.Warn("solver did not terminate normally", zap.String("problem", problem), zap.Error(err))
		return process.ExitAbnormal
	}
	return exitCode
}
