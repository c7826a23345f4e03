package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/limaJavier/bvasolve/pkg/sat"
	"go.uber.org/zap"
)

const (
	finalProofFile  = "proof.out"
	solverProofFile = "solver.drat"
)

var ErrUnknownVariableCount = errors.New("original problem declares no variable count")

type Path int

const (
	BarePath     Path = iota // Preprocessing failed, the original problem was solved
	ReducedPath              // The transformed problem was solved and its answer reconstructed
	FallbackPath             // The transformed problem could not be used, the original problem was solved
)

func (path Path) String() string {
	switch path {
	case BarePath:
		return "bare"
	case ReducedPath:
		return "reduced"
	case FallbackPath:
		return "reduced-fallback"
	}
	return fmt.Sprintf("Path(%d)", int(path))
}

type Status int

const (
	Passthrough Status = iota // The solver's own output is the answer
	Satisfiable
	Unsatisfiable
	Unknown
)

func (status Status) String() string {
	switch status {
	case Passthrough:
		return "PASSTHROUGH"
	case Satisfiable:
		return "SATISFIABLE"
	case Unsatisfiable:
		return "UNSATISFIABLE"
	case Unknown:
		return "UNKNOWN"
	}
	return fmt.Sprintf("Status(%d)", int(status))
}

type Report struct {
	Path           Path
	Status         Status
	Solution       sat.SATSolution // Only set when Status is Satisfiable
	Proof          string          // Final proof file, empty when no proof is produced
	SolverExitCode int             // Exit code of the last solver invocation
	Fallback       error           // Why the reduced path was abandoned, if it was
}

type state int

const (
	stateStart state = iota
	statePreprocessed
	stateReducedSolve
	stateReconstructed
	stateFailedSoft
	stateBareSolve
	stateDone
)

var stateNames = [...]string{"Start", "Preprocessed", "ReducedSolve", "Reconstructed", "FailedSoft", "BareSolve", "Done"}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Orchestrator struct {
	preprocessor Preprocessor
	solver       Solver
	input        string
	outputDir    string
	stdout       io.Writer
	logger       *zap.Logger
}

func NewOrchestrator(preprocessor Preprocessor, solver Solver, input, outputDir string, stdout io.Writer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		preprocessor: preprocessor,
		solver:       solver,
		input:        input,
		outputDir:    outputDir,
		stdout:       stdout,
		logger:       logger,
	}
}

// run carries what one state hands over to the next
type run struct {
	report       Report
	artifacts    Artifacts
	preprocessed bool
}

// Run drives one problem through the pipeline. Every external failure degrades to
// solving the original problem; an error is returned only when the solver's answer
// cannot be translated back and nothing has been reported yet.
func (orchestrator *Orchestrator) Run(ctx context.Context) (Report, error) {
	current := &run{}
	for state := stateStart; state != stateDone; {
		next, err := orchestrator.step(ctx, state, current)
		if err != nil {
			return current.report, err
		}
		orchestrator.logger.Debug("transition", zap.Stringer("from", state), zap.Stringer("to", next))
		state = next
	}
	return current.report, nil
}

func (orchestrator *Orchestrator) step(ctx context.Context, current state, run *run) (state, error) {
	switch current {
	case stateStart:
		artifacts, ok := orchestrator.preprocessor.Preprocess(ctx, orchestrator.input)
		if !ok {
			orchestrator.comment("BVA failed! Solving with original solver")
			return stateBareSolve, nil
		}
		run.artifacts = artifacts
		run.preprocessed = true
		return statePreprocessed, nil

	case statePreprocessed:
		orchestrator.comment("BVA ran successfully!")
		return stateReducedSolve, nil

	case stateReducedSolve:
		return orchestrator.solveReduced(ctx, run)

	case stateReconstructed:
		orchestrator.emit(run.report)
		return stateDone, nil

	case stateFailedSoft:
		orchestrator.logger.Warn("reduced path abandoned", zap.Error(run.report.Fallback))
		orchestrator.comment("%v, solving with original solver", run.report.Fallback)
		return stateBareSolve, nil

	case stateBareSolve:
		run.report.Path = BarePath
		if run.preprocessed {
			run.report.Path = FallbackPath
		}
		run.report.Status = Passthrough
		run.report.Solution = nil
		run.report.Proof = filepath.Join(orchestrator.outputDir, finalProofFile)
		run.report.SolverExitCode = orchestrator.solver.Solve(ctx, orchestrator.input, run.report.Proof, orchestrator.stdout)
		orchestrator.logger.Info("solved original problem", zap.Stringer("path", run.report.Path), zap.Int("exitCode", run.report.SolverExitCode))
		return stateDone, nil
	}

	return stateDone, fmt.Errorf("unexpected orchestrator state %v", current)
}

func (orchestrator *Orchestrator) solveReduced(ctx context.Context, run *run) (state, error) {
	var stdOut bytes.Buffer
	solverProof := filepath.Join(orchestrator.outputDir, solverProofFile)
	exitCode := orchestrator.solver.Solve(ctx, run.artifacts.Problem, solverProof, &stdOut)
	run.report.SolverExitCode = exitCode
	run.report.Path = ReducedPath

	if !sat.IsRecognizedExitCode(exitCode) {
		run.report.Fallback = fmt.Errorf("solver failed on reduced problem with exit code %d", exitCode)
		return stateFailedSoft, nil
	}

	switch exitCode {
	case sat.ExitUnsatisfiable:
		proof := filepath.Join(orchestrator.outputDir, finalProofFile)
		// The preprocessor's fragment must come first for the proof to hold
		if err := concatenate(proof, run.artifacts.Proof, solverProof); err != nil {
			run.report.Fallback = fmt.Errorf("cannot reconstruct proof: %w", err)
			return stateFailedSoft, nil
		}
		run.report.Status = Unsatisfiable
		run.report.Proof = proof

	case sat.ExitSatisfiable:
		solution, err := sat.ParseSolution(stdOut.String())
		if err != nil {
			return stateDone, fmt.Errorf("cannot reconstruct solution: %w", err)
		}
		header, err := sat.ReadHeader(orchestrator.input)
		if err != nil {
			run.report.Fallback = fmt.Errorf("cannot reconstruct solution: %w", err)
			return stateFailedSoft, nil
		} else if !header.Known() {
			run.report.Fallback = fmt.Errorf("cannot reconstruct solution: %w", ErrUnknownVariableCount)
			return stateFailedSoft, nil
		}
		run.report.Status = Satisfiable
		run.report.Solution = solution.Restrict(header.Variables)

	case sat.ExitUnknown:
		run.report.Status = Unknown
	}

	orchestrator.logger.Info("solved reduced problem", zap.Stringer("status", run.report.Status), zap.Int("exitCode", exitCode))
	return stateReconstructed, nil
}

func (orchestrator *Orchestrator) emit(report Report) {
	fmt.Fprintf(orchestrator.stdout, "s %v\n", report.Status)
	if report.Status == Satisfiable {
		fmt.Fprintln(orchestrator.stdout, report.Solution.String())
	}
}

func (orchestrator *Orchestrator) comment(format string, args ...any) {
	fmt.Fprintf(orchestrator.stdout, "c "+format+"\n", args...)
}

// concatenate writes the bytes of every source, in order, into target
func concatenate(target string, sources ...string) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}

	for _, source := range sources {
		if err := appendFile(out, source); err != nil {
			out.Close()
			return err
		}
	}
	return out.Close()
}

func appendFile(out io.Writer, source string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(out, in)
	return err
}
