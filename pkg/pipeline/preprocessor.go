package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/limaJavier/bvasolve/pkg/config"
	"github.com/limaJavier/bvasolve/pkg/process"
	"go.uber.org/zap"
)

const (
	reducedProblemFile = "bva.cnf"
	reducedProofFile   = "bva.drat"
)

// Artifacts are the files a successful preprocessing run leaves behind
type Artifacts struct {
	Problem string // Transformed problem, over the extended variable space
	Proof   string // Proof fragment relating the transformed problem to the original one
}

type Preprocessor interface {
	// Preprocess returns false when the transformation failed for whatever reason, in
	// which case the artifacts must not be trusted.
	Preprocess(ctx context.Context, input string) (Artifacts, bool)
}

type bvaPreprocessor struct {
	runner       process.Runner
	path         string
	outputDir    string
	innerTimeout int
	outerTimeout time.Duration
	stderr       io.Writer
	logger       *zap.Logger
}

func NewBVAPreprocessor(runner process.Runner, cfg config.Config, stderr io.Writer, logger *zap.Logger) Preprocessor {
	return &bvaPreprocessor{
		runner:       runner,
		path:         cfg.BVA,
		outputDir:    cfg.Output,
		innerTimeout: cfg.InnerTimeout,
		outerTimeout: cfg.OuterTimeoutDuration(),
		stderr:       stderr,
		logger:       logger,
	}
}

func (preprocessor *bvaPreprocessor) Preprocess(ctx context.Context, input string) (Artifacts, bool) {
	artifacts := Artifacts{
		Problem: filepath.Join(preprocessor.outputDir, reducedProblemFile),
		Proof:   filepath.Join(preprocessor.outputDir, reducedProofFile),
	}

	exitCode, err := preprocessor.runner.Run(ctx, process.Command{
		Path: preprocessor.path,
		Args: []string{
			"-i", input,
			"-o", artifacts.Problem,
			"-p", artifacts.Proof,
			"-t", strconv.Itoa(preprocessor.innerTimeout),
		},
		Timeout: preprocessor.outerTimeout,
		Stdout:  preprocessor.stderr, // Keep our standard output for the final answer
		Stderr:  preprocessor.stderr,
	})
	if err != nil || exitCode != 0 {
		preprocessor.logger.Info("preprocessing failed", zap.Int("exitCode", exitCode), zap.Error(err))
		return Artifacts{}, false
	}

	return artifacts, true
}
