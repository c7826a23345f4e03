package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/limaJavier/bvasolve/pkg/config"
	"github.com/limaJavier/bvasolve/pkg/pipeline"
	"github.com/limaJavier/bvasolve/pkg/process"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	verbose    bool
	flags      config.Config

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bvasolve",
	Short: "Solve a DIMACS-CNF problem, preprocessing it with BVA first when possible",
	Long: `Runs the BVA preprocessor on the input problem under a time limit and solves the
transformed problem. Proofs and solutions are translated back to the original
problem. If preprocessing or solving the transformed problem fails, the original
problem is solved directly.

Example:
  bvasolve -i problem.cnf -o out --bva ./sbva --t1 200 --t2 400 --solver ./kissat --solverargs sat reduce=false`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logConfig := zap.NewProductionConfig()
		if verbose {
			logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = logConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&flags.Input, "input", "i", "", "Path to the input problem (DIMACS-CNF)")
	rootCmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Directory where proofs and intermediate files are written")
	rootCmd.Flags().StringVar(&flags.BVA, "bva", "", "Path to the BVA preprocessor executable")
	rootCmd.Flags().IntVar(&flags.InnerTimeout, "t1", 0, "Inner timeout in seconds, handed to the preprocessor")
	rootCmd.Flags().IntVar(&flags.OuterTimeout, "t2", 0, "Outer timeout in seconds, after which the preprocessor is killed")
	rootCmd.Flags().StringVar(&flags.Solver, "solver", "", "Path to the SAT solver executable")
	rootCmd.Flags().StringSliceVar(&flags.SolverArgs, "solverargs", nil, `Solver options, each one is passed as "--<option>"; values following the flag are options too`)
	rootCmd.Flags().StringVar(&configPath, "config", "", "JSON or YAML file providing any of the above (flags take precedence); defaults to config.json next to the executable")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "names-list" {
			name = "solverargs"
		}
		return pflag.NormalizedName(name)
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// "--solverargs a b c" takes every value after the flag
	if len(args) > 0 {
		if !cmd.Flags().Changed("solverargs") {
			return fmt.Errorf("unexpected arguments %v", args)
		}
		flags.SolverArgs = append(flags.SolverArgs, args...)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Output, 0777); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Normalized once, both solver invocations share it
	options := config.NormalizeSolverOptions(cfg.SolverArgs)
	fmt.Fprintf(cmd.OutOrStdout(), "c %v\n", options)

	runner := process.NewExecRunner(logger)
	preprocessor := pipeline.NewBVAPreprocessor(runner, cfg, cmd.ErrOrStderr(), logger)
	solver := pipeline.NewExternalSolver(runner, cfg.Solver, options, cmd.ErrOrStderr(), logger)
	orchestrator := pipeline.NewOrchestrator(preprocessor, solver, cfg.Input, cfg.Output, cmd.OutOrStdout(), logger)

	report, err := orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("an error occurred while solving %v: %w", cfg.Input, err)
	}

	logger.Info("done",
		zap.String("input", cfg.Input),
		zap.Stringer("path", report.Path),
		zap.Stringer("status", report.Status),
		zap.Int("solverExitCode", report.SolverExitCode),
	)
	return nil
}

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	var cfg config.Config
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
		logger.Debug("loaded config file", zap.String("path", path))
	}

	cfg = cfg.Merge(flags)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
