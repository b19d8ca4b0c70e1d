package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/neldermead/internal/objective"
	"github.com/cwbudde/neldermead/internal/opt"
	"github.com/cwbudde/neldermead/internal/store"
)

var (
	resumeDataDir string
	resumeIters   int
	resumeAlgo    string
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume an optimization from its checkpoint",
	Long: `Loads a saved checkpoint and continues the run, restarting the simplex
around the checkpointed best point. The updated checkpoint replaces the old one.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Checkpoint directory")
	resumeCmd.Flags().IntVar(&resumeIters, "iters", 0, "Max additional iterations (0 = use checkpointed setting)")
	resumeCmd.Flags().StringVar(&resumeAlgo, "algo", "", "Algorithm to continue with (must match the checkpoint)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint is not resumable: %w", err)
	}

	config := checkpoint.Config
	if resumeIters > 0 {
		config.MaxIters = resumeIters
	}
	if resumeAlgo != "" {
		config.Algo = resumeAlgo
	}

	// A checkpoint can only be continued under the algorithm that produced
	// it; a mismatched --algo is refused here rather than producing a run
	// that is not comparable to the checkpointed one.
	if err := checkpoint.IsCompatible(config); err != nil {
		return err
	}

	spec, err := objective.Lookup(config.Objective)
	if err != nil {
		return err
	}

	slog.Info("Resuming job",
		"job_id", jobID,
		"objective", config.Objective,
		"from_iteration", checkpoint.Iterations,
		"best_value", checkpoint.BestValue,
	)

	var optimizer opt.Optimizer
	switch config.Algo {
	case "nelder-mead":
		opts := opt.DefaultOptions()
		if config.MaxIters > 0 {
			opts.MaxIterations = config.MaxIters
		}
		if config.Tolerance > 0 {
			opts.Tolerance = config.Tolerance
		}
		if config.Alpha > 0 {
			opts.Alpha = config.Alpha
		}
		if config.Gamma > 0 {
			opts.Gamma = config.Gamma
		}
		if config.Rho > 0 {
			opts.Rho = config.Rho
		}
		if config.Sigma > 0 {
			opts.Sigma = config.Sigma
		}
		if config.InitialStep > 0 {
			opts.InitialStep = config.InitialStep
		}
		optimizer = opt.NewNelderMead(opts)
	case "mayfly":
		mayflyPop := config.PopSize
		if mayflyPop <= 0 {
			mayflyPop = 30
		}
		optimizer = opt.NewMayfly(config.MaxIters, mayflyPop, config.Seed, 10.0)
	default:
		return fmt.Errorf("unknown algorithm: %s", config.Algo)
	}

	start := time.Now()
	result, err := optimizer.Run(spec.Eval, checkpoint.BestX)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	// Keep the old point if the continuation somehow did worse
	bestX, bestValue := result.X, result.Value
	if checkpoint.BestValue < bestValue {
		bestX, bestValue = checkpoint.BestX, checkpoint.BestValue
	}

	totalIters := checkpoint.Iterations + result.Iterations
	updated := store.NewCheckpoint(jobID, bestX, bestValue, checkpoint.InitialValue, totalIters, config)
	updated.Reason = string(result.Reason)
	if err := checkpointStore.SaveCheckpoint(jobID, updated); err != nil {
		return fmt.Errorf("failed to save updated checkpoint: %w", err)
	}

	slog.Info("Resume complete",
		"job_id", jobID,
		"elapsed", elapsed,
		"best_value", bestValue,
		"total_iterations", totalIters,
		"reason", result.Reason,
	)

	fmt.Printf("Resumed %s: value %.6g after %d total iterations [%s]\n", jobID, bestValue, totalIters, result.Reason)
	return nil
}
