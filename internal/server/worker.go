package server

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/neldermead/internal/objective"
	"github.com/cwbudde/neldermead/internal/opt"
	"github.com/cwbudde/neldermead/internal/store"
)

// mayflySearchRadius bounds the mayfly baseline's search box around the
// starting point. Nelder-Mead is unconstrained and ignores it.
const mayflySearchRadius = 10.0

// resolveRun looks up the configured objective and determines the starting
// point for a run.
func resolveRun(config RunConfig) (objective.Spec, []float64, error) {
	spec, err := objective.Lookup(config.Objective)
	if err != nil {
		return objective.Spec{}, nil, err
	}

	guess := config.Guess
	if len(guess) == 0 {
		dim := config.Dim
		if dim <= 0 {
			dim = 2
		}
		guess = spec.DefaultStart(dim)
	}
	if spec.Dim > 0 && len(guess) != spec.Dim {
		return objective.Spec{}, nil, fmt.Errorf("objective %s is %d-dimensional, guess has %d coordinates",
			spec.Name, spec.Dim, len(guess))
	}

	return spec, guess, nil
}

// buildOptimizer constructs the optimizer selected by the config.
// onIteration is only honored by the simplex optimizer; the mayfly baseline
// reports no per-iteration progress.
func buildOptimizer(config RunConfig, onIteration func(int, []float64, float64)) (opt.Optimizer, error) {
	switch config.Algo {
	case "", "nelder-mead":
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
		opts.OnIteration = onIteration
		return opt.NewNelderMead(opts), nil

	case "mayfly":
		popSize := config.PopSize
		if popSize <= 0 {
			popSize = 30
		}
		maxIters := config.MaxIters
		if maxIters <= 0 {
			maxIters = 100
		}
		return opt.NewMayfly(maxIters, popSize, config.Seed, mayflySearchRadius), nil

	default:
		return nil, fmt.Errorf("unknown algorithm: %s", config.Algo)
	}
}

// runJob executes an optimization job in the background.
// If checkpointStore is not nil and the job has checkpointInterval > 0,
// periodic checkpoints are saved. A trace of the best value per iteration
// is written alongside the checkpoint data.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, baseDir, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "objective", job.Config.Objective, "algo", job.Config.Algo)

	spec, guess, err := resolveRun(job.Config)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	initialValue := spec.Eval(guess)
	if math.IsNaN(initialValue) || math.IsInf(initialValue, 0) {
		err := &opt.EvaluationError{X: append([]float64{}, guess...), Value: initialValue}
		markJobFailed(jm, jobID, err)
		return err
	}
	jm.UpdateJob(jobID, func(j *Job) {
		j.InitialValue = initialValue
	})

	// Trace of the best value per iteration, for the /trace endpoint and
	// offline convergence plots.
	var trace *store.TraceWriter
	if baseDir != "" {
		trace, err = store.NewTraceWriter(baseDir, jobID, false)
		if err != nil {
			slog.Warn("Failed to create trace writer", "job_id", jobID, "error", err)
		} else {
			defer trace.Close()
		}
	}

	onIteration := func(iteration int, bestX []float64, best float64) {
		x := append([]float64{}, bestX...)
		jm.UpdateJob(jobID, func(j *Job) {
			j.Iterations = iteration
			j.BestValue = best
			j.BestX = x
		})
		if trace != nil {
			if err := trace.Write(store.TraceEntry{
				Iteration: iteration,
				Value:     best,
				Timestamp: time.Now(),
			}); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}
	}

	optimizer, err := buildOptimizer(job.Config, onIteration)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	// Check for cancellation before starting the run
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	start := time.Now()

	// Start progress monitoring goroutine
	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, start, progressDone)

	// Start checkpoint monitoring goroutine if enabled
	checkpointDone := make(chan struct{})
	if checkpointStore != nil && job.Config.CheckpointInterval > 0 {
		go monitorCheckpoints(ctx, jm, checkpointStore, jobID, checkpointDone)
	} else {
		close(checkpointDone) // No checkpointing, close immediately
	}

	result, runErr := optimizer.Run(spec.Eval, guess)

	close(progressDone)
	if checkpointStore != nil && job.Config.CheckpointInterval > 0 {
		close(checkpointDone)
	}
	elapsed := time.Since(start)

	if runErr != nil {
		markJobFailed(jm, jobID, runErr)
		return runErr
	}

	// Flush the trace before the job is visible as completed, so clients
	// reading it right after do not see a partial file.
	if trace != nil {
		if err := trace.Flush(); err != nil {
			slog.Warn("Failed to flush trace", "job_id", jobID, "error", err)
		}
	}

	// Check for cancellation after optimization
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestX = result.X
		j.BestValue = result.Value
		j.InitialValue = initialValue
		j.Iterations = result.Iterations
		j.Reason = string(result.Reason)
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	// Final checkpoint so finished runs can be inspected and resumed
	if checkpointStore != nil {
		checkpoint := store.NewCheckpoint(jobID, result.X, result.Value, initialValue, result.Iterations, job.Config)
		checkpoint.Reason = string(result.Reason)
		if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
			slog.Warn("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}

	ips := float64(result.Iterations) / elapsed.Seconds()

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_value", initialValue,
		"best_value", result.Value,
		"iterations", result.Iterations,
		"reason", result.Reason,
	)

	// Broadcast final completion event
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:      jobID,
		State:      StateCompleted,
		Iterations: result.Iterations,
		BestValue:  result.Value,
		IPS:        ips,
		Timestamp:  time.Now(),
	})

	return nil
}

// monitorProgress periodically broadcasts progress events during optimization
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, startTime time.Time, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}

			elapsed := time.Since(startTime).Seconds()

			var ips float64
			if elapsed > 0 && job.Iterations > 0 {
				ips = float64(job.Iterations) / elapsed
			}

			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:      jobID,
				State:      job.State,
				Iterations: job.Iterations,
				BestValue:  job.BestValue,
				IPS:        ips,
				Timestamp:  time.Now(),
			})
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}

// monitorCheckpoints periodically saves checkpoints during optimization
func monitorCheckpoints(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string, done chan struct{}) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}

	interval := time.Duration(job.Config.CheckpointInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
			}
		}
	}
}

// saveCheckpoint saves a mid-run checkpoint for the given job
func saveCheckpoint(jm *JobManager, checkpointStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Skip until the run has produced a best point
	if job.Iterations == 0 || len(job.BestX) == 0 {
		slog.Debug("Skipping checkpoint, no progress yet", "job_id", jobID)
		return nil
	}

	checkpoint := store.NewCheckpoint(
		jobID,
		job.BestX,
		job.BestValue,
		job.InitialValue,
		job.Iterations,
		job.Config,
	)

	if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Checkpoint saved",
		"job_id", jobID,
		"iteration", job.Iterations,
		"best_value", job.BestValue,
	)

	return nil
}
