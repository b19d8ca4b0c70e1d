package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/cwbudde/neldermead/internal/objective"
	"github.com/cwbudde/neldermead/internal/opt"
	"github.com/cwbudde/neldermead/internal/store"
)

var (
	objectiveName string
	dim           int
	guessFlag     []float64
	algo          string
	iters         int
	tolerance     float64
	alpha         float64
	gamma         float64
	rho           float64
	sigma         float64
	initialStep   float64
	popSize       int
	seed          int64
	stallThresh   float64
	stallPatience int
	profileMode   string
	traceDir      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot optimization",
	Long:  `Minimizes the selected objective from the given starting point and prints the result.`,
	RunE:  runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&objectiveName, "objective", "", "Objective function name (required, see 'neldermead objectives')")
	runCmd.Flags().IntVar(&dim, "dim", 2, "Problem dimension (ignored if --guess is given)")
	runCmd.Flags().Float64SliceVar(&guessFlag, "guess", nil, "Starting point as comma-separated coordinates")
	runCmd.Flags().StringVar(&algo, "algo", "nelder-mead", "Algorithm: nelder-mead, mayfly")
	runCmd.Flags().IntVar(&iters, "iters", 1000, "Max iterations")
	runCmd.Flags().Float64Var(&tolerance, "tol", 1e-6, "Convergence tolerance on the spread of simplex values")
	runCmd.Flags().Float64Var(&alpha, "alpha", 1.0, "Reflection coefficient")
	runCmd.Flags().Float64Var(&gamma, "gamma", 2.0, "Expansion coefficient")
	runCmd.Flags().Float64Var(&rho, "rho", 0.5, "Contraction coefficient")
	runCmd.Flags().Float64Var(&sigma, "sigma", 0.5, "Shrink coefficient")
	runCmd.Flags().Float64Var(&initialStep, "step", 0.05, "Initial simplex step")
	runCmd.Flags().IntVar(&popSize, "pop", 30, "Population size (mayfly only)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed (mayfly only)")
	runCmd.Flags().Float64Var(&stallThresh, "stall-threshold", 0, "Minimum improvement counted as progress")
	runCmd.Flags().IntVar(&stallPatience, "stall-patience", 0, "Stop after this many iterations without progress (0 = disabled)")
	runCmd.Flags().StringVar(&profileMode, "profile", "", "Write a profile: cpu, mem")
	runCmd.Flags().StringVar(&traceDir, "trace-dir", "", "Write a per-iteration trace under this directory")

	runCmd.MarkFlagRequired("objective")
	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	switch profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		return fmt.Errorf("unknown profile mode: %s", profileMode)
	}

	spec, err := objective.Lookup(objectiveName)
	if err != nil {
		return err
	}

	guess := guessFlag
	if len(guess) == 0 {
		guess = spec.DefaultStart(dim)
	}
	if spec.Dim > 0 && len(guess) != spec.Dim {
		return fmt.Errorf("objective %s is %d-dimensional, guess has %d coordinates", spec.Name, spec.Dim, len(guess))
	}

	slog.Info("Starting optimization", "objective", spec.Name, "algo", algo, "dim", len(guess), "iters", iters)

	initialValue := spec.Eval(guess)

	var trace *store.TraceWriter
	var onIteration func(int, []float64, float64)
	if traceDir != "" {
		runID := uuid.New().String()
		trace, err = store.NewTraceWriter(traceDir, runID, false)
		if err != nil {
			return fmt.Errorf("failed to create trace writer: %w", err)
		}
		defer trace.Close()
		onIteration = func(iteration int, bestX []float64, best float64) {
			if err := trace.Write(store.TraceEntry{
				Iteration: iteration,
				Value:     best,
				Timestamp: time.Now(),
			}); err != nil {
				slog.Warn("Failed to write trace entry", "error", err)
			}
		}
	}

	var optimizer opt.Optimizer
	switch algo {
	case "nelder-mead":
		optimizer = opt.NewNelderMead(opt.Options{
			Alpha:          alpha,
			Gamma:          gamma,
			Rho:            rho,
			Sigma:          sigma,
			Tolerance:      tolerance,
			MaxIterations:  iters,
			InitialStep:    initialStep,
			StallThreshold: stallThresh,
			StallPatience:  stallPatience,
			OnIteration:    onIteration,
		})
	case "mayfly":
		optimizer = opt.NewMayfly(iters, popSize, seed, 10.0)
	default:
		return fmt.Errorf("unknown algorithm: %s", algo)
	}

	start := time.Now()
	result, err := optimizer.Run(spec.Eval, guess)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	ips := float64(result.Iterations) / elapsed.Seconds()

	slog.Info("Optimization complete",
		"elapsed", elapsed,
		"initial_value", initialValue,
		"best_value", result.Value,
		"iterations", result.Iterations,
		"reason", result.Reason,
		"iters_per_second", fmt.Sprintf("%.0f", ips),
	)

	coords := make([]string, len(result.X))
	for i, v := range result.X {
		coords[i] = fmt.Sprintf("%.6g", v)
	}
	fmt.Printf("Minimum of %s at (%s)\n", spec.Name, strings.Join(coords, ", "))
	fmt.Printf("Value: %.6g (from %.6g) after %d iterations [%s]\n", result.Value, initialValue, result.Iterations, result.Reason)
	if trace != nil {
		fmt.Printf("Trace: %s\n", trace.Path())
	}

	return nil
}
