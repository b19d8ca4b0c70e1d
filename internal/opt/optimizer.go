package opt

// Objective is the function being minimized. It must return a finite value
// for every point the optimizer evaluates; a NaN or infinite result aborts
// the run with an EvaluationError.
type Objective func(x []float64) float64

// TerminationReason explains why a run stopped.
type TerminationReason string

const (
	// ReasonConverged means the spread of objective values across the
	// simplex fell below the tolerance.
	ReasonConverged TerminationReason = "converged"

	// ReasonMaxIterations means the iteration cap was hit first.
	ReasonMaxIterations TerminationReason = "max_iterations"

	// ReasonStalled means the best value stopped improving for longer than
	// the configured patience (only when stall detection is enabled).
	ReasonStalled TerminationReason = "stalled"
)

// Result holds the outcome of an optimization run.
type Result struct {
	// X is the best point observed across the whole run.
	X []float64

	// Value is the objective value at X.
	Value float64

	// Iterations is the number of simplex iterations consumed.
	Iterations int

	// Reason records why the run terminated.
	Reason TerminationReason
}

// Optimizer defines an optimization algorithm interface.
// Run minimizes eval starting from guess and returns the best point found.
type Optimizer interface {
	Run(eval Objective, guess []float64) (*Result, error)
}
