package opt

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the external Mayfly library behind the Optimizer
// interface. It serves as a population-based baseline to compare simplex
// runs against; unlike Nelder-Mead it searches a bounded box around the
// starting point.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
	radius   float64
}

// NewMayfly creates a new Mayfly optimizer adapter. The search box spans
// radius around every coordinate of the starting point.
func NewMayfly(maxIters, popSize int, seed int64, radius float64) Optimizer {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
		radius:   radius,
	}
}

// Run executes the Mayfly optimization using the external library.
func (m *MayflyAdapter) Run(eval Objective, guess []float64) (*Result, error) {
	if len(guess) == 0 {
		return nil, &InvalidInputError{Field: "guess", Reason: "cannot be empty"}
	}
	if m.maxIters <= 0 {
		return nil, &InvalidInputError{Field: "maxIterations", Reason: "must be positive"}
	}
	if m.radius <= 0 {
		return nil, &InvalidInputError{Field: "radius", Reason: "must be positive"}
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(x []float64) float64 { return eval(x) }
	config.ProblemSize = len(guess)
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize

	// The external library uses scalar bounds shared by all dimensions, so
	// the box has to cover the radius around every coordinate.
	lower, upper := math.Inf(1), math.Inf(-1)
	for _, v := range guess {
		lower = math.Min(lower, v-m.radius)
		upper = math.Max(upper, v+m.radius)
	}
	config.LowerBound = lower
	config.UpperBound = upper

	// Seeded source for reproducible runs.
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, fmt.Errorf("mayfly optimization failed: %w", err)
	}

	return &Result{
		X:          result.GlobalBest.Position,
		Value:      result.GlobalBest.Cost,
		Iterations: m.maxIters,
		Reason:     ReasonMaxIterations,
	}, nil
}
