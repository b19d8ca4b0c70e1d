package opt

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options control a Nelder-Mead run. The zero value is not usable; start
// from DefaultOptions and override what you need.
type Options struct {
	// Alpha is the reflection coefficient, must be > 0.
	Alpha float64

	// Gamma is the expansion coefficient, must be > 1.
	Gamma float64

	// Rho is the contraction coefficient, in (0, 1).
	Rho float64

	// Sigma is the shrink coefficient, in (0, 1).
	Sigma float64

	// Tolerance terminates the run once both the standard deviation of the
	// objective values across the simplex and the largest coordinate
	// distance of any vertex from the best one drop below it. Must be > 0.
	Tolerance float64

	// MaxIterations caps the number of simplex iterations. Must be > 0.
	MaxIterations int

	// InitialStep is the perturbation used to build the starting simplex
	// from the guess. The step is proportional to each coordinate, with
	// InitialStep itself used as an absolute step for zero coordinates.
	// Must be > 0.
	InitialStep float64

	// StallThreshold and StallPatience enable an optional early stop:
	// after StallPatience consecutive iterations whose best value did not
	// improve by more than StallThreshold, the run ends with ReasonStalled.
	// A patience of 0 disables stall detection.
	StallThreshold float64
	StallPatience  int

	// OnIteration, if set, is called after each completed iteration with
	// the iteration count and the best point observed so far. The slice is
	// owned by the optimizer and only valid during the call; callers must
	// copy it if they retain it.
	OnIteration func(iteration int, bestX []float64, best float64)
}

// DefaultOptions returns the standard Nelder-Mead coefficients.
func DefaultOptions() Options {
	return Options{
		Alpha:         1.0,
		Gamma:         2.0,
		Rho:           0.5,
		Sigma:         0.5,
		Tolerance:     1e-6,
		MaxIterations: 1000,
		InitialStep:   0.05,
	}
}

func (o Options) validate() error {
	if o.Alpha <= 0 {
		return &InvalidInputError{Field: "alpha", Reason: "must be positive"}
	}
	if o.Gamma <= 1 {
		return &InvalidInputError{Field: "gamma", Reason: "must be greater than 1"}
	}
	if o.Rho <= 0 || o.Rho >= 1 {
		return &InvalidInputError{Field: "rho", Reason: "must be in (0, 1)"}
	}
	if o.Sigma <= 0 || o.Sigma >= 1 {
		return &InvalidInputError{Field: "sigma", Reason: "must be in (0, 1)"}
	}
	if o.Tolerance <= 0 {
		return &InvalidInputError{Field: "tolerance", Reason: "must be positive"}
	}
	if o.MaxIterations <= 0 {
		return &InvalidInputError{Field: "maxIterations", Reason: "must be positive"}
	}
	if o.InitialStep <= 0 {
		return &InvalidInputError{Field: "initialStep", Reason: "must be positive"}
	}
	if o.StallPatience < 0 {
		return &InvalidInputError{Field: "stallPatience", Reason: "cannot be negative"}
	}
	if o.StallThreshold < 0 {
		return &InvalidInputError{Field: "stallThreshold", Reason: "cannot be negative"}
	}
	return nil
}

// NelderMead implements the downhill simplex method of Nelder and Mead.
// It is deterministic: identical inputs produce bit-identical results.
type NelderMead struct {
	opts Options
}

// NewNelderMead creates a Nelder-Mead optimizer with the given options.
func NewNelderMead(opts Options) *NelderMead {
	return &NelderMead{opts: opts}
}

// maxExtent returns the largest coordinate distance of any vertex from the
// best one.
func maxExtent(simplex []vertex) float64 {
	best := simplex[0].x
	extent := 0.0
	for _, v := range simplex[1:] {
		for j, c := range v.x {
			if d := math.Abs(c - best[j]); d > extent {
				extent = d
			}
		}
	}
	return extent
}

// vertex pairs a point with its cached objective value. The value is
// assigned in the same step that writes the coordinates, so it is never
// stale.
type vertex struct {
	x     []float64
	value float64
}

// Run minimizes eval starting from guess.
func (nm *NelderMead) Run(eval Objective, guess []float64) (*Result, error) {
	if err := nm.opts.validate(); err != nil {
		return nil, err
	}
	if len(guess) == 0 {
		return nil, &InvalidInputError{Field: "guess", Reason: "cannot be empty"}
	}

	evaluate := func(x []float64) (float64, error) {
		v := eval(x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &EvaluationError{X: append([]float64{}, x...), Value: v}
		}
		return v, nil
	}

	dim := len(guess)

	// Starting simplex: vertex 0 is the guess, vertex i+1 perturbs
	// coordinate i proportionally to its magnitude (absolute step for a
	// zero coordinate). The perturbations are along distinct axes, so the
	// simplex is non-degenerate by construction.
	simplex := make([]vertex, dim+1)
	v0, err := evaluate(guess)
	if err != nil {
		return nil, err
	}
	simplex[0] = vertex{x: append([]float64{}, guess...), value: v0}
	for i := 0; i < dim; i++ {
		x := append([]float64{}, guess...)
		if x[i] != 0 {
			x[i] += nm.opts.InitialStep * x[i]
		} else {
			x[i] = nm.opts.InitialStep
		}
		v, err := evaluate(x)
		if err != nil {
			return nil, err
		}
		simplex[i+1] = vertex{x: x, value: v}
	}

	// Working buffers, reused across iterations.
	values := make([]float64, dim+1)
	centroid := make([]float64, dim)
	rdiff := make([]float64, dim) // centroid - worst
	ediff := make([]float64, dim) // reflected - centroid
	xr := make([]float64, dim)
	xe := make([]float64, dim)
	xc := make([]float64, dim)

	bestX := append([]float64{}, simplex[0].x...)
	bestValue := simplex[0].value
	updateBest := func() {
		if simplex[0].value < bestValue {
			bestValue = simplex[0].value
			copy(bestX, simplex[0].x)
		}
	}

	stall := newStallTracker(nm.opts.StallThreshold, nm.opts.StallPatience)

	iterations := 0
	reason := ReasonMaxIterations
	for iterations < nm.opts.MaxIterations {
		// Order ascending by value. The sort is stable so ties keep the
		// original vertex order, which keeps runs reproducible.
		sort.SliceStable(simplex, func(i, j int) bool {
			return simplex[i].value < simplex[j].value
		})
		updateBest()

		for i := range simplex {
			values[i] = simplex[i].value
		}
		// Both the value spread and the simplex extent must be small.
		// Vertices of an even function placed symmetrically about its
		// minimum share a value while straddling it, so the value spread
		// alone cannot tell a collapsed simplex from a wide one.
		if stat.StdDev(values, nil) < nm.opts.Tolerance && maxExtent(simplex) < nm.opts.Tolerance {
			reason = ReasonConverged
			break
		}
		if stall.Update(simplex[0].value) {
			reason = ReasonStalled
			break
		}

		iterations++

		worst := &simplex[dim]
		secondWorst := simplex[dim-1].value

		// Centroid of every vertex except the worst.
		for i := range centroid {
			centroid[i] = 0
		}
		for _, v := range simplex[:dim] {
			floats.Add(centroid, v.x)
		}
		floats.Scale(1/float64(dim), centroid)
		floats.SubTo(rdiff, centroid, worst.x)

		// Reflection: xr = c + alpha*(c - worst).
		floats.AddScaledTo(xr, centroid, nm.opts.Alpha, rdiff)
		vr, err := evaluate(xr)
		if err != nil {
			return nil, err
		}

		switch {
		case simplex[0].value <= vr && vr < secondWorst:
			copy(worst.x, xr)
			worst.value = vr

		case vr < simplex[0].value:
			// Expansion: xe = c + gamma*(xr - c).
			floats.SubTo(ediff, xr, centroid)
			floats.AddScaledTo(xe, centroid, nm.opts.Gamma, ediff)
			ve, err := evaluate(xe)
			if err != nil {
				return nil, err
			}
			if ve < vr {
				copy(worst.x, xe)
				worst.value = ve
			} else {
				copy(worst.x, xr)
				worst.value = vr
			}

		default:
			// Contraction, outside when the reflected point beats the
			// worst vertex and inside otherwise.
			replaced := false
			if vr < worst.value {
				floats.SubTo(ediff, xr, centroid)
				floats.AddScaledTo(xc, centroid, nm.opts.Rho, ediff)
				vc, err := evaluate(xc)
				if err != nil {
					return nil, err
				}
				if vc <= vr {
					copy(worst.x, xc)
					worst.value = vc
					replaced = true
				}
			} else {
				floats.AddScaledTo(xc, centroid, -nm.opts.Rho, rdiff)
				vc, err := evaluate(xc)
				if err != nil {
					return nil, err
				}
				if vc < worst.value {
					copy(worst.x, xc)
					worst.value = vc
					replaced = true
				}
			}

			if !replaced {
				// Shrink every vertex but the best toward it.
				best := simplex[0].x
				for i := 1; i <= dim; i++ {
					v := &simplex[i]
					for j := range v.x {
						v.x[j] = best[j] + nm.opts.Sigma*(v.x[j]-best[j])
					}
					val, err := evaluate(v.x)
					if err != nil {
						return nil, err
					}
					v.value = val
				}
			}
		}

		if nm.opts.OnIteration != nil {
			cur := 0
			for i := 1; i < len(simplex); i++ {
				if simplex[i].value < simplex[cur].value {
					cur = i
				}
			}
			if simplex[cur].value < bestValue {
				nm.opts.OnIteration(iterations, simplex[cur].x, simplex[cur].value)
			} else {
				nm.opts.OnIteration(iterations, bestX, bestValue)
			}
		}
	}

	// Fold the final simplex state into the best-observed point; the loop
	// may have exited on the iteration cap right after a replacement.
	sort.SliceStable(simplex, func(i, j int) bool {
		return simplex[i].value < simplex[j].value
	})
	updateBest()

	return &Result{
		X:          bestX,
		Value:      bestValue,
		Iterations: iterations,
		Reason:     reason,
	}, nil
}
