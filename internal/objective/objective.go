// Package objective provides the built-in benchmark functions the CLI and
// server can minimize by name. The optimizer core stays agnostic: it only
// needs a callable, and these are merely convenient ones with known optima.
package objective

import (
	"fmt"
	"math"
	"sort"
)

// Func evaluates a candidate point. It is an alias so registry specs plug
// directly into any optimizer taking a plain evaluation function.
type Func = func(x []float64) float64

// Spec describes a built-in benchmark objective.
type Spec struct {
	Name string

	// Dim is the fixed dimensionality, or 0 when the function accepts any
	// number of dimensions.
	Dim int

	Eval Func

	// Optimum is the known minimum value of the function.
	Optimum float64

	// Minimizer is a point attaining the optimum, for Dim-dimensional
	// specs. Nil for dimension-flexible functions (the minimizer pattern
	// repeats per coordinate).
	Minimizer []float64

	// startPattern is cycled per coordinate by DefaultStart.
	startPattern []float64
}

// DefaultStart returns the conventional starting point for the function at
// the given dimensionality.
func (s Spec) DefaultStart(dim int) []float64 {
	if s.Dim > 0 {
		dim = s.Dim
	}
	start := make([]float64, dim)
	for i := range start {
		start[i] = s.startPattern[i%len(s.startPattern)]
	}
	return start
}

// Sphere: f(x) = sum(x_i^2), minimum 0 at the origin.
func Sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// Rosenbrock: the banana valley, minimum 0 at (1, ..., 1).
func Rosenbrock(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		a := 1 - x[i]
		b := x[i+1] - x[i]*x[i]
		sum += a*a + 100*b*b
	}
	return sum
}

// Rastrigin: highly multimodal, minimum 0 at the origin.
func Rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum
}

// Ackley: nearly flat outer region with a deep hole at the origin,
// minimum 0.
func Ackley(x []float64) float64 {
	n := float64(len(x))
	var sq, cs float64
	for _, v := range x {
		sq += v * v
		cs += math.Cos(2 * math.Pi * v)
	}
	return -20*math.Exp(-0.2*math.Sqrt(sq/n)) - math.Exp(cs/n) + 20 + math.E
}

// Booth (2-D): minimum 0 at (1, 3).
func Booth(x []float64) float64 {
	a := x[0] + 2*x[1] - 7
	b := 2*x[0] + x[1] - 5
	return a*a + b*b
}

// Himmelblau (2-D): four identical minima of 0, one at (3, 2).
func Himmelblau(x []float64) float64 {
	a := x[0]*x[0] + x[1] - 11
	b := x[0] + x[1]*x[1] - 7
	return a*a + b*b
}

// Eggholder (2-D): minimum about -959.6407 at (512, 404.2319).
func Eggholder(x []float64) float64 {
	a := -(x[1] + 47) * math.Sin(math.Sqrt(math.Abs(x[0]/2+x[1]+47)))
	b := -x[0] * math.Sin(math.Sqrt(math.Abs(x[0]-(x[1]+47))))
	return a + b
}

var registry = map[string]Spec{
	"sphere": {
		Name:         "sphere",
		Eval:         Sphere,
		Optimum:      0,
		startPattern: []float64{2.5},
	},
	"rosenbrock": {
		Name:         "rosenbrock",
		Eval:         Rosenbrock,
		Optimum:      0,
		startPattern: []float64{-1.2, 1.0},
	},
	"rastrigin": {
		Name:         "rastrigin",
		Eval:         Rastrigin,
		Optimum:      0,
		startPattern: []float64{0.5},
	},
	"ackley": {
		Name:         "ackley",
		Eval:         Ackley,
		Optimum:      0,
		startPattern: []float64{1.5},
	},
	"booth": {
		Name:         "booth",
		Dim:          2,
		Eval:         Booth,
		Optimum:      0,
		Minimizer:    []float64{1, 3},
		startPattern: []float64{0},
	},
	"himmelblau": {
		Name:         "himmelblau",
		Dim:          2,
		Eval:         Himmelblau,
		Optimum:      0,
		Minimizer:    []float64{3, 2},
		startPattern: []float64{2, 1},
	},
	"eggholder": {
		Name:         "eggholder",
		Dim:          2,
		Eval:         Eggholder,
		Optimum:      -959.6407,
		Minimizer:    []float64{512, 404.2319},
		startPattern: []float64{480, 380},
	},
}

// Lookup returns the spec for a named objective.
func Lookup(name string) (Spec, error) {
	spec, ok := registry[name]
	if !ok {
		return Spec{}, fmt.Errorf("unknown objective %q (available: %v)", name, Names())
	}
	return spec, nil
}

// Names lists the registered objectives in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
