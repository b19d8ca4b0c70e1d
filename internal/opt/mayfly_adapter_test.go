package opt

import (
	"errors"
	"math"
	"testing"
)

func TestMayflyAdapterOnSphere(t *testing.T) {
	optimizer := NewMayfly(100, 20, 42, 10) // maxIters, popSize, seed, radius

	result, err := optimizer.Run(sphere, []float64{1, 1, 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.X) != 3 {
		t.Fatalf("expected 3 parameters, got %d", len(result.X))
	}
	if result.Reason != ReasonMaxIterations {
		t.Errorf("expected max_iterations, got %s", result.Reason)
	}

	// Should converge close to zero
	if result.Value > 0.1 {
		t.Errorf("expected value near 0, got %f", result.Value)
	}
	for i, v := range result.X {
		if math.Abs(v) > 1.0 {
			t.Errorf("parameter %d = %f, expected near 0", i, v)
		}
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	guess := []float64{2, -2}

	// Run twice with same seed (popSize must be >=20 for mayfly v0.1.0)
	first, err := NewMayfly(50, 20, 123, 10).Run(sphere, guess)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := NewMayfly(50, 20, 123, 10).Run(sphere, guess)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if first.Value != second.Value {
		t.Errorf("non-deterministic: %f vs %f", first.Value, second.Value)
	}
}

func TestMayflyAdapterInvalidInput(t *testing.T) {
	_, err := NewMayfly(100, 20, 1, 10).Run(sphere, nil)
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidInputError for empty guess, got %v", err)
	}

	_, err = NewMayfly(0, 20, 1, 10).Run(sphere, []float64{1})
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidInputError for zero iterations, got %v", err)
	}
}
