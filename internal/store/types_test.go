package store

import (
	"testing"
	"time"
)

func validCheckpoint() *Checkpoint {
	return NewCheckpoint(
		"job-1",
		[]float64{1, 2, 3},
		0.5,
		10.0,
		42,
		RunConfig{
			Objective: "sphere",
			Dim:       3,
			Algo:      "nelder-mead",
			MaxIters:  1000,
			Tolerance: 1e-6,
		},
	)
}

func TestCheckpointValidate(t *testing.T) {
	if err := validCheckpoint().Validate(); err != nil {
		t.Errorf("valid checkpoint failed validation: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Checkpoint)
	}{
		{"empty job id", func(c *Checkpoint) { c.JobID = "" }},
		{"empty best vector", func(c *Checkpoint) { c.BestX = nil }},
		{"negative iterations", func(c *Checkpoint) { c.Iterations = -1 }},
		{"zero timestamp", func(c *Checkpoint) { c.Timestamp = time.Time{} }},
		{"empty objective", func(c *Checkpoint) { c.Config.Objective = "" }},
		{"empty algo", func(c *Checkpoint) { c.Config.Algo = "" }},
		{"zero max iters", func(c *Checkpoint) { c.Config.MaxIters = 0 }},
		{"dim mismatch", func(c *Checkpoint) { c.Config.Dim = 5 }},
	}

	for _, tc := range cases {
		c := validCheckpoint()
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestCheckpointToInfo(t *testing.T) {
	c := validCheckpoint()
	c.Reason = "converged"

	info := c.ToInfo()
	if info.JobID != "job-1" {
		t.Errorf("JobID = %s, want job-1", info.JobID)
	}
	if info.Objective != "sphere" {
		t.Errorf("Objective = %s, want sphere", info.Objective)
	}
	if info.Dim != 3 {
		t.Errorf("Dim = %d, want 3", info.Dim)
	}
	if info.Iterations != 42 {
		t.Errorf("Iterations = %d, want 42", info.Iterations)
	}

	// Dim falls back to the vector length when the config leaves it unset.
	c.Config.Dim = 0
	if got := c.ToInfo().Dim; got != 3 {
		t.Errorf("fallback Dim = %d, want 3", got)
	}
}

func TestCheckpointIsCompatible(t *testing.T) {
	c := validCheckpoint()

	compatible := c.Config
	if err := c.IsCompatible(compatible); err != nil {
		t.Errorf("identical config should be compatible: %v", err)
	}

	wrongObjective := c.Config
	wrongObjective.Objective = "ackley"
	if err := c.IsCompatible(wrongObjective); err == nil {
		t.Error("expected objective mismatch error")
	}

	wrongDim := c.Config
	wrongDim.Dim = 7
	if err := c.IsCompatible(wrongDim); err == nil {
		t.Error("expected dim mismatch error")
	}

	wrongAlgo := c.Config
	wrongAlgo.Algo = "mayfly"
	if err := c.IsCompatible(wrongAlgo); err == nil {
		t.Error("expected algo mismatch error")
	}

	// Tuning parameters may differ between the original and resumed run.
	differentTuning := c.Config
	differentTuning.MaxIters = 99
	differentTuning.Tolerance = 1e-3
	if err := c.IsCompatible(differentTuning); err != nil {
		t.Errorf("tuning changes should be compatible: %v", err)
	}
}
