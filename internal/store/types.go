package store

import (
	"fmt"
	"time"
)

// RunConfig holds configuration for an optimization job (checkpoint copy).
// This avoids import cycles with the server package.
type RunConfig struct {
	// Objective is the name of a registered benchmark objective.
	Objective string `json:"objective"`

	// Dim is the dimensionality of the search space. Ignored when the
	// objective has a fixed dimensionality or an explicit guess is given.
	Dim int `json:"dim,omitempty"`

	// Guess is the starting point. When empty, the objective's
	// conventional starting point is used.
	Guess []float64 `json:"guess,omitempty"`

	// Algo selects the optimizer: "nelder-mead" (default) or "mayfly".
	Algo string `json:"algo"`

	MaxIters    int     `json:"maxIters"`
	Tolerance   float64 `json:"tolerance"`
	Alpha       float64 `json:"alpha"`
	Gamma       float64 `json:"gamma"`
	Rho         float64 `json:"rho"`
	Sigma       float64 `json:"sigma"`
	InitialStep float64 `json:"initialStep"`

	// PopSize and Seed only apply to the mayfly baseline.
	PopSize int   `json:"popSize,omitempty"`
	Seed    int64 `json:"seed,omitempty"`

	// CheckpointInterval saves a checkpoint every N seconds (0 = disabled).
	CheckpointInterval int `json:"checkpointInterval,omitempty"`
}

// Checkpoint represents a saved optimization state that can be resumed later.
// All fields are serialized to JSON for persistence.
//
// The checkpoint saves the best point found so far, not the simplex or the
// optimizer's internal state. Resuming therefore starts a fresh run seeded
// with the checkpointed best vector: the best value can never get worse,
// but the continued run is not a bit-exact continuation of the interrupted
// one. Saving the full simplex would tie the checkpoint format to one
// optimizer implementation, which the shared Optimizer interface avoids.
type Checkpoint struct {
	// JobID is the unique identifier for this optimization job.
	JobID string `json:"jobId"`

	// BestX is the best parameter vector found so far.
	BestX []float64 `json:"bestX"`

	// BestValue is the objective value at BestX.
	BestValue float64 `json:"bestValue"`

	// InitialValue is the objective value at the starting point, kept for
	// improvement tracking.
	InitialValue float64 `json:"initialValue"`

	// Iterations is the iteration count when this checkpoint was created.
	Iterations int `json:"iterations"`

	// Reason records the termination reason for finished runs; empty for
	// checkpoints taken mid-run.
	Reason string `json:"reason,omitempty"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`

	// Config holds the job configuration, needed for validation during
	// resume: a resumed run must use a compatible objective and search
	// space.
	Config RunConfig `json:"config"`
}

// CheckpointInfo contains metadata about a checkpoint without the parameter
// data. Used for listing checkpoints without loading full vectors.
type CheckpointInfo struct {
	JobID      string    `json:"jobId"`
	BestValue  float64   `json:"bestValue"`
	Iterations int       `json:"iterations"`
	Timestamp  time.Time `json:"timestamp"`
	Objective  string    `json:"objective"`
	Dim        int       `json:"dim"`
	Algo       string    `json:"algo"`
}

// NewCheckpoint creates a checkpoint from job state.
func NewCheckpoint(jobID string, bestX []float64, bestValue, initialValue float64, iterations int, config RunConfig) *Checkpoint {
	return &Checkpoint{
		JobID:        jobID,
		BestX:        bestX,
		BestValue:    bestValue,
		InitialValue: initialValue,
		Iterations:   iterations,
		Timestamp:    time.Now(),
		Config:       config,
	}
}

// ToInfo converts a full Checkpoint to CheckpointInfo (metadata only).
func (c *Checkpoint) ToInfo() CheckpointInfo {
	dim := c.Config.Dim
	if dim == 0 {
		dim = len(c.BestX)
	}
	return CheckpointInfo{
		JobID:      c.JobID,
		BestValue:  c.BestValue,
		Iterations: c.Iterations,
		Timestamp:  c.Timestamp,
		Objective:  c.Config.Objective,
		Dim:        dim,
		Algo:       c.Config.Algo,
	}
}

// Validate checks if the checkpoint has valid data.
// Returns an error if any required field is missing or invalid.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(c.BestX) == 0 {
		return &ValidationError{Field: "BestX", Reason: "cannot be empty"}
	}
	if c.Iterations < 0 {
		return &ValidationError{Field: "Iterations", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.Objective == "" {
		return &ValidationError{Field: "Config.Objective", Reason: "cannot be empty"}
	}
	if c.Config.Algo == "" {
		return &ValidationError{Field: "Config.Algo", Reason: "cannot be empty"}
	}
	if c.Config.MaxIters <= 0 {
		return &ValidationError{Field: "Config.MaxIters", Reason: "must be positive"}
	}
	if c.Config.Dim > 0 && len(c.BestX) != c.Config.Dim {
		return &ValidationError{
			Field:  "BestX",
			Reason: fmt.Sprintf("length mismatch: expected %d coordinates, got %d", c.Config.Dim, len(c.BestX)),
		}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks if this checkpoint can be resumed with the given config.
// Returns an error if the configs are incompatible.
func (c *Checkpoint) IsCompatible(config RunConfig) error {
	if c.Config.Objective != config.Objective {
		return &CompatibilityError{
			Field:    "Objective",
			Expected: c.Config.Objective,
			Actual:   config.Objective,
		}
	}
	if c.Config.Dim != config.Dim {
		return &CompatibilityError{
			Field:    "Dim",
			Expected: fmt.Sprintf("%d", c.Config.Dim),
			Actual:   fmt.Sprintf("%d", config.Dim),
		}
	}
	if c.Config.Algo != config.Algo {
		return &CompatibilityError{
			Field:    "Algo",
			Expected: c.Config.Algo,
			Actual:   config.Algo,
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
