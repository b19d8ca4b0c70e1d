package server

import (
	"context"
	"math"
	"testing"

	"github.com/cwbudde/neldermead/internal/store"
)

func TestResolveRun(t *testing.T) {
	// Explicit guess wins
	spec, guess, err := resolveRun(RunConfig{Objective: "sphere", Guess: []float64{1, 2, 3}})
	if err != nil {
		t.Fatalf("resolveRun failed: %v", err)
	}
	if spec.Name != "sphere" {
		t.Errorf("spec.Name = %s, want sphere", spec.Name)
	}
	if len(guess) != 3 {
		t.Errorf("guess length = %d, want 3", len(guess))
	}

	// Default start derived from dim
	_, guess, err = resolveRun(RunConfig{Objective: "sphere", Dim: 5})
	if err != nil {
		t.Fatalf("resolveRun failed: %v", err)
	}
	if len(guess) != 5 {
		t.Errorf("guess length = %d, want 5", len(guess))
	}

	// Unknown objective
	if _, _, err := resolveRun(RunConfig{Objective: "nope"}); err == nil {
		t.Error("expected error for unknown objective")
	}

	// Dimension mismatch against a fixed-dimension objective
	if _, _, err := resolveRun(RunConfig{Objective: "booth", Guess: []float64{1, 2, 3}}); err == nil {
		t.Error("expected error for dimension mismatch")
	}
}

func TestBuildOptimizer(t *testing.T) {
	if _, err := buildOptimizer(RunConfig{Algo: "nelder-mead", MaxIters: 10}, nil); err != nil {
		t.Errorf("nelder-mead: %v", err)
	}
	if _, err := buildOptimizer(RunConfig{Algo: ""}, nil); err != nil {
		t.Errorf("empty algo should default to nelder-mead: %v", err)
	}
	if _, err := buildOptimizer(RunConfig{Algo: "mayfly"}, nil); err != nil {
		t.Errorf("mayfly: %v", err)
	}
	if _, err := buildOptimizer(RunConfig{Algo: "gradient-descent"}, nil); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestRunJobCompletes(t *testing.T) {
	jm := NewJobManager()
	baseDir := t.TempDir()
	checkpointStore, err := store.NewFSStore(baseDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	job := jm.CreateJob(RunConfig{
		Objective: "sphere",
		Dim:       2,
		Algo:      "nelder-mead",
		MaxIters:  2000,
		Tolerance: 1e-10,
	})

	if err := runJob(context.Background(), jm, checkpointStore, baseDir, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	done, _ := jm.GetJob(job.ID)
	if done.State != StateCompleted {
		t.Fatalf("State = %s, want completed (error: %s)", done.State, done.Error)
	}
	if done.BestValue > 1e-6 {
		t.Errorf("BestValue = %g, want near 0", done.BestValue)
	}
	if done.Reason != "converged" {
		t.Errorf("Reason = %s, want converged", done.Reason)
	}
	if done.EndTime == nil {
		t.Error("EndTime should be set")
	}

	// The worker writes a final checkpoint and a trace
	checkpoint, err := checkpointStore.LoadCheckpoint(job.ID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if checkpoint.Reason != "converged" {
		t.Errorf("checkpoint.Reason = %s, want converged", checkpoint.Reason)
	}
	if len(checkpoint.BestX) != 2 {
		t.Errorf("checkpoint.BestX length = %d, want 2", len(checkpoint.BestX))
	}

	reader, err := store.NewTraceReader(baseDir, job.ID)
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer reader.Close()
	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) == 0 {
		t.Error("expected trace entries")
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Value > entries[i-1].Value {
			t.Errorf("trace not monotone at entry %d: %g -> %g", i, entries[i-1].Value, entries[i].Value)
		}
	}
}

func TestRunJobUnknownObjective(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(RunConfig{Objective: "nope", Algo: "nelder-mead", MaxIters: 10})

	if err := runJob(context.Background(), jm, nil, "", job.ID); err == nil {
		t.Fatal("expected runJob to fail")
	}

	failed, _ := jm.GetJob(job.ID)
	if failed.State != StateFailed {
		t.Errorf("State = %s, want failed", failed.State)
	}
	if failed.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJobNonFiniteStart(t *testing.T) {
	jm := NewJobManager()

	// A NaN coordinate makes every registry objective non-finite at the
	// starting point; the job must fail without recording a garbage
	// initial value.
	job := jm.CreateJob(RunConfig{
		Objective: "sphere",
		Guess:     []float64{math.NaN(), 1},
		Algo:      "nelder-mead",
		MaxIters:  100,
	})

	if err := runJob(context.Background(), jm, nil, "", job.ID); err == nil {
		t.Fatal("expected runJob to fail for a non-finite starting value")
	}

	failed, _ := jm.GetJob(job.ID)
	if failed.State != StateFailed {
		t.Errorf("State = %s, want failed", failed.State)
	}
	if failed.Error == "" {
		t.Error("Error message should be set")
	}
	if failed.InitialValue != 0 {
		t.Errorf("InitialValue = %g, want untouched zero value", failed.InitialValue)
	}
}

func TestRunJobMissingJob(t *testing.T) {
	jm := NewJobManager()
	if err := runJob(context.Background(), jm, nil, "", "nonexistent"); err == nil {
		t.Error("expected error for missing job")
	}
}

func TestRunJobInitialValueRecorded(t *testing.T) {
	jm := NewJobManager()

	guess := []float64{3, 4}
	job := jm.CreateJob(RunConfig{
		Objective: "sphere",
		Guess:     guess,
		Algo:      "nelder-mead",
		MaxIters:  500,
		Tolerance: 1e-8,
	})

	if err := runJob(context.Background(), jm, nil, "", job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	done, _ := jm.GetJob(job.ID)
	if math.Abs(done.InitialValue-25) > 1e-12 {
		t.Errorf("InitialValue = %g, want 25", done.InitialValue)
	}
	if done.BestValue > done.InitialValue {
		t.Errorf("BestValue %g worse than InitialValue %g", done.BestValue, done.InitialValue)
	}
}
