package store

import (
	"errors"
	"os"
	"testing"
	"time"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) *FSStore {
	t.Helper()

	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return store
}

// createTestCheckpoint creates a checkpoint with test data.
func createTestCheckpoint(jobID string) *Checkpoint {
	return &Checkpoint{
		JobID:        jobID,
		BestX:        []float64{0.99871, 1.00034},
		BestValue:    3.2e-6,
		InitialValue: 24.2,
		Iterations:   142,
		Reason:       "converged",
		Timestamp:    time.Now(),
		Config: RunConfig{
			Objective:   "rosenbrock",
			Dim:         2,
			Algo:        "nelder-mead",
			MaxIters:    1000,
			Tolerance:   1e-6,
			Alpha:       1.0,
			Gamma:       2.0,
			Rho:         0.5,
			Sigma:       0.5,
			InitialStep: 0.05,
		},
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	if store == nil {
		t.Fatal("Expected non-nil store")
	}

	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
	if store.BaseDir() != tempDir {
		t.Errorf("BaseDir() = %s, want %s", store.BaseDir(), tempDir)
	}
}

func TestSaveAndLoadCheckpoint(t *testing.T) {
	store := setupTestStore(t)
	checkpoint := createTestCheckpoint("job-1")

	if err := store.SaveCheckpoint("job-1", checkpoint); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	loaded, err := store.LoadCheckpoint("job-1")
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}

	if loaded.JobID != checkpoint.JobID {
		t.Errorf("JobID = %s, want %s", loaded.JobID, checkpoint.JobID)
	}
	if loaded.BestValue != checkpoint.BestValue {
		t.Errorf("BestValue = %g, want %g", loaded.BestValue, checkpoint.BestValue)
	}
	if len(loaded.BestX) != len(checkpoint.BestX) {
		t.Fatalf("BestX length = %d, want %d", len(loaded.BestX), len(checkpoint.BestX))
	}
	for i := range loaded.BestX {
		if loaded.BestX[i] != checkpoint.BestX[i] {
			t.Errorf("BestX[%d] = %g, want %g", i, loaded.BestX[i], checkpoint.BestX[i])
		}
	}
	if loaded.Config.Objective != "rosenbrock" {
		t.Errorf("Config.Objective = %s, want rosenbrock", loaded.Config.Objective)
	}
	if loaded.Reason != "converged" {
		t.Errorf("Reason = %s, want converged", loaded.Reason)
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	store := setupTestStore(t)

	first := createTestCheckpoint("job-1")
	if err := store.SaveCheckpoint("job-1", first); err != nil {
		t.Fatalf("first SaveCheckpoint failed: %v", err)
	}

	second := createTestCheckpoint("job-1")
	second.BestValue = 1e-9
	second.Iterations = 500
	if err := store.SaveCheckpoint("job-1", second); err != nil {
		t.Fatalf("second SaveCheckpoint failed: %v", err)
	}

	loaded, err := store.LoadCheckpoint("job-1")
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.BestValue != 1e-9 || loaded.Iterations != 500 {
		t.Errorf("checkpoint was not overwritten: %+v", loaded)
	}
}

func TestLoadCheckpointNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.LoadCheckpoint("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListCheckpoints(t *testing.T) {
	store := setupTestStore(t)

	// Empty store lists nothing
	infos, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected empty list, got %d entries", len(infos))
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := store.SaveCheckpoint(id, createTestCheckpoint(id)); err != nil {
			t.Fatalf("SaveCheckpoint(%s) failed: %v", id, err)
		}
	}

	infos, err = store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Objective != "rosenbrock" {
			t.Errorf("info.Objective = %s, want rosenbrock", info.Objective)
		}
		if info.Dim != 2 {
			t.Errorf("info.Dim = %d, want 2", info.Dim)
		}
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SaveCheckpoint("job-1", createTestCheckpoint("job-1")); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	if err := store.DeleteCheckpoint("job-1"); err != nil {
		t.Fatalf("DeleteCheckpoint failed: %v", err)
	}

	if _, err := store.LoadCheckpoint("job-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := store.DeleteCheckpoint("job-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestDeleteCheckpointRemovesTrace(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SaveCheckpoint("job-1", createTestCheckpoint("job-1")); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	tw, err := NewTraceWriter(store.BaseDir(), "job-1", false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	if err := tw.Write(TraceEntry{Iteration: 1, Value: 2.0, Timestamp: time.Now()}); err != nil {
		t.Fatalf("trace Write failed: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("trace Close failed: %v", err)
	}

	if err := store.DeleteCheckpoint("job-1"); err != nil {
		t.Fatalf("DeleteCheckpoint failed: %v", err)
	}

	if _, err := NewTraceReader(store.BaseDir(), "job-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected trace to be gone, got %v", err)
	}
}
