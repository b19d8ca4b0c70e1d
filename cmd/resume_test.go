package main

import (
	"errors"
	"testing"

	"github.com/cwbudde/neldermead/internal/store"
)

func saveResumableCheckpoint(t *testing.T, dir string) {
	t.Helper()

	s, err := store.NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	config := store.RunConfig{
		Objective: "sphere",
		Algo:      "nelder-mead",
		MaxIters:  500,
		Tolerance: 1e-8,
	}
	checkpoint := store.NewCheckpoint("job-resume", []float64{2.5, -1.5}, 8.5, 30.25, 120, config)
	if err := s.SaveCheckpoint("job-resume", checkpoint); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}
}

func resetResumeFlags(dir string) {
	resumeDataDir = dir
	resumeIters = 0
	resumeAlgo = ""
}

func TestRunResumeContinuesCheckpoint(t *testing.T) {
	dir := t.TempDir()
	saveResumableCheckpoint(t, dir)
	resetResumeFlags(dir)

	if err := runResume(resumeCmd, []string{"job-resume"}); err != nil {
		t.Fatalf("runResume failed: %v", err)
	}

	s, err := store.NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	updated, err := s.LoadCheckpoint("job-resume")
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}

	if updated.BestValue > 1e-6 {
		t.Errorf("BestValue = %g, want near 0 after continuation", updated.BestValue)
	}
	if updated.Iterations <= 120 {
		t.Errorf("Iterations = %d, want more than the checkpointed 120", updated.Iterations)
	}
	if updated.InitialValue != 30.25 {
		t.Errorf("InitialValue = %g, want original 30.25", updated.InitialValue)
	}
}

func TestRunResumeRejectsAlgoMismatch(t *testing.T) {
	dir := t.TempDir()
	saveResumableCheckpoint(t, dir)
	resetResumeFlags(dir)
	resumeAlgo = "mayfly"

	err := runResume(resumeCmd, []string{"job-resume"})
	var compat *store.CompatibilityError
	if !errors.As(err, &compat) {
		t.Fatalf("expected CompatibilityError, got %v", err)
	}

	// The mismatch must leave the stored checkpoint untouched
	s, _ := store.NewFSStore(dir)
	kept, err := s.LoadCheckpoint("job-resume")
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if kept.Iterations != 120 || kept.BestValue != 8.5 {
		t.Errorf("checkpoint modified by rejected resume: %+v", kept)
	}
}

func TestRunResumeMissingCheckpoint(t *testing.T) {
	resetResumeFlags(t.TempDir())

	if err := runResume(resumeCmd, []string{"nonexistent"}); err == nil {
		t.Error("expected error for missing checkpoint")
	}
}
