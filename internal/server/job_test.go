package server

import (
	"testing"
	"time"
)

func testRunConfig() RunConfig {
	return RunConfig{
		Objective: "sphere",
		Dim:       2,
		Algo:      "nelder-mead",
		MaxIters:  500,
		Tolerance: 1e-8,
	}
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testRunConfig())

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}

	if job.Config.Objective != "sphere" {
		t.Errorf("Config not set correctly")
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testRunConfig())

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should exist")
	}

	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	_, exists = jm.GetJob("nonexistent")
	if exists {
		t.Error("Nonexistent job should not exist")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("New manager should have no jobs")
	}

	jm.CreateJob(testRunConfig())
	jm.CreateJob(testRunConfig())

	if got := len(jm.ListJobs()); got != 2 {
		t.Errorf("Expected 2 jobs, got %d", got)
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testRunConfig())

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Iterations = 10
		j.BestValue = 0.5
	})
	if err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Errorf("State = %s, want running", updated.State)
	}
	if updated.Iterations != 10 {
		t.Errorf("Iterations = %d, want 10", updated.Iterations)
	}

	if err := jm.UpdateJob("nonexistent", func(j *Job) {}); err == nil {
		t.Error("Expected error updating nonexistent job")
	}
}

func TestJobManager_GetRunningJobs(t *testing.T) {
	jm := NewJobManager()

	a := jm.CreateJob(testRunConfig())
	jm.CreateJob(testRunConfig())

	jm.UpdateJob(a.ID, func(j *Job) { j.State = StateRunning })

	running := jm.GetRunningJobs()
	if len(running) != 1 {
		t.Fatalf("Expected 1 running job, got %d", len(running))
	}
	if running[0].ID != a.ID {
		t.Error("Wrong job reported as running")
	}
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-1")

	event := ProgressEvent{
		JobID:      "job-1",
		State:      StateRunning,
		Iterations: 5,
		BestValue:  1.25,
		Timestamp:  time.Now(),
	}
	eb.Broadcast(event)

	select {
	case got := <-ch:
		if got.Iterations != 5 || got.BestValue != 1.25 {
			t.Errorf("Received wrong event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}

	// A late subscriber receives the last event immediately
	late := eb.Subscribe("job-1")
	select {
	case got := <-late:
		if got.Iterations != 5 {
			t.Errorf("Late subscriber got wrong event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Late subscriber did not receive cached event")
	}

	eb.Unsubscribe("job-1", ch)
	eb.Unsubscribe("job-1", late)

	// Broadcasting with no subscribers must not panic
	eb.Broadcast(event)

	eb.CleanupJob("job-1")
}
