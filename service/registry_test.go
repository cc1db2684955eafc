package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blake-osondu/jobdroid-service/model"
)

func newTestRegistry(adapters []PlatformAdapter) *Registry {
	cfg := testAutomationConfig()
	scheduler := NewScheduler(cfg, NewRateBudget(cfg.ApplicationsPerDay, cfg.DelayBetweenApplications), NewProxyPool(nil))
	mapper := NewFieldMapper(NewPatternClassifier(), nil, cfg.MinConfidenceThreshold)
	return NewRegistry(adapters, scheduler, mapper, nil, cfg)
}

func gatedAdapter(gate chan struct{}) *fakeAdapter {
	return &fakeAdapter{
		name:  "indeed",
		pages: []SearchPage{{Postings: []model.JobPosting{posting("indeed", "1", "Engineer")}}},
		submit: func(ctx context.Context, detail JobDetail) (SubmissionResult, error) {
			<-gate
			return SubmissionResult{Confirmed: true}, nil
		},
	}
}

func TestRegistryStartAndStatus(t *testing.T) {
	adapter := &fakeAdapter{
		name:  "indeed",
		pages: []SearchPage{{Postings: []model.JobPosting{posting("indeed", "1", "Engineer")}}},
	}
	r := newTestRegistry([]PlatformAdapter{adapter})

	runID, err := r.Start("user-1", testProfile(), model.Preferences{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if runID == "" {
		t.Fatal("Expected a run ID")
	}

	snap, err := r.Status("user-1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if snap.RunID != runID || snap.UserID != "user-1" {
		t.Errorf("Snapshot identity mismatch: %+v", snap)
	}
}

func TestRegistryUnknownUser(t *testing.T) {
	r := newTestRegistry(nil)

	if _, err := r.Status("ghost"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Status: expected ErrRunNotFound, got %v", err)
	}
	if err := r.Stop("ghost"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Stop: expected ErrRunNotFound, got %v", err)
	}
	if err := r.Pause("ghost"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Pause: expected ErrRunNotFound, got %v", err)
	}
	if err := r.Resume("ghost"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Resume: expected ErrRunNotFound, got %v", err)
	}
}

func TestRegistryRejectsConcurrentRuns(t *testing.T) {
	gate := make(chan struct{})
	r := newTestRegistry([]PlatformAdapter{gatedAdapter(gate)})

	if _, err := r.Start("user-1", testProfile(), model.Preferences{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := r.Start("user-1", testProfile(), model.Preferences{}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Expected ErrAlreadyRunning, got %v", err)
	}

	// A different user is unaffected.
	if _, err := r.Start("user-2", testProfile(), model.Preferences{}); err != nil {
		t.Errorf("Start for second user failed: %v", err)
	}

	close(gate)
}

func TestRegistryReplacesTerminalRun(t *testing.T) {
	adapter := &fakeAdapter{name: "indeed"}
	r := newTestRegistry([]PlatformAdapter{adapter})

	first, err := r.Start("user-1", testProfile(), model.Preferences{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitRegistryStatus(t, r, "user-1", model.RunCompleted)

	second, err := r.Start("user-1", testProfile(), model.Preferences{})
	if err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if second == first {
		t.Error("Expected a fresh run ID")
	}
}

func TestRegistryLifecycle(t *testing.T) {
	gate := make(chan struct{})
	r := newTestRegistry([]PlatformAdapter{gatedAdapter(gate)})

	if _, err := r.Start("user-1", testProfile(), model.Preferences{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := r.ActiveRuns(); got != 1 {
		t.Errorf("ActiveRuns = %d", got)
	}

	if err := r.Pause("user-1"); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if err := r.Resume("user-1"); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if err := r.Stop("user-1"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	close(gate)

	waitRegistryStatus(t, r, "user-1", model.RunStopped)
	if got := r.ActiveRuns(); got != 0 {
		t.Errorf("ActiveRuns after stop = %d", got)
	}
}

func waitRegistryStatus(t *testing.T, r *Registry, userID, status string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := r.Status(userID)
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if snap.Status == status {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	snap, _ := r.Status(userID)
	t.Fatalf("Run never reached %s, status %s", status, snap.Status)
}
