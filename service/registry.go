package service

import (
	"errors"
	"sync"

	"github.com/blake-osondu/jobdroid-service/config"
	"github.com/blake-osondu/jobdroid-service/model"
)

// Registry errors surfaced to the API layer.
var (
	ErrRunNotFound    = errors.New("no run exists for user")
	ErrAlreadyRunning = errors.New("a run is already active for user")
)

// Registry tracks at most one active run per user and exposes
// start/status/stop to the API layer. It holds only a reference to each
// machine; run state is owned by the machines themselves.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Machine

	adapters  []PlatformAdapter
	scheduler *Scheduler
	mapper    *FieldMapper
	history   AttemptHistory
	cfg       *config.AutomationConfig
}

// NewRegistry wires a registry with the shared components every run
// uses. The scheduler (and its rate budget) is deliberately shared so
// concurrent runs respect the same per-platform ceilings.
func NewRegistry(adapters []PlatformAdapter, scheduler *Scheduler, mapper *FieldMapper, history AttemptHistory, cfg *config.AutomationConfig) *Registry {
	return &Registry{
		runs:      make(map[string]*Machine),
		adapters:  adapters,
		scheduler: scheduler,
		mapper:    mapper,
		history:   history,
		cfg:       cfg,
	}
}

// Start creates and starts a run for the user. It fails with
// ErrAlreadyRunning while an earlier run for the same user is still
// active; terminal runs are replaced.
func (r *Registry) Start(userID string, profile model.ApplicantProfile, prefs model.Preferences) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.runs[userID]; ok {
		switch existing.Status().Status {
		case model.RunStopped, model.RunCompleted, model.RunErrored:
			// replaced below
		default:
			return "", ErrAlreadyRunning
		}
	}

	machine := NewMachine(userID, profile, r.adapters, r.scheduler, r.mapper, r.history, r.cfg)
	if err := machine.Start(prefs); err != nil {
		return "", err
	}

	r.runs[userID] = machine
	return machine.RunID(), nil
}

// Status returns a snapshot of the user's run.
func (r *Registry) Status(userID string) (model.RunSnapshot, error) {
	r.mu.RLock()
	machine, ok := r.runs[userID]
	r.mu.RUnlock()

	if !ok {
		return model.RunSnapshot{}, ErrRunNotFound
	}
	return machine.Status(), nil
}

// Stop stops the user's run at its next checkpoint.
func (r *Registry) Stop(userID string) error {
	r.mu.RLock()
	machine, ok := r.runs[userID]
	r.mu.RUnlock()

	if !ok {
		return ErrRunNotFound
	}
	return machine.Stop()
}

// Pause suspends the user's run.
func (r *Registry) Pause(userID string) error {
	r.mu.RLock()
	machine, ok := r.runs[userID]
	r.mu.RUnlock()

	if !ok {
		return ErrRunNotFound
	}
	return machine.Pause()
}

// Resume continues the user's paused run.
func (r *Registry) Resume(userID string) error {
	r.mu.RLock()
	machine, ok := r.runs[userID]
	r.mu.RUnlock()

	if !ok {
		return ErrRunNotFound
	}
	return machine.Resume()
}

// ActiveRuns returns how many runs are not yet terminal.
func (r *Registry) ActiveRuns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, machine := range r.runs {
		switch machine.Status().Status {
		case model.RunStopped, model.RunCompleted, model.RunErrored:
		default:
			count++
		}
	}
	return count
}
