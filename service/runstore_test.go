package service

import (
	"path/filepath"
	"testing"

	"github.com/blake-osondu/jobdroid-service/model"
)

func openTestRunStore(t *testing.T) *RunStore {
	t.Helper()
	store, err := OpenRunStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenRunStore failed: %v", err)
	}
	return store
}

func TestRunStoreRecordAndTerminal(t *testing.T) {
	store := openTestRunStore(t)

	attempts := []model.ApplicationAttempt{
		{JobID: "1", Platform: "indeed", Title: "Engineer", Company: "Acme", Status: model.AttemptSubmitted, AttemptCount: 1},
		{JobID: "2", Platform: "indeed", Status: model.AttemptFailed, AttemptCount: 4, LastError: "gateway timeout"},
		{JobID: "3", Platform: "linkedin", Status: model.AttemptSkipped},
	}
	for _, a := range attempts {
		if err := store.Record("user-1", a); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	terminal, err := store.Terminal("user-1")
	if err != nil {
		t.Fatalf("Terminal failed: %v", err)
	}

	// Skipped attempts may be retried later, so they are not terminal.
	if len(terminal) != 2 {
		t.Fatalf("Expected 2 terminal attempts, got %d", len(terminal))
	}
	if _, ok := terminal["indeed:1"]; !ok {
		t.Error("Expected submitted attempt in terminal set")
	}
	if got := terminal["indeed:2"]; got.AttemptCount != 4 || got.LastError != "gateway timeout" {
		t.Errorf("Failed attempt not round-tripped: %+v", got)
	}
}

func TestRunStoreUpsert(t *testing.T) {
	store := openTestRunStore(t)

	pending := model.ApplicationAttempt{JobID: "1", Platform: "indeed", Status: model.AttemptPending, AttemptCount: 1}
	if err := store.Record("user-1", pending); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	submitted := pending
	submitted.Status = model.AttemptSubmitted
	submitted.AttemptCount = 2
	if err := store.Record("user-1", submitted); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	terminal, err := store.Terminal("user-1")
	if err != nil {
		t.Fatalf("Terminal failed: %v", err)
	}
	if len(terminal) != 1 {
		t.Fatalf("Expected one row after upsert, got %d", len(terminal))
	}
	if got := terminal["indeed:1"]; got.Status != model.AttemptSubmitted || got.AttemptCount != 2 {
		t.Errorf("Upsert did not apply: %+v", got)
	}
}

func TestRunStoreScopedByUser(t *testing.T) {
	store := openTestRunStore(t)

	a := model.ApplicationAttempt{JobID: "1", Platform: "indeed", Status: model.AttemptSubmitted}
	if err := store.Record("user-1", a); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record("user-2", a); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	terminal, err := store.Terminal("user-2")
	if err != nil {
		t.Fatalf("Terminal failed: %v", err)
	}
	if len(terminal) != 1 {
		t.Errorf("Expected user-2's single attempt, got %d", len(terminal))
	}

	empty, err := store.Terminal("ghost")
	if err != nil {
		t.Fatalf("Terminal failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no history for unknown user, got %d", len(empty))
	}
}
