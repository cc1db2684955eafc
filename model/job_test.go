package model

import (
	"errors"
	"testing"
)

func TestJobPostingKey(t *testing.T) {
	p := JobPosting{ID: "123", Platform: "indeed"}
	if p.Key() != "indeed:123" {
		t.Errorf("Expected key indeed:123, got %s", p.Key())
	}

	// Same ID on different platforms must not collide
	q := JobPosting{ID: "123", Platform: "linkedin"}
	if p.Key() == q.Key() {
		t.Error("Expected distinct keys for distinct platforms")
	}
}

func TestApplicantProfileFullName(t *testing.T) {
	p := ApplicantProfile{FirstName: "Ada", LastName: "Lovelace"}
	if p.FullName() != "Ada Lovelace" {
		t.Errorf("Expected 'Ada Lovelace', got %s", p.FullName())
	}

	p = ApplicantProfile{FirstName: "Ada"}
	if p.FullName() != "Ada" {
		t.Errorf("Expected 'Ada', got %s", p.FullName())
	}

	p = ApplicantProfile{LastName: "Lovelace"}
	if p.FullName() != "Lovelace" {
		t.Errorf("Expected 'Lovelace', got %s", p.FullName())
	}
}

func TestAttemptTerminal(t *testing.T) {
	tests := []struct {
		status   string
		terminal bool
	}{
		{AttemptPending, false},
		{AttemptSubmitted, true},
		{AttemptFailed, true},
		{AttemptSkipped, true},
	}

	for _, tt := range tests {
		a := ApplicationAttempt{Status: tt.status}
		if a.Terminal() != tt.terminal {
			t.Errorf("Status %s: expected terminal=%v", tt.status, tt.terminal)
		}
	}
}

func TestErrorClassification(t *testing.T) {
	base := errors.New("connection reset")

	if !IsTransient(Transient(base)) {
		t.Error("Expected Transient(err) to be transient")
	}
	if IsPermanent(Transient(base)) {
		t.Error("Expected Transient(err) to not be permanent")
	}
	if !IsPermanent(Permanent(base)) {
		t.Error("Expected Permanent(err) to be permanent")
	}
	if IsTransient(Permanent(base)) {
		t.Error("Expected Permanent(err) to not be transient")
	}

	// Classification survives wrapping
	wrapped := errors.Join(errors.New("context"), Transient(base))
	if !IsTransient(wrapped) {
		t.Error("Expected wrapped transient error to stay transient")
	}

	// Unwrap reaches the original error
	if !errors.Is(Transient(base), base) {
		t.Error("Expected errors.Is to reach wrapped error")
	}

	if Transient(nil) != nil || Permanent(nil) != nil {
		t.Error("Expected nil passthrough")
	}
}

func TestUnmappableFieldError(t *testing.T) {
	err := &UnmappableFieldError{FieldID: "f1", Type: "visa_status", Confidence: 0.4}
	if !IsUnmappable(err) {
		t.Error("Expected IsUnmappable true")
	}
	if IsUnmappable(errors.New("other")) {
		t.Error("Expected IsUnmappable false for unrelated error")
	}
}

func TestFieldMappingResolvedValues(t *testing.T) {
	m := FieldMapping{Fields: []MappedField{
		{FieldID: "email", Type: "email", Confidence: 0.9, Value: "a@b.c", Resolved: true},
		{FieldID: "mystery", Type: "unknown", Confidence: 0.1, Resolved: false},
	}}

	values := m.ResolvedValues()
	if len(values) != 1 {
		t.Fatalf("Expected 1 resolved value, got %d", len(values))
	}
	if values["email"] != "a@b.c" {
		t.Errorf("Expected email value a@b.c, got %s", values["email"])
	}
}
