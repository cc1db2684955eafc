package model

import (
	"fmt"
	"time"
)

// JobPosting represents a job listing discovered on a platform.
// Identity is (Platform, ID); postings are deduplicated by that key
// within a run.
type JobPosting struct {
	ID          string            `json:"id"`
	Platform    string            `json:"platform"`
	Title       string            `json:"title"`
	Company     string            `json:"company"`
	Location    string            `json:"location"`
	Salary      int               `json:"salary,omitempty"` // annual, 0 = unknown
	URL         string            `json:"url"`
	Experience  string            `json:"experience_level,omitempty"`
	PostedAt    time.Time         `json:"posted_at,omitempty"`
	RawMetadata map[string]string `json:"raw_metadata,omitempty"`
}

// Key returns the dedup key for a posting.
func (p JobPosting) Key() string {
	return fmt.Sprintf("%s:%s", p.Platform, p.ID)
}

// Preferences describe what jobs a user wants applied to.
type Preferences struct {
	Titles          []string `json:"titles"`
	Locations       []string `json:"locations"`
	MinSalary       int      `json:"min_salary,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	Platforms       []string `json:"platforms,omitempty"`
}

// ApplicantProfile holds the resume data used to fill application forms.
// It is owned by the caller and never mutated by a run.
type ApplicantProfile struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Location          string `json:"location"`
	LinkedInURL       string `json:"linkedin_url,omitempty"`
	Summary           string `json:"summary,omitempty"`
	Education         string `json:"education,omitempty"`
	ExperienceYears   int    `json:"experience_years,omitempty"`
	SalaryExpectation int    `json:"salary_expectation,omitempty"`
	CoverLetter       string `json:"cover_letter,omitempty"`
	ResumeObject      string `json:"resume_object,omitempty"` // object name in resume storage
}

// FullName returns the applicant's display name.
func (p ApplicantProfile) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ApplicationAttempt status constants
const (
	AttemptPending   = "pending"
	AttemptSubmitted = "submitted"
	AttemptFailed    = "failed"
	AttemptSkipped   = "skipped"
)

// ApplicationAttempt records one submission try (or skip) against a posting.
// At most one exists per posting per run; it is terminal once the status is
// submitted, failed, or skipped.
type ApplicationAttempt struct {
	JobID        string    `json:"job_id"`
	Platform     string    `json:"platform"`
	Title        string    `json:"title,omitempty"`
	Company      string    `json:"company,omitempty"`
	Status       string    `json:"status"`
	AttemptCount int       `json:"attempt_count"`
	LastError    string    `json:"last_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Key returns the dedup key of the posting this attempt belongs to.
func (a ApplicationAttempt) Key() string {
	return fmt.Sprintf("%s:%s", a.Platform, a.JobID)
}

// Terminal reports whether the attempt can no longer change.
func (a ApplicationAttempt) Terminal() bool {
	switch a.Status {
	case AttemptSubmitted, AttemptFailed, AttemptSkipped:
		return true
	}
	return false
}

// Run status constants
const (
	RunIdle      = "idle"
	RunRunning   = "running"
	RunPaused    = "paused"
	RunStopped   = "stopped"
	RunCompleted = "completed"
	RunErrored   = "errored"
)

// RunSnapshot is the read-only view of a run's state returned by status
// queries. It is a copy; mutating it has no effect on the run.
type RunSnapshot struct {
	RunID          string               `json:"run_id"`
	UserID         string               `json:"user_id"`
	Status         string               `json:"status"`
	Submitted      int                  `json:"submitted"`
	Failed         int                  `json:"failed"`
	Skipped        int                  `json:"skipped"`
	Pending        int                  `json:"pending"`
	SubmittedToday int                  `json:"submitted_today"`
	SuccessRate    float64              `json:"success_rate"`
	LastActionTime time.Time            `json:"last_action_time,omitempty"`
	StartedAt      time.Time            `json:"started_at,omitempty"`
	LastError      string               `json:"last_error,omitempty"`
	Attempts       []ApplicationAttempt `json:"attempts,omitempty"`
}
