package service

import (
	"context"

	"github.com/blake-osondu/jobdroid-service/model"
)

// SearchPage is one page of search results from a platform.
type SearchPage struct {
	Postings      []model.JobPosting
	NextPageToken string
}

// JobDetail is the parsed detail record for one posting, including the
// detected application form.
type JobDetail struct {
	Posting     model.JobPosting
	Description string
	Form        model.FormSchema
	Expired     bool
}

// SubmissionResult reports the outcome of a submitted application.
type SubmissionResult struct {
	Confirmed   bool
	ConfirmedID string
}

// PlatformAdapter is the four-operation contract every job platform
// implements. The orchestrator treats adapters uniformly; adding a
// platform means implementing this interface, nothing more. Each method
// fails with errors classified model.Transient or model.Permanent so the
// state machine can apply its retry policy.
type PlatformAdapter interface {
	// Platform names the platform for budgeting and dedup keys.
	Platform() string

	// SearchJobs returns a page of postings matching the preferences.
	// An empty next-page token ends pagination.
	SearchJobs(ctx context.Context, prefs model.Preferences, pageToken string, session Session) (SearchPage, error)

	// ParseJobDetails loads the posting's detail record and application
	// form.
	ParseJobDetails(ctx context.Context, posting model.JobPosting, session Session) (JobDetail, error)

	// ValidatePosting screens out expired or irrelevant postings before
	// an attempt is spent on them.
	ValidatePosting(ctx context.Context, detail JobDetail) bool

	// SubmitApplication submits the mapped form for the posting.
	SubmitApplication(ctx context.Context, detail JobDetail, mapping model.FieldMapping, session Session) (SubmissionResult, error)
}
