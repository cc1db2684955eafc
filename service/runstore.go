package service

import (
	"fmt"
	"time"

	"github.com/blake-osondu/jobdroid-service/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptRecord is the persisted form of a terminal ApplicationAttempt.
// One row exists per (user, platform, job); rows with a submitted or
// failed status are never re-attempted, even across process restarts.
type AttemptRecord struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       string `gorm:"index:idx_user_job,unique"`
	Platform     string `gorm:"index:idx_user_job,unique"`
	JobID        string `gorm:"index:idx_user_job,unique"`
	Title        string
	Company      string
	Status       string
	AttemptCount int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RunStore persists attempt history so runs resume idempotently.
type RunStore struct {
	db *gorm.DB
}

// OpenRunStore opens (and migrates) the attempt history database.
func OpenRunStore(path string) (*RunStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}

	if err := db.AutoMigrate(&AttemptRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate run store: %w", err)
	}

	return &RunStore{db: db}, nil
}

// Record upserts the attempt for its (user, platform, job) key.
func (s *RunStore) Record(userID string, attempt model.ApplicationAttempt) error {
	record := AttemptRecord{
		UserID:       userID,
		Platform:     attempt.Platform,
		JobID:        attempt.JobID,
		Title:        attempt.Title,
		Company:      attempt.Company,
		Status:       attempt.Status,
		AttemptCount: attempt.AttemptCount,
		LastError:    attempt.LastError,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "platform"}, {Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "attempt_count", "last_error", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// Terminal returns the user's submitted and failed attempts, keyed by
// posting. A new run seeds its dedup set from this so those jobs are
// never tried again.
func (s *RunStore) Terminal(userID string) (map[string]model.ApplicationAttempt, error) {
	var records []AttemptRecord
	err := s.db.
		Where("user_id = ? AND status IN ?", userID, []string{model.AttemptSubmitted, model.AttemptFailed}).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history: %w", err)
	}

	out := make(map[string]model.ApplicationAttempt, len(records))
	for _, r := range records {
		attempt := model.ApplicationAttempt{
			JobID:        r.JobID,
			Platform:     r.Platform,
			Title:        r.Title,
			Company:      r.Company,
			Status:       r.Status,
			AttemptCount: r.AttemptCount,
			LastError:    r.LastError,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		}
		out[attempt.Key()] = attempt
	}
	return out, nil
}
