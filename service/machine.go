package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blake-osondu/jobdroid-service/config"
	"github.com/blake-osondu/jobdroid-service/model"
	"github.com/blake-osondu/jobdroid-service/pkg/logger"
	"github.com/google/uuid"
)

// errRunStopped signals the loop that the run was stopped at a
// checkpoint. It never escapes the machine.
var errRunStopped = errors.New("run stopped")

// backoffCap limits retry spacing to this multiple of the base delay.
const backoffCap = 5

// AttemptHistory persists terminal attempts for idempotent resume.
// *RunStore implements it; a nil history disables persistence.
type AttemptHistory interface {
	Record(userID string, attempt model.ApplicationAttempt) error
	Terminal(userID string) (map[string]model.ApplicationAttempt, error)
}

// Machine drives one user's end-to-end application run: search, filter,
// paced submission attempts, completion. All state it mutates is its
// own; callers observe it only through Status snapshots.
type Machine struct {
	userID   string
	runID    string
	profile  model.ApplicantProfile
	adapters []PlatformAdapter

	scheduler *Scheduler
	mapper    *FieldMapper
	history   AttemptHistory
	cfg       *config.AutomationConfig

	mu     sync.Mutex
	cond   *sync.Cond
	status string
	prefs  model.Preferences
	// attempts holds this run's attempts; applied holds keys that are
	// settled and must not be attempted again, including history from
	// earlier runs.
	attempts       map[string]*model.ApplicationAttempt
	applied        map[string]bool
	submittedToday int
	lastAction     time.Time
	startedAt      time.Time
	lastErr        string

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMachine creates an idle machine for one user.
func NewMachine(userID string, profile model.ApplicantProfile, adapters []PlatformAdapter, scheduler *Scheduler, mapper *FieldMapper, history AttemptHistory, cfg *config.AutomationConfig) *Machine {
	m := &Machine{
		userID:    userID,
		runID:     uuid.New().String(),
		profile:   profile,
		adapters:  adapters,
		scheduler: scheduler,
		mapper:    mapper,
		history:   history,
		cfg:       cfg,
		status:    model.RunIdle,
		attempts:  make(map[string]*model.ApplicationAttempt),
		applied:   make(map[string]bool),
		done:      make(chan struct{}),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// RunID returns the machine's run identifier.
func (m *Machine) RunID() string { return m.runID }

// Start begins the search-filter-apply loop. Valid only from idle.
func (m *Machine) Start(prefs model.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != model.RunIdle {
		return &model.InvalidStateError{Op: "start", Status: m.status}
	}

	if m.history != nil {
		settled, err := m.history.Terminal(m.userID)
		if err != nil {
			return fmt.Errorf("load attempt history: %w", err)
		}
		for key := range settled {
			m.applied[key] = true
		}
	}

	m.status = model.RunRunning
	m.prefs = prefs
	m.startedAt = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	ctx = context.WithValue(ctx, logger.UserIDKey, m.userID)
	m.cancel = cancel

	go m.run(ctx)
	return nil
}

// Pause suspends the loop at its next checkpoint without losing state.
func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != model.RunRunning {
		return &model.InvalidStateError{Op: "pause", Status: m.status}
	}
	m.status = model.RunPaused
	return nil
}

// Resume continues a paused loop.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != model.RunPaused {
		return &model.InvalidStateError{Op: "resume", Status: m.status}
	}
	m.status = model.RunRunning
	m.cond.Broadcast()
	return nil
}

// Stop halts the run at the next checkpoint. In-flight submissions are
// never interrupted; not-yet-settled attempts stay pending for later
// resumption. Valid from any non-terminal state.
func (m *Machine) Stop() error {
	m.mu.Lock()

	switch m.status {
	case model.RunStopped, model.RunCompleted, model.RunErrored:
		status := m.status
		m.mu.Unlock()
		return &model.InvalidStateError{Op: "stop", Status: status}
	case model.RunIdle:
		m.status = model.RunStopped
		close(m.done)
		m.mu.Unlock()
		return nil
	}

	m.status = model.RunStopped
	cancel := m.cancel
	m.cond.Broadcast()
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// Status returns a read-only snapshot of the run. Safe to call
// concurrently from any state.
func (m *Machine) Status() model.RunSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := model.RunSnapshot{
		RunID:          m.runID,
		UserID:         m.userID,
		Status:         m.status,
		SubmittedToday: m.submittedToday,
		LastActionTime: m.lastAction,
		StartedAt:      m.startedAt,
		LastError:      m.lastErr,
	}
	for _, a := range m.attempts {
		snap.Attempts = append(snap.Attempts, *a)
		switch a.Status {
		case model.AttemptSubmitted:
			snap.Submitted++
		case model.AttemptFailed:
			snap.Failed++
		case model.AttemptSkipped:
			snap.Skipped++
		default:
			snap.Pending++
		}
	}
	if settled := snap.Submitted + snap.Failed + snap.Skipped; settled > 0 {
		snap.SuccessRate = float64(snap.Submitted) / float64(settled)
	}
	return snap
}

// Done is closed when the run reaches a terminal state.
func (m *Machine) Done() <-chan struct{} { return m.done }

func (m *Machine) run(ctx context.Context) {
	err := m.loop(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer close(m.done)
	defer m.cond.Broadcast()

	switch {
	case m.status == model.RunStopped || errors.Is(err, errRunStopped):
		m.status = model.RunStopped
	case err != nil:
		m.status = model.RunErrored
		m.lastErr = err.Error()
		logger.Error(ctx, "run errored", "error", err)
	default:
		m.status = model.RunCompleted
		logger.Info(ctx, "run completed",
			"submitted", m.submittedToday,
			"attempts", len(m.attempts),
		)
	}
}

func (m *Machine) loop(ctx context.Context) error {
	for _, adapter := range m.adapters {
		if !m.platformEnabled(adapter.Platform()) {
			continue
		}
		pctx := context.WithValue(ctx, logger.PlatformKey, adapter.Platform())
		if err := m.processPlatform(pctx, adapter); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) platformEnabled(platform string) bool {
	if len(m.prefs.Platforms) == 0 {
		return true
	}
	for _, p := range m.prefs.Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// processPlatform pages through search results and applies to every
// surviving posting. Transient search failures abandon the platform for
// this run; permanent ones (bad credentials, revoked access) error the
// whole run.
func (m *Machine) processPlatform(ctx context.Context, adapter PlatformAdapter) error {
	pageToken := ""
	for {
		if err := m.checkpoint(ctx); err != nil {
			return err
		}

		session := m.scheduler.CurrentSession()
		page, err := adapter.SearchJobs(ctx, m.prefs, pageToken, session)
		if err != nil {
			if model.IsTransient(err) {
				logger.Warn(ctx, "job search failed, abandoning platform for this run", "error", err)
				m.scheduler.ReportFailure(session)
				return nil
			}
			return fmt.Errorf("job search on %s: %w", adapter.Platform(), err)
		}

		for i := 0; i < len(page.Postings); {
			posting := page.Postings[i]
			if err := m.checkpoint(ctx); err != nil {
				return err
			}

			attempt, ok := m.admit(posting)
			if !ok {
				i++
				continue
			}

			err := m.processJob(ctx, adapter, posting, attempt)
			switch {
			case errors.Is(err, model.ErrBudgetExhausted):
				// The attempt stays pending. Pause until resumed, then
				// retry the same posting.
				logger.Info(ctx, "daily budget exhausted, pausing run", "job_id", posting.ID)
				m.pauseSelf()
			case err != nil:
				return err
			default:
				i++
			}
		}

		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

// admit dedups the posting and runs it through the preference filters.
// It returns the (new or resumed) pending attempt when the posting
// should be applied to.
func (m *Machine) admit(posting model.JobPosting) (*model.ApplicationAttempt, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := posting.Key()
	if m.applied[key] {
		return nil, false
	}
	if existing, ok := m.attempts[key]; ok {
		if existing.Terminal() {
			return nil, false
		}
		return existing, true
	}
	if !MatchesPreferences(posting, m.prefs) {
		return nil, false
	}

	now := time.Now()
	attempt := &model.ApplicationAttempt{
		JobID:     posting.ID,
		Platform:  posting.Platform,
		Title:     posting.Title,
		Company:   posting.Company,
		Status:    model.AttemptPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.attempts[key] = attempt
	return attempt, true
}

// processJob runs one submission attempt end to end: token, details,
// validation, mapping, submit-with-retry. Adapter and mapper errors are
// translated into attempt status updates and never crash the run.
func (m *Machine) processJob(ctx context.Context, adapter PlatformAdapter, posting model.JobPosting, attempt *model.ApplicationAttempt) error {
	token, err := m.scheduler.Acquire(ctx, adapter.Platform())
	if err != nil {
		if errors.Is(err, model.ErrBudgetExhausted) {
			return err
		}
		return errRunStopped // acquire was cancelled by stop
	}

	detail, err := adapter.ParseJobDetails(ctx, posting, token.Session)
	if err != nil {
		// Only a permanent failure settles the attempt. A transient one
		// leaves it pending so a later run can try the job again.
		if model.IsTransient(err) {
			logger.Warn(ctx, "failed to parse job details, leaving attempt pending", "job_id", posting.ID, "error", err)
			m.noteError(attempt, err)
			return nil
		}
		logger.Warn(ctx, "failed to parse job details", "job_id", posting.ID, "error", err)
		m.settle(attempt, model.AttemptFailed, err.Error())
		return nil
	}

	if !adapter.ValidatePosting(ctx, detail) {
		m.settle(attempt, model.AttemptSkipped, "posting failed validation")
		return nil
	}

	mapping, err := m.mapper.Map(ctx, detail.Form, m.profile)
	if err != nil {
		if model.IsUnmappable(err) {
			logger.Info(ctx, "skipping job with unmappable form", "job_id", posting.ID, "error", err)
			m.settle(attempt, model.AttemptSkipped, err.Error())
			return nil
		}
		m.settle(attempt, model.AttemptFailed, err.Error())
		return nil
	}

	if err := token.Use(); err != nil {
		return fmt.Errorf("permission token: %w", err)
	}

	return m.submitWithRetry(ctx, adapter, detail, mapping, token, attempt)
}

// submitWithRetry performs the submission, retrying transient failures
// with exponential backoff. Stop and pause take effect between tries,
// never during a submission: the submit call itself runs on a context
// that survives Stop's cancellation, so the platform never sees a
// half-sent form.
func (m *Machine) submitWithRetry(ctx context.Context, adapter PlatformAdapter, detail JobDetail, mapping model.FieldMapping, token *PermissionToken, attempt *model.ApplicationAttempt) error {
	submitCtx := context.WithoutCancel(ctx)
	for try := 1; ; try++ {
		if err := m.checkpoint(ctx); err != nil {
			return err
		}

		m.noteTry(attempt)
		result, err := adapter.SubmitApplication(submitCtx, detail, mapping, token.Session)
		if err == nil {
			m.scheduler.ReportSuccess(token.Session)
			m.recordSubmission(attempt)
			logger.Info(ctx, "application submitted",
				"job_id", attempt.JobID,
				"company", attempt.Company,
				"confirmed_id", result.ConfirmedID,
			)
			return nil
		}

		if model.IsPermanent(err) {
			logger.Warn(ctx, "application rejected", "job_id", attempt.JobID, "error", err)
			m.settle(attempt, model.AttemptFailed, err.Error())
			return nil
		}

		// A transient submit failure counts against the session's proxy.
		m.scheduler.ReportFailure(token.Session)

		if try > m.cfg.MaxRetryAttempts {
			logger.Warn(ctx, "application failed after retries",
				"job_id", attempt.JobID,
				"tries", try,
				"error", err,
			)
			m.settle(attempt, model.AttemptFailed, err.Error())
			return nil
		}

		if err := m.sleep(ctx, m.backoff(try)); err != nil {
			return err
		}
	}
}

// backoff returns the wait before retry number try (1-based): the base
// delay doubled per retry, capped at backoffCap times the base.
func (m *Machine) backoff(try int) time.Duration {
	base := m.cfg.DelayBetweenApplications
	wait := base
	for i := 1; i < try; i++ {
		wait *= 2
		if wait >= backoffCap*base {
			return backoffCap * base
		}
	}
	if wait > backoffCap*base {
		wait = backoffCap * base
	}
	return wait
}

// checkpoint is the safe boundary where pause and stop take effect. It
// blocks while the run is paused and reports errRunStopped once the run
// is no longer running.
func (m *Machine) checkpoint(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.status == model.RunPaused {
		m.cond.Wait()
	}
	if m.status != model.RunRunning || ctx.Err() != nil {
		return errRunStopped
	}
	return nil
}

// pauseSelf moves a running loop to paused, used when the daily budget
// runs out. The next checkpoint blocks until Resume or Stop.
func (m *Machine) pauseSelf() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == model.RunRunning {
		m.status = model.RunPaused
	}
}

func (m *Machine) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errRunStopped
	case <-timer.C:
		return nil
	}
}

func (m *Machine) noteTry(attempt *model.ApplicationAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt.AttemptCount++
	attempt.UpdatedAt = time.Now()
	m.lastAction = time.Now()
}

// noteError records a non-terminal failure on a pending attempt. The
// attempt is neither settled nor persisted, so a later run sees the job
// as never applied to.
func (m *Machine) noteError(attempt *model.ApplicationAttempt, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt.LastError = err.Error()
	attempt.UpdatedAt = time.Now()
	m.lastAction = time.Now()
}

func (m *Machine) recordSubmission(attempt *model.ApplicationAttempt) {
	m.mu.Lock()
	attempt.Status = model.AttemptSubmitted
	attempt.LastError = ""
	attempt.UpdatedAt = time.Now()
	m.applied[attempt.Key()] = true
	m.submittedToday++
	m.lastAction = time.Now()
	m.mu.Unlock()

	m.persist(attempt)
}

// settle moves an attempt to a terminal status and persists it.
func (m *Machine) settle(attempt *model.ApplicationAttempt, status, errMsg string) {
	m.mu.Lock()
	attempt.Status = status
	attempt.LastError = errMsg
	attempt.UpdatedAt = time.Now()
	if status == model.AttemptSubmitted || status == model.AttemptFailed {
		m.applied[attempt.Key()] = true
	}
	m.lastAction = time.Now()
	m.mu.Unlock()

	m.persist(attempt)
}

func (m *Machine) persist(attempt *model.ApplicationAttempt) {
	if m.history == nil {
		return
	}
	if err := m.history.Record(m.userID, *attempt); err != nil {
		logger.Error(context.Background(), "failed to persist attempt",
			"user_id", m.userID,
			"job_id", attempt.JobID,
			"error", err,
		)
	}
}
