package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/blake-osondu/jobdroid-service/config"
	"github.com/google/uuid"
)

// jitterFraction is the band applied around the configured delay between
// applications (±20%).
const jitterFraction = 0.2

// Session is the outbound identity handed to platform adapters. Rotation
// produces a new Session; tokens already issued keep the one they were
// granted with, so in-flight attempts are never interrupted.
type Session struct {
	ID    string
	Proxy *Proxy
}

// PermissionToken is a one-time grant authorizing a single rate-limited
// action on a platform.
type PermissionToken struct {
	Platform  string
	Session   Session
	GrantedAt time.Time

	mu   sync.Mutex
	used bool
}

// Use consumes the token. It fails on the second call.
func (t *PermissionToken) Use() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.used {
		return errors.New("permission token already used")
	}
	t.used = true
	return nil
}

// Scheduler paces automated actions so they look unautomated: it spaces
// grants with jittered delays, enforces the per-platform daily ceiling,
// and rotates the outbound session identity after a number of actions or
// an elapsed interval, whichever comes first.
type Scheduler struct {
	budget  *RateBudget
	proxies *ProxyPool

	minDelay    time.Duration
	rotateAfter int
	rotateEvery time.Duration

	mu           sync.Mutex
	session      Session
	actionCount  int
	lastRotation time.Time
	rng          *rand.Rand
}

// NewScheduler creates a scheduler from configuration, owning the given
// rate budget and proxy pool.
func NewScheduler(cfg *config.AutomationConfig, budget *RateBudget, proxies *ProxyPool) *Scheduler {
	s := &Scheduler{
		budget:       budget,
		proxies:      proxies,
		minDelay:     cfg.DelayBetweenApplications,
		rotateAfter:  cfg.RotationAfterActions,
		rotateEvery:  cfg.RotationInterval,
		lastRotation: time.Now(),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.session = s.newSession()
	return s
}

// Acquire blocks until the platform's minimum spacing has elapsed, then
// returns a single-use token. It fails immediately with
// model.ErrBudgetExhausted when the daily ceiling is reached, and with
// ctx.Err() when the caller is cancelled mid-wait.
func (s *Scheduler) Acquire(ctx context.Context, platform string) (*PermissionToken, error) {
	for {
		wait, err := s.budget.reserve(platform, s.jitteredDelay(), time.Now())
		if err != nil {
			return nil, err
		}
		if wait == 0 {
			session := s.advance()
			return &PermissionToken{
				Platform:  platform,
				Session:   session,
				GrantedAt: time.Now(),
			}, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// CurrentSession returns the session identity for non-grant actions such
// as job searches.
func (s *Scheduler) CurrentSession() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Remaining reports how many applications the platform may still submit
// in the current window.
func (s *Scheduler) Remaining(platform string) int {
	return s.budget.Remaining(platform)
}

// ReportFailure tells the scheduler that the session's proxy misbehaved,
// so the next rotation avoids it.
func (s *Scheduler) ReportFailure(session Session) {
	if session.Proxy != nil {
		s.proxies.MarkFailed(session.Proxy)
	}
}

// ReportSuccess tells the scheduler that the session's proxy carried a
// submission through, clearing any accumulated failures.
func (s *Scheduler) ReportSuccess(session Session) {
	if session.Proxy != nil {
		s.proxies.MarkWorking(session.Proxy)
	}
}

// jitteredDelay returns the configured delay with uniform ±20% jitter.
// The budget floors the effective spacing at the configured delay.
func (s *Scheduler) jitteredDelay() time.Duration {
	if s.minDelay <= 0 {
		return 0
	}
	s.mu.Lock()
	factor := 1 - jitterFraction + 2*jitterFraction*s.rng.Float64()
	s.mu.Unlock()
	return time.Duration(float64(s.minDelay) * factor)
}

// advance counts one granted action and rotates the session identity when
// either rotation trigger fires.
func (s *Scheduler) advance() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actionCount++
	byCount := s.rotateAfter > 0 && s.actionCount >= s.rotateAfter
	byTime := s.rotateEvery > 0 && time.Since(s.lastRotation) >= s.rotateEvery
	if byCount || byTime {
		s.session = s.newSession()
		s.actionCount = 0
		s.lastRotation = time.Now()
		slog.Debug("session rotated",
			"session_id", s.session.ID,
			"by_count", byCount,
			"by_time", byTime,
		)
	}
	return s.session
}

// newSession builds a fresh identity backed by the next healthy proxy.
// Must be called with s.mu held (or before the scheduler is shared).
func (s *Scheduler) newSession() Session {
	return Session{
		ID:    uuid.New().String(),
		Proxy: s.proxies.Next(),
	}
}
