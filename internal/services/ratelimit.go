// Package services – daily rate limiting.
//
// Two limiter instances gate the public write paths: one for new
// submissions (keyed by client IP) and one for author-access requests
// (keyed by email). Each keeps a per-UTC-day counter record in the
// metadata store with a 48 hour TTL, so yesterday's record stays
// readable for a day and then disappears on its own.
//
// The check and the record are separate calls with no lock between
// them. Under concurrency the limits are soft: a burst landing exactly
// at the boundary can exceed a limit by a few requests. The limits
// exist to stop abuse, not to account precisely, so this is acceptable.
package services

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/francocz/ai-theoretical.org/internal/domain"
	"github.com/francocz/ai-theoretical.org/internal/repo"
)

// Rate limiter scopes.
const (
	ScopeSubmission   = "submission"
	ScopeAuthorAccess = "author-access"
)

// Alerter receives usage alerts when a limiter nears or hits its global
// cap. *notify.Emails satisfies it.
type Alerter interface {
	RateLimitAlert(to, scope, level string, count, limit int, date string)
}

// RateLimiter enforces one scope's daily global and per-key limits.
// The zero Now means time.Now.
type RateLimiter struct {
	DB       *gorm.DB
	Scope    string
	Defaults domain.RateLimitConfig
	// GlobalMessage and PerKeyMessage become the user-facing refusal
	// reasons.
	GlobalMessage string
	PerKeyMessage string
	Alerts        Alerter
	Now           func() time.Time
}

// LimitStatus is the admin view of one limiter: its configuration plus
// today's counters.
type LimitStatus struct {
	Config domain.RateLimitConfig `json:"config"`
	Today  DayStatus              `json:"today"`
}

// DayStatus summarizes today's usage.
type DayStatus struct {
	Date        string `json:"date"`
	GlobalCount int    `json:"globalCount"`
	Remaining   int    `json:"remaining"`
	UniqueKeys  int    `json:"uniqueKeys"`
}

func (r *RateLimiter) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// dayKey formats t as the UTC date used to key daily records.
func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

// secondsToMidnightUTC returns the seconds remaining until the next UTC
// midnight, when daily counters reset.
func secondsToMidnightUTC(now time.Time) int {
	next := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	return int(math.Ceil(next.Sub(now.UTC()).Seconds()))
}

// Config returns the limiter's stored configuration, falling back to
// the defaults when none has been saved.
func (r *RateLimiter) Config(ctx context.Context) (domain.RateLimitConfig, error) {
	var cfg domain.RateLimitConfig
	err := repo.GetJSON(ctx, r.DB, repo.RateConfigKey(r.Scope), r.now(), &cfg)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return r.Defaults, nil
		}
		return domain.RateLimitConfig{}, err
	}
	return cfg, nil
}

// ConfigUpdate carries a partial configuration change; nil fields keep
// their current value.
type ConfigUpdate struct {
	DailyLimit  *int
	PerKeyLimit *int
	Enabled     *bool
	AlertEmail  *string
}

// UpdateConfig applies a partial update and persists the result.
func (r *RateLimiter) UpdateConfig(ctx context.Context, upd ConfigUpdate) (domain.RateLimitConfig, error) {
	cfg, err := r.Config(ctx)
	if err != nil {
		return domain.RateLimitConfig{}, err
	}
	if upd.DailyLimit != nil && *upd.DailyLimit > 0 {
		cfg.DailyLimit = *upd.DailyLimit
	}
	if upd.PerKeyLimit != nil && *upd.PerKeyLimit > 0 {
		cfg.PerKeyLimit = *upd.PerKeyLimit
	}
	if upd.Enabled != nil {
		cfg.Enabled = *upd.Enabled
	}
	if upd.AlertEmail != nil {
		cfg.AlertEmail = *upd.AlertEmail
	}
	if err := repo.PutJSON(ctx, r.DB, repo.RateConfigKey(r.Scope), cfg, r.now(), 0); err != nil {
		return domain.RateLimitConfig{}, err
	}
	return cfg, nil
}

// today loads (or initializes) today's counter record.
func (r *RateLimiter) today(ctx context.Context, now time.Time) (*domain.DailyCounter, error) {
	date := dayKey(now)
	var day domain.DailyCounter
	err := repo.GetJSON(ctx, r.DB, repo.RateDayKey(r.Scope, date), now, &day)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return &domain.DailyCounter{Date: date, Counts: map[string]int{}}, nil
		}
		return nil, err
	}
	if day.Counts == nil {
		day.Counts = map[string]int{}
	}
	return &day, nil
}

// Check reports whether a request identified by key (IP or email) is
// currently allowed. On refusal it returns a *RateLimitError carrying
// the retry-after hint; the counters are not touched.
func (r *RateLimiter) Check(ctx context.Context, key string) error {
	cfg, err := r.Config(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return nil
	}
	now := r.now()
	day, err := r.today(ctx, now)
	if err != nil {
		return err
	}
	if day.GlobalCount >= cfg.DailyLimit {
		rateLimitRejections.WithLabelValues(r.Scope, "global").Inc()
		return &RateLimitError{Reason: r.GlobalMessage, RetryAfter: secondsToMidnightUTC(now)}
	}
	if day.Counts[key] >= cfg.PerKeyLimit {
		rateLimitRejections.WithLabelValues(r.Scope, "per_key").Inc()
		return &RateLimitError{Reason: r.PerKeyMessage, RetryAfter: secondsToMidnightUTC(now)}
	}
	return nil
}

// Record counts one admitted request against key. Called only after all
// validation has passed, so rejected input never consumes quota. When
// the global count crosses 80% or 100% of the daily limit an alert is
// sent to the configured address.
func (r *RateLimiter) Record(ctx context.Context, key string) error {
	now := r.now()
	day, err := r.today(ctx, now)
	if err != nil {
		return err
	}
	day.GlobalCount++
	day.Counts[key]++
	if err := repo.PutJSON(ctx, r.DB, repo.RateDayKey(r.Scope, day.Date), day, now, 48*time.Hour); err != nil {
		return err
	}

	cfg, err := r.Config(ctx)
	if err != nil || cfg.AlertEmail == "" || r.Alerts == nil {
		return err
	}
	threshold80 := int(math.Ceil(float64(cfg.DailyLimit) * 0.8))
	switch day.GlobalCount {
	case cfg.DailyLimit:
		r.Alerts.RateLimitAlert(cfg.AlertEmail, r.Scope, "critical", day.GlobalCount, cfg.DailyLimit, day.Date)
	case threshold80:
		r.Alerts.RateLimitAlert(cfg.AlertEmail, r.Scope, "warning", day.GlobalCount, cfg.DailyLimit, day.Date)
	}
	return nil
}

// Status returns the admin view of the limiter.
func (r *RateLimiter) Status(ctx context.Context) (*LimitStatus, error) {
	cfg, err := r.Config(ctx)
	if err != nil {
		return nil, err
	}
	day, err := r.today(ctx, r.now())
	if err != nil {
		return nil, err
	}
	remaining := cfg.DailyLimit - day.GlobalCount
	if remaining < 0 {
		remaining = 0
	}
	return &LimitStatus{
		Config: cfg,
		Today: DayStatus{
			Date:        day.Date,
			GlobalCount: day.GlobalCount,
			Remaining:   remaining,
			UniqueKeys:  len(day.Counts),
		},
	}, nil
}
