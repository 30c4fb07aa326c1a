package quota

import (
	"context"
	"time"

	"github.com/xaenox/frontdesk/internal/models"
	"github.com/xaenox/frontdesk/internal/storage"
	"go.uber.org/zap"
)

const (
	ReasonMinuteLimit = "minute_limit"
	ReasonDailyLimit  = "daily_limit"
)

// Limits holds the thresholds shared by the limiter, the guard and status reports.
type Limits struct {
	ActionsPerMinute int
	ActionsPerDay    int
	UsagePerDay      int
}

func DefaultLimits() Limits {
	return Limits{ActionsPerMinute: 5, ActionsPerDay: 100, UsagePerDay: 300}
}

// RateLimiter gates action execution per project with a minute and a day window.
// Chat replies are never rate limited.
type RateLimiter struct {
	gate *Gate
}

func NewRateLimiter(store storage.EventStorage, limits Limits, logger *zap.Logger, opts ...Option) *RateLimiter {
	windows := []Window{
		{Duration: time.Minute, Limit: limits.ActionsPerMinute, Reason: ReasonMinuteLimit},
		{Duration: 24 * time.Hour, Limit: limits.ActionsPerDay, Reason: ReasonDailyLimit},
	}
	return &RateLimiter{gate: NewGate(store, models.EventAction, windows, logger, opts...)}
}

// Check consumes one action slot when allowed.
func (r *RateLimiter) Check(ctx context.Context, projectID, action string) Decision {
	return r.gate.Allow(ctx, projectID, action)
}

// Usage returns the minute and day window snapshots, in that order.
func (r *RateLimiter) Usage(ctx context.Context, projectID string) ([]WindowUsage, error) {
	return r.gate.Usage(ctx, projectID)
}

// UsageGuard caps completion-provider calls made by action handlers at a daily
// total per project, across usage kinds.
type UsageGuard struct {
	gate *Gate
}

func NewUsageGuard(store storage.EventStorage, limits Limits, logger *zap.Logger, opts ...Option) *UsageGuard {
	windows := []Window{
		{Duration: 24 * time.Hour, Limit: limits.UsagePerDay, Reason: ReasonDailyLimit},
	}
	return &UsageGuard{gate: NewGate(store, models.EventUsage, windows, logger, opts...)}
}

// CheckAndTrack records one usage of kind when the daily quota allows it.
func (u *UsageGuard) CheckAndTrack(ctx context.Context, projectID, kind string) Decision {
	return u.gate.Allow(ctx, projectID, kind)
}

// Usage returns the daily window snapshot.
func (u *UsageGuard) Usage(ctx context.Context, projectID string) ([]WindowUsage, error) {
	return u.gate.Usage(ctx, projectID)
}
