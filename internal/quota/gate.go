// Package quota enforces sliding-window limits over the append-only event log.
//
// Every check fails open: a store error while counting allows the operation,
// because a miscounted quota is cheaper than refusing a paying tenant.
// Counting then appending is not atomic, so concurrent callers can overshoot
// a limit slightly.
package quota

import (
	"context"
	"time"

	"github.com/xaenox/frontdesk/internal/models"
	"github.com/xaenox/frontdesk/internal/storage"
	"go.uber.org/zap"
)

// Window is one trailing-duration limit.
type Window struct {
	Duration time.Duration
	Limit    int
	// Reason is reported when this window denies.
	Reason string
}

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Gate counts events of one category over a list of windows, checked in order.
type Gate struct {
	store    storage.EventStorage
	category models.EventCategory
	windows  []Window
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Gate)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func NewGate(store storage.EventStorage, category models.EventCategory, windows []Window, logger *zap.Logger, opts ...Option) *Gate {
	g := &Gate{
		store:    store,
		category: category,
		windows:  windows,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow checks every window and, when all pass, records one event named name.
func (g *Gate) Allow(ctx context.Context, projectID, name string) Decision {
	now := g.now()
	for _, w := range g.windows {
		count, err := g.store.CountEvents(ctx, projectID, g.category, now.Add(-w.Duration))
		if err != nil {
			g.logger.Warn("Quota count failed, allowing",
				zap.Error(err),
				zap.String("project_id", projectID),
				zap.String("category", string(g.category)),
				zap.Duration("window", w.Duration))
			return Decision{Allowed: true}
		}
		if count >= w.Limit {
			return Decision{Allowed: false, Reason: w.Reason}
		}
	}

	// Recording is the consumption; it happens before the guarded work runs.
	event := models.Event{ProjectID: projectID, Category: g.category, Name: name, At: now}
	if err := g.store.AppendEvent(ctx, event); err != nil {
		g.logger.Error("Failed to record quota event",
			zap.Error(err),
			zap.String("project_id", projectID),
			zap.String("category", string(g.category)),
			zap.String("name", name))
	}
	return Decision{Allowed: true}
}

// Usage reports the event count for each window, and the remaining allowance.
// It is read-only and returns the first store error it meets.
func (g *Gate) Usage(ctx context.Context, projectID string) ([]WindowUsage, error) {
	now := g.now()
	out := make([]WindowUsage, 0, len(g.windows))
	for _, w := range g.windows {
		count, err := g.store.CountEvents(ctx, projectID, g.category, now.Add(-w.Duration))
		if err != nil {
			return nil, err
		}
		out = append(out, WindowUsage{Window: w, Used: count, Remaining: max(w.Limit-count, 0)})
	}
	return out, nil
}

// WindowUsage is a snapshot of one window's consumption.
type WindowUsage struct {
	Window
	Used      int
	Remaining int
}
