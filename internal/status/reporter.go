// Package status answers system-status questions from stored state only.
package status

import (
	"context"
	"fmt"

	"github.com/xaenox/frontdesk/internal/models"
	"github.com/xaenox/frontdesk/internal/quota"
	"github.com/xaenox/frontdesk/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SystemState is a point-in-time view of one project.
type SystemState struct {
	ProjectStatus     models.ProjectStatus
	GoogleConnected   bool
	TelegramConnected bool
	Features          []models.Feature

	Limits            quota.Limits
	ActionsThisMinute int
	ActionsToday      int
	UsageToday        int

	PendingTasks int
}

// MinuteRemaining is never negative.
func (s SystemState) MinuteRemaining() int {
	return max(s.Limits.ActionsPerMinute-s.ActionsThisMinute, 0)
}

func (s SystemState) DailyRemaining() int {
	return max(s.Limits.ActionsPerDay-s.ActionsToday, 0)
}

func (s SystemState) UsageRemaining() int {
	return max(s.Limits.UsagePerDay-s.UsageToday, 0)
}

// DefaultState is reported when stored state cannot be read: nothing
// connected, full quota, draft.
func DefaultState(limits quota.Limits) SystemState {
	return SystemState{ProjectStatus: models.ProjectDraft, Limits: limits}
}

// UsageReader reports window consumption without consuming anything.
type UsageReader interface {
	Usage(ctx context.Context, projectID string) ([]quota.WindowUsage, error)
}

type Store interface {
	storage.ProjectStorage
	storage.TaskStorage
}

type Reporter struct {
	store   Store
	actions UsageReader
	usage   UsageReader
	limits  quota.Limits
	logger  *zap.Logger
}

// NewReporter builds a reporter. actions must report the minute window
// first and the day window second, as quota.RateLimiter does.
func NewReporter(store Store, actions, usage UsageReader, limits quota.Limits, logger *zap.Logger) *Reporter {
	return &Reporter{
		store:   store,
		actions: actions,
		usage:   usage,
		limits:  limits,
		logger:  logger,
	}
}

// GetState reads the project, quota counters and pending tasks concurrently.
// Any failure yields DefaultState.
func (r *Reporter) GetState(ctx context.Context, projectID string) SystemState {
	var (
		project *models.Project
		actions []quota.WindowUsage
		usage   []quota.WindowUsage
		pending int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		project, err = r.store.GetProject(gctx, projectID)
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		actions, err = r.actions.Usage(gctx, projectID)
		if err != nil {
			return fmt.Errorf("action usage: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		usage, err = r.usage.Usage(gctx, projectID)
		if err != nil {
			return fmt.Errorf("completion usage: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		pending, err = r.store.CountPendingTasks(gctx, projectID)
		if err != nil {
			return fmt.Errorf("count pending tasks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn("Failed to read system state, reporting defaults",
			zap.Error(err),
			zap.String("project_id", projectID))
		return DefaultState(r.limits)
	}

	state := SystemState{
		ProjectStatus:     project.Status,
		GoogleConnected:   project.GoogleConnected(),
		TelegramConnected: project.TelegramConnected(),
		Features:          append([]models.Feature(nil), project.Features...),
		Limits:            r.limits,
		PendingTasks:      pending,
	}
	if len(actions) >= 2 {
		state.ActionsThisMinute = actions[0].Used
		state.ActionsToday = actions[1].Used
	}
	if len(usage) >= 1 {
		state.UsageToday = usage[0].Used
	}
	return state
}
