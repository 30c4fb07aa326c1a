package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/frontdesk/internal/models"
	"github.com/xaenox/frontdesk/internal/storage"
	"go.uber.org/zap"
)

// ActivityLogger writes the audit trail of attempted actions. Write failures
// are logged and dropped; they never affect the reply.
type ActivityLogger struct {
	store  storage.EventStorage
	now    func() time.Time
	logger *zap.Logger
}

func NewActivityLogger(store storage.EventStorage, logger *zap.Logger) *ActivityLogger {
	return &ActivityLogger{store: store, now: time.Now, logger: logger}
}

func (a *ActivityLogger) Record(ctx context.Context, projectID, action string, status models.ActivityStatus, input map[string]any, result models.ActionResult) {
	entry := &models.ActivityLog{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Action:    action,
		Status:    status,
		Input:     input,
		Result:    &result,
		CreatedAt: a.now(),
	}
	if err := a.store.AppendActivityLog(ctx, entry); err != nil {
		a.logger.Error("Failed to record activity",
			zap.Error(err),
			zap.String("project_id", projectID),
			zap.String("action", action),
			zap.String("status", string(status)))
	}
}
