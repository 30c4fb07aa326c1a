package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/frontdesk/internal/models"
)

func (h *handlers) scheduleFollowUp(ctx context.Context, payload map[string]any, actx ActionContext) (models.ActionResult, error) {
	hours := intArg(payload, "delay_hours", 24, 1, 24*30)
	executeAt := h.deps.Now().Add(time.Duration(hours) * time.Hour).UTC()

	task := &models.Task{
		ID:        uuid.New().String(),
		ProjectID: actx.Project.ID,
		Kind:      models.TaskFollowUp,
		ExecuteAt: executeAt,
		Status:    models.TaskPending,
		Context: map[string]any{
			"chat_id": actx.ChatID,
			"channel": actx.Channel,
			"note":    stringArg(payload, "note"),
		},
	}
	if err := h.deps.Store.InsertTask(ctx, task); err != nil {
		return models.ActionResult{}, fmt.Errorf("insert follow-up task: %w", err)
	}

	return models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Got it, I'll follow up on %s.", executeAt.Format("Mon, 02 Jan at 15:04 UTC")),
		Data:    map[string]any{"task_id": task.ID, "execute_at": executeAt.Format(time.RFC3339)},
	}, nil
}
