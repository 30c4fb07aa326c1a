package actions

import (
	"context"
	"fmt"

	"github.com/xaenox/frontdesk/internal/models"
	"go.uber.org/zap"
)

const (
	usageProfileDescription = "profile_description"

	// Google rejects longer descriptions.
	maxDescriptionRunes = 750
)

func (h *handlers) updateBusinessDescription(ctx context.Context, payload map[string]any, actx ActionContext) (models.ActionResult, error) {
	project := actx.Project

	description := stringArg(payload, "description")
	if description == "" {
		system := "You write Google Business Profile descriptions. Plain text only, at most 750 characters.\n" + businessBrief(project)
		text, ok, err := h.generate(ctx, project.ID, usageProfileDescription, system, "Write an improved description for this business.")
		if err != nil {
			return models.ActionResult{}, err
		}
		if !ok {
			return models.Failure(usageLimitMessage, "usage limit"), nil
		}
		description = text
	}
	if description == "" {
		return models.Failure("I couldn't write a new description this time. Please try again.", "empty description"), nil
	}
	if runes := []rune(description); len(runes) > maxDescriptionRunes {
		description = string(runes[:maxDescriptionRunes])
	}

	if _, err := h.deps.Store.UpsertProject(ctx, project.ID, models.ProjectPatch{BusinessDescription: &description}); err != nil {
		return models.ActionResult{}, fmt.Errorf("save description: %w", err)
	}

	synced := false
	msg := "Your business description has been updated."
	if h.deps.Profile != nil && project.GoogleConnected() {
		if err := h.deps.Profile.UpdateDescription(ctx, project.GoogleAccessToken, project.GoogleLocationName, description); err != nil {
			h.deps.Logger.Warn("Failed to push description to Google",
				zap.Error(err),
				zap.String("project_id", project.ID))
			msg = "Your business description was saved, but I couldn't update Google yet."
		} else {
			synced = true
			msg = "Your business description has been updated here and on Google."
		}
	}

	return models.ActionResult{
		Success: true,
		Message: msg,
		Data:    map[string]any{"description": description, "google_synced": synced},
	}, nil
}
