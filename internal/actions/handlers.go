package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/xaenox/frontdesk/internal/completion"
	"github.com/xaenox/frontdesk/internal/models"
	"go.uber.org/zap"
)

const usageLimitMessage = "The daily AI usage limit for this business has been reached. Please try again tomorrow."

type handlers struct {
	deps Deps
}

// generate consults the usage guard and then asks the provider once.
// ok is false when the guard denied the call.
func (h *handlers) generate(ctx context.Context, projectID, usageKind, system, user string) (text string, ok bool, err error) {
	if d := h.deps.Guard.CheckAndTrack(ctx, projectID, usageKind); !d.Allowed {
		h.deps.Logger.Info("Usage limit reached",
			zap.String("project_id", projectID),
			zap.String("usage_kind", usageKind),
			zap.String("reason", d.Reason))
		return "", false, nil
	}

	text, err = h.deps.Provider.Complete(ctx, []completion.Message{
		{Role: completion.RoleSystem, Content: system},
		{Role: completion.RoleUser, Content: user},
	})
	if err != nil {
		return "", true, fmt.Errorf("completion for %s: %w", usageKind, err)
	}
	return strings.TrimSpace(text), true, nil
}

func businessBrief(p *models.Project) string {
	var sb strings.Builder
	name := p.BusinessName
	if name == "" {
		name = "the business"
	}
	sb.WriteString("Business: " + name)
	if p.BusinessCategory != "" {
		sb.WriteString("\nCategory: " + p.BusinessCategory)
	}
	if p.BusinessLocation != "" {
		sb.WriteString("\nLocation: " + p.BusinessLocation)
	}
	if p.BusinessDescription != "" {
		sb.WriteString("\nAbout: " + p.BusinessDescription)
	}
	return sb.String()
}
