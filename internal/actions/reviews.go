package actions

import (
	"context"
	"fmt"

	"github.com/xaenox/frontdesk/internal/gbp"
	"github.com/xaenox/frontdesk/internal/models"
	"go.uber.org/zap"
)

const usageReviewReply = "review_reply"

func (h *handlers) replyGoogleReviews(ctx context.Context, payload map[string]any, actx ActionContext) (models.ActionResult, error) {
	project := actx.Project
	if h.deps.Profile == nil || !project.GoogleConnected() {
		return models.Failure("Google Business Profile is not connected yet. Connect it from the dashboard first.", "google not connected"), nil
	}
	limit := intArg(payload, "limit", 3, 1, 10)

	reviews, err := h.deps.Profile.ListReviews(ctx, project.GoogleAccessToken, project.GoogleLocationName)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("list reviews: %w", err)
	}

	var pending []gbp.Review
	for _, r := range reviews {
		if !r.Replied() {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		return models.ActionResult{Success: true, Message: "All your Google reviews already have replies.", Data: map[string]any{"replied": 0}}, nil
	}

	system := "You reply to Google reviews on behalf of the owner. Be warm, specific and brief (under 80 words). Plain text only.\n" + businessBrief(project)
	replied, failed, limited := 0, 0, false
	for _, r := range pending[:min(limit, len(pending))] {
		prompt := fmt.Sprintf("Reviewer: %s\nRating: %d/5\nReview: %s\nWrite the reply.", r.Reviewer.DisplayName, r.Stars(), r.Comment)
		text, ok, err := h.generate(ctx, project.ID, usageReviewReply, system, prompt)
		if !ok {
			limited = true
			break
		}
		if err != nil || text == "" {
			h.deps.Logger.Warn("Failed to draft review reply", zap.Error(err), zap.String("review", r.Name))
			failed++
			continue
		}
		if err := h.deps.Profile.ReplyToReview(ctx, project.GoogleAccessToken, r.Name, text); err != nil {
			h.deps.Logger.Warn("Failed to post review reply", zap.Error(err), zap.String("review", r.Name))
			failed++
			continue
		}
		replied++
	}

	data := map[string]any{"replied": replied, "failed": failed, "pending": len(pending) - replied}
	switch {
	case replied == 0 && limited:
		return models.ActionResult{Success: false, Message: usageLimitMessage, Data: data, Error: "usage limit"}, nil
	case replied == 0:
		return models.ActionResult{Success: false, Message: "I couldn't reply to your reviews right now. Please try again later.", Data: data, Error: "no replies posted"}, nil
	}
	msg := fmt.Sprintf("Replied to %d of %d unanswered reviews.", replied, len(pending))
	if limited {
		msg += " The daily AI usage limit stopped me from doing more."
	}
	return models.ActionResult{Success: true, Message: msg, Data: data}, nil
}
