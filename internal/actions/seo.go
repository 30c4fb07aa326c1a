package actions

import (
	"context"
	"fmt"

	"github.com/xaenox/frontdesk/internal/models"
)

const usageSEOGeneration = "seo_generation"

type seoKind int

const (
	seoPost seoKind = iota
	seoDescription
	seoKeywords
)

func seoRequest(kind seoKind, payload map[string]any) string {
	switch kind {
	case seoPost:
		topic := stringArg(payload, "topic")
		if topic == "" {
			topic = "what makes the business worth visiting this week"
		}
		return fmt.Sprintf("Write a Google Business Profile post of at most 1500 characters about: %s. End with a call to action.", topic)
	case seoDescription:
		req := "Write a business description of at most 750 characters that reads naturally and mentions the category and location."
		if focus := stringArg(payload, "focus"); focus != "" {
			req += " Emphasize: " + focus + "."
		}
		return req
	default:
		n := intArg(payload, "count", 10, 3, 30)
		return fmt.Sprintf("Suggest %d search keywords customers would use to find this business, as a comma-separated list.", n)
	}
}

func (h *handlers) generateSEO(kind seoKind) Handler {
	return func(ctx context.Context, payload map[string]any, actx ActionContext) (models.ActionResult, error) {
		project := actx.Project
		system := "You write marketing copy for local businesses. Use plain text without markdown.\n" + businessBrief(project)

		text, ok, err := h.generate(ctx, project.ID, usageSEOGeneration, system, seoRequest(kind, payload))
		if err != nil {
			return models.ActionResult{}, err
		}
		if !ok {
			return models.Failure(usageLimitMessage, "usage limit"), nil
		}
		if text == "" {
			return models.Failure("I couldn't come up with anything this time. Please try again.", "empty completion"), nil
		}
		return models.ActionResult{
			Success: true,
			Message: text,
			Data:    map[string]any{"content": text},
		}, nil
	}
}
