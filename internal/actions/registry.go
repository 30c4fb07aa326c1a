// Package actions holds the closed table of side-effecting actions a project
// can trigger from chat, each gated by a feature flag.
package actions

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xaenox/frontdesk/internal/completion"
	"github.com/xaenox/frontdesk/internal/gbp"
	"github.com/xaenox/frontdesk/internal/models"
	"github.com/xaenox/frontdesk/internal/quota"
	"github.com/xaenox/frontdesk/internal/storage"
	"github.com/xaenox/frontdesk/internal/textclean"
	"go.uber.org/zap"
)

const (
	ReplyGoogleReview         = "reply_google_review"
	UpdateBusinessDescription = "update_business_description"
	GenerateSEOPost           = "generate_seo_post"
	GenerateSEODescription    = "generate_seo_description"
	GenerateSEOKeywords       = "generate_seo_keywords"
	ScheduleFollowUp          = "schedule_follow_up"
)

// ActionContext identifies who an action runs for.
type ActionContext struct {
	Project *models.Project
	ChatID  string
	Channel string
}

// Handler runs one action. Returning an error yields a generic failure result.
type Handler func(ctx context.Context, payload map[string]any, actx ActionContext) (models.ActionResult, error)

// UsageChecker is consulted before every completion-provider call a handler makes.
type UsageChecker interface {
	CheckAndTrack(ctx context.Context, projectID, kind string) quota.Decision
}

// Store is the part of the store gateway the handlers write to.
type Store interface {
	storage.ProjectStorage
	storage.TaskStorage
}

// Deps are the collaborators shared by all handlers. Profile may be nil when
// no Google Business Profile client is configured.
type Deps struct {
	Store    Store
	Provider completion.Provider
	Guard    UsageChecker
	Profile  gbp.Profile
	Now      func() time.Time
	Logger   *zap.Logger
}

type action struct {
	info    models.ActionInfo
	handler Handler
}

// Registry maps action names to handlers. It is built once and never mutated.
type Registry struct {
	actions map[string]action
	logger  *zap.Logger
}

func NewRegistry(deps Deps) *Registry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &handlers{deps: deps}

	return newRegistry(deps.Logger, []action{
		{
			info: models.ActionInfo{
				Name:        ReplyGoogleReview,
				Description: "Write and post replies to unanswered Google reviews.",
				Feature:     models.FeatureGoogleReviews,
				PayloadHint: `"limit": how many reviews to answer, default 3`,
			},
			handler: h.replyGoogleReviews,
		},
		{
			info: models.ActionInfo{
				Name:        UpdateBusinessDescription,
				Description: "Update the business description on file and on Google.",
				Feature:     models.FeatureProfileManagement,
				PayloadHint: `"description": the new text, omit to have one written`,
			},
			handler: h.updateBusinessDescription,
		},
		{
			info: models.ActionInfo{
				Name:        GenerateSEOPost,
				Description: "Write a short promotional post for the business.",
				Feature:     models.FeatureSEOContent,
				PayloadHint: `"topic": what the post is about`,
			},
			handler: h.generateSEO(seoPost),
		},
		{
			info: models.ActionInfo{
				Name:        GenerateSEODescription,
				Description: "Write a search-friendly business description.",
				Feature:     models.FeatureSEOContent,
				PayloadHint: `"focus": optional angle to emphasize`,
			},
			handler: h.generateSEO(seoDescription),
		},
		{
			info: models.ActionInfo{
				Name:        GenerateSEOKeywords,
				Description: "Suggest search keywords for the business.",
				Feature:     models.FeatureSEOContent,
				PayloadHint: `"count": number of keywords, default 10`,
			},
			handler: h.generateSEO(seoKeywords),
		},
		{
			info: models.ActionInfo{
				Name:        ScheduleFollowUp,
				Description: "Schedule a follow-up message to this customer.",
				Feature:     models.FeatureFollowUps,
				PayloadHint: `"delay_hours": default 24, "note": what to follow up on`,
			},
			handler: h.scheduleFollowUp,
		},
	})
}

func newRegistry(logger *zap.Logger, table []action) *Registry {
	r := &Registry{actions: make(map[string]action, len(table)), logger: logger}
	for _, a := range table {
		r.actions[a.info.Name] = a
	}
	return r
}

// Execute runs the named action for the project in actx. It never panics and
// always returns a result whose Message is safe to show the user.
func (r *Registry) Execute(ctx context.Context, name string, payload map[string]any, actx ActionContext) (result models.ActionResult) {
	defer func() {
		result.Message = textclean.Sanitize(result.Message)
	}()

	a, ok := r.actions[name]
	if !ok {
		r.logger.Warn("Unknown action requested", zap.String("action", name))
		return models.Failure("Sorry, I can't do that yet.", fmt.Sprintf("unknown action %q", name))
	}
	if actx.Project == nil {
		return models.Failure("This assistant is not available right now.", "no project")
	}
	if !actx.Project.HasFeature(a.info.Feature) {
		r.logger.Info("Action blocked by feature flag",
			zap.String("project_id", actx.Project.ID),
			zap.String("action", name),
			zap.String("feature", string(a.info.Feature)))
		return models.Failure(
			fmt.Sprintf("The %s feature is not enabled for this business, so I can't do that.", a.info.Feature),
			fmt.Sprintf("feature %q not enabled", a.info.Feature),
		)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return r.run(ctx, a, payload, actx)
}

func (r *Registry) run(ctx context.Context, a action, payload map[string]any, actx ActionContext) (result models.ActionResult) {
	logger := r.logger.With(zap.String("project_id", actx.Project.ID), zap.String("action", a.info.Name))
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Action handler panicked", zap.Any("panic", rec))
			result = models.Failure("Sorry, something went wrong. Please try again later.", fmt.Sprint(rec))
		}
	}()

	result, err := a.handler(ctx, payload, actx)
	if err != nil {
		logger.Error("Action failed", zap.Error(err))
		return models.Failure("Sorry, something went wrong. Please try again later.", err.Error())
	}
	if result.Message == "" && result.Success {
		result.Message = "Done!"
	}
	return result
}

// Catalog lists the actions the given features unlock, sorted by name.
func (r *Registry) Catalog(features []models.Feature) []models.ActionInfo {
	enabled := make(map[models.Feature]bool, len(features))
	for _, f := range features {
		enabled[f] = true
	}
	var out []models.ActionInfo
	for _, a := range r.actions {
		if enabled[a.info.Feature] {
			out = append(out, a.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Has reports whether name is a registered action.
func (r *Registry) Has(name string) bool {
	_, ok := r.actions[name]
	return ok
}
