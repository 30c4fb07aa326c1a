// Package orchestrator runs one inbound chat message through classification,
// quota checks, action execution and transcript persistence.
package orchestrator

import (
	"context"
	"errors"

	"github.com/xaenox/frontdesk/internal/actions"
	"github.com/xaenox/frontdesk/internal/classifier"
	"github.com/xaenox/frontdesk/internal/models"
	"github.com/xaenox/frontdesk/internal/quota"
	"github.com/xaenox/frontdesk/internal/status"
	"github.com/xaenox/frontdesk/internal/storage"
	"github.com/xaenox/frontdesk/internal/textclean"
	"go.uber.org/zap"
)

const (
	// UnavailableMessage is the reply when the project cannot take messages.
	UnavailableMessage = "Sorry, this assistant is not available right now. Please try again later."

	minuteLimitMessage = "You're going a bit fast! Please try again shortly."
	dailyLimitMessage  = "The daily action limit for this business has been reached. Please try again tomorrow."
	busyMessage        = "I'm still working on your previous message. Please try again in a moment."
)

// ReplyKind tells callers which branch produced a reply.
type ReplyKind string

const (
	ReplyUnavailable ReplyKind = "unavailable"
	ReplyChat        ReplyKind = "chat"
	ReplyAction      ReplyKind = "action"
	ReplyRateLimited ReplyKind = "rate_limited"
	ReplySystemQuery ReplyKind = "system_query"
	ReplyBusy        ReplyKind = "busy"
)

// Inbound is one user message addressed to a project.
type Inbound struct {
	ProjectID string
	ChatID    string
	Channel   string
	Text      string
}

// Reply is the text to send back. Text is always non-empty and sanitized.
type Reply struct {
	Text string
	Kind ReplyKind
}

// Store is the slice of storage the orchestrator reads and writes.
type Store interface {
	storage.ProjectStorage
	storage.ConversationStorage
	storage.EventStorage
}

// Limiter decides whether an action may run now.
type Limiter interface {
	Check(ctx context.Context, projectID, action string) quota.Decision
}

// Reporter reads the system state for status questions.
type Reporter interface {
	GetState(ctx context.Context, projectID string) status.SystemState
}

// Deps holds the collaborators passed to New.
type Deps struct {
	Store      Store
	Classifier classifier.Classifier
	Limiter    Limiter
	Registry   *actions.Registry
	Reporter   Reporter
	Logger     *zap.Logger
}

// Orchestrator is the per-message pipeline shared by every channel.
type Orchestrator struct {
	store      Store
	classifier classifier.Classifier
	limiter    Limiter
	registry   *actions.Registry
	reporter   Reporter
	activity   *ActivityLogger
	locks      *keyLock
	logger     *zap.Logger
}

// New builds an Orchestrator. The activity logger shares deps.Store.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		store:      deps.Store,
		classifier: deps.Classifier,
		limiter:    deps.Limiter,
		registry:   deps.Registry,
		reporter:   deps.Reporter,
		activity:   NewActivityLogger(deps.Store, deps.Logger),
		locks:      newKeyLock(),
		logger:     deps.Logger,
	}
}

// Handle processes one message and always returns a reply. Messages for the
// same project and chat are handled one at a time within this process. A
// message still waiting for its turn when ctx ends gets ReplyBusy and leaves
// no trace in storage.
func (o *Orchestrator) Handle(ctx context.Context, in Inbound) Reply {
	logger := o.logger.With(zap.String("project_id", in.ProjectID), zap.String("chat_id", in.ChatID))

	unlock, err := o.locks.Lock(ctx, in.ProjectID+":"+in.ChatID)
	if err != nil {
		logger.Warn("Gave up waiting for previous message", zap.Error(err))
		return Reply{Text: busyMessage, Kind: ReplyBusy}
	}
	defer unlock()

	project, err := o.store.GetProject(ctx, in.ProjectID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Error("Project not found")
		return Reply{Text: UnavailableMessage, Kind: ReplyUnavailable}
	case err != nil:
		logger.Error("Failed to load project", zap.Error(err))
		return Reply{Text: UnavailableMessage, Kind: ReplyUnavailable}
	case !project.IsActive():
		logger.Error("Project is not active", zap.String("status", string(project.Status)))
		return Reply{Text: UnavailableMessage, Kind: ReplyUnavailable}
	}

	conv, persist := o.loadConversation(ctx, in, logger)

	prompt := classifier.BuildSystemPrompt(project.Persona(), o.registry.Catalog(project.Features))
	intent := o.classifier.Classify(ctx, prompt, conv.Recent(classifier.HistoryTurns), in.Text)

	var reply Reply
	switch it := intent.(type) {
	case models.SystemQueryIntent:
		state := o.reporter.GetState(ctx, project.ID)
		reply = Reply{Text: status.Render(it.Query, state), Kind: ReplySystemQuery}
	case models.ActionIntent:
		reply = o.runAction(ctx, project, in, it, logger)
	case models.ChatIntent:
		reply = Reply{Text: it.Message, Kind: ReplyChat}
	default:
		reply = Reply{Text: classifier.FallbackMessage, Kind: ReplyChat}
	}
	reply.Text = textclean.Sanitize(reply.Text)

	if persist {
		conv.Append(
			models.Turn{Role: models.RoleUser, Content: in.Text},
			models.Turn{Role: models.RoleAssistant, Content: reply.Text},
		)
		if err := o.store.UpsertConversation(ctx, conv); err != nil {
			logger.Error("Failed to save conversation", zap.Error(err))
		}
	}

	logger.Info("Handled message", zap.String("kind", string(reply.Kind)))
	return reply
}

// loadConversation returns the stored transcript or a new one. When the read
// fails for any reason other than absence, persist is false so the stored
// transcript is not overwritten by a partial one.
func (o *Orchestrator) loadConversation(ctx context.Context, in Inbound, logger *zap.Logger) (conv *models.Conversation, persist bool) {
	conv, err := o.store.GetConversation(ctx, in.ProjectID, in.ChatID)
	if err == nil {
		return conv, true
	}
	fresh := &models.Conversation{ProjectID: in.ProjectID, ChatID: in.ChatID, Channel: in.Channel}
	if errors.Is(err, storage.ErrNotFound) {
		return fresh, true
	}
	logger.Error("Failed to load conversation", zap.Error(err))
	return fresh, false
}

func (o *Orchestrator) runAction(ctx context.Context, project *models.Project, in Inbound, intent models.ActionIntent, logger *zap.Logger) Reply {
	decision := o.limiter.Check(ctx, project.ID, intent.Name)
	if !decision.Allowed {
		msg := minuteLimitMessage
		if decision.Reason == quota.ReasonDailyLimit {
			msg = dailyLimitMessage
		}
		logger.Info("Action rate limited",
			zap.String("action", intent.Name),
			zap.String("reason", decision.Reason))
		o.activity.Record(ctx, project.ID, intent.Name, models.ActivityRateLimited, intent.Payload,
			models.ActionResult{Success: false, Message: msg, Error: decision.Reason})
		return Reply{Text: msg, Kind: ReplyRateLimited}
	}

	result := o.registry.Execute(ctx, intent.Name, intent.Payload, actions.ActionContext{
		Project: project,
		ChatID:  in.ChatID,
		Channel: in.Channel,
	})

	activity := models.ActivitySuccess
	if !result.Success {
		activity = models.ActivityFailed
	}
	o.activity.Record(ctx, project.ID, intent.Name, activity, intent.Payload, result)

	text := result.Message
	if result.Success && intent.Message != "" {
		text = intent.Message + "\n\n" + result.Message
	}
	return Reply{Text: text, Kind: ReplyAction}
}
