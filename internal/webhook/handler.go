// Package webhook is the HTTP entry point for chat platforms. Upstream
// platforms retry on any non-2xx answer, so only malformed envelopes are
// rejected and everything else is acknowledged.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/frontdesk/internal/orchestrator"
	"github.com/xaenox/frontdesk/internal/storage"
	"github.com/xaenox/frontdesk/internal/textclean"
	"github.com/xaenox/frontdesk/internal/transport"
	"go.uber.org/zap"
)

const (
	ChannelTelegram = "telegram"

	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// Responder turns an inbound message into a reply.
type Responder interface {
	Handle(ctx context.Context, in orchestrator.Inbound) orchestrator.Reply
}

type Options struct {
	// SecretToken, when set, must match the secret header Telegram sends.
	SecretToken string
	// InlineReplies answers in the webhook response body instead of a separate send call.
	InlineReplies bool
	// Timeout bounds the handling of one update.
	Timeout time.Duration
}

type TelegramHandler struct {
	responder Responder
	projects  storage.ProjectStorage
	sender    transport.Sender
	opts      Options
	logger    *zap.Logger
}

func NewTelegramHandler(responder Responder, projects storage.ProjectStorage, sender transport.Sender, opts Options, logger *zap.Logger) *TelegramHandler {
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}
	return &TelegramHandler{
		responder: responder,
		projects:  projects,
		sender:    sender,
		opts:      opts,
		logger:    logger,
	}
}

func (h *TelegramHandler) RegisterRoutes(r chi.Router) {
	r.Post("/telegram/{projectID}", h.Update)
}

// Update handles one Telegram update for the project in the URL.
func (h *TelegramHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	if h.opts.SecretToken != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.opts.SecretToken)) != 1 {
			h.logger.Warn("Rejected update with bad secret token", zap.String("project_id", projectID))
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("Malformed update", zap.Error(err), zap.String("project_id", projectID))
		http.Error(w, "malformed update", http.StatusBadRequest)
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || (msg.From != nil && msg.From.IsBot) {
		ack(w)
		return
	}
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if strings.TrimSpace(text) == "" {
		ack(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
	defer cancel()

	var replyText string
	if msg.IsCommand() && msg.Command() == "start" {
		replyText = h.greeting(ctx, projectID)
	} else {
		reply := h.responder.Handle(ctx, orchestrator.Inbound{
			ProjectID: projectID,
			ChatID:    strconv.FormatInt(msg.Chat.ID, 10),
			Channel:   ChannelTelegram,
			Text:      text,
		})
		replyText = reply.Text
	}

	if h.opts.InlineReplies {
		if err := tgbotapi.WriteToHTTPResponse(w, tgbotapi.NewMessage(msg.Chat.ID, replyText)); err != nil {
			h.logger.Error("Failed to write inline reply", zap.Error(err), zap.String("project_id", projectID))
		}
		return
	}

	h.send(ctx, projectID, msg.Chat.ID, replyText)
	ack(w)
}

// greeting answers /start without a model call. Inactive or unknown projects
// get the same reply the orchestrator gives them.
func (h *TelegramHandler) greeting(ctx context.Context, projectID string) string {
	project, err := h.projects.GetProject(ctx, projectID)
	if err != nil {
		h.logger.Error("Failed to load project for greeting", zap.Error(err), zap.String("project_id", projectID))
		return orchestrator.UnavailableMessage
	}
	if !project.IsActive() {
		return orchestrator.UnavailableMessage
	}
	return textclean.DefaultGreeting
}

func (h *TelegramHandler) send(ctx context.Context, projectID string, chatID int64, text string) {
	project, err := h.projects.GetProject(ctx, projectID)
	if err != nil {
		h.logger.Error("Cannot send reply without project", zap.Error(err), zap.String("project_id", projectID))
		return
	}
	if !project.TelegramConnected() {
		h.logger.Error("Project has no Telegram bot token", zap.String("project_id", projectID))
		return
	}
	if err := h.sender.SendText(ctx, project.TelegramBotToken, strconv.FormatInt(chatID, 10), text); err != nil {
		h.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.String("project_id", projectID),
			zap.Int64("chat_id", chatID))
	}
}

func ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}
