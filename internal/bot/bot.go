package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/frontdesk/internal/orchestrator"
	"go.uber.org/zap"
)

const channelTelegram = "telegram"

// Responder turns an inbound message into a reply.
type Responder interface {
	Handle(ctx context.Context, in orchestrator.Inbound) orchestrator.Reply
}

// Bot serves one project over Telegram long polling, for deployments
// without a public webhook URL.
type Bot struct {
	api       *tgbotapi.BotAPI
	projectID string
	responder Responder
	logger    *zap.Logger
}

// New connects to the Bot API at apiEndpoint (tgbotapi.APIEndpoint when empty).
func New(token, apiEndpoint, projectID string, responder Responder, logger *zap.Logger) (*Bot, error) {
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:       api,
		projectID: projectID,
		responder: responder,
		logger:    logger,
	}, nil
}

// Start polls for updates until ctx is cancelled, then waits for in-flight messages.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Polling for updates",
		zap.String("bot", b.api.Self.UserName),
		zap.String("project_id", b.projectID))

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil || (message.From != nil && message.From.IsBot) {
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if content == "" {
		return
	}

	b.respond(ctx, message.Chat.ID, content)
}

func (b *Bot) respond(ctx context.Context, chatID int64, content string) {
	reply := b.responder.Handle(ctx, orchestrator.Inbound{
		ProjectID: b.projectID,
		ChatID:    strconv.FormatInt(chatID, 10),
		Channel:   channelTelegram,
		Text:      content,
	})
	b.sendMessage(chatID, reply.Text)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "status":
		b.respond(ctx, message.Chat.ID, "/status")
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Hi! I'm the front desk assistant for this business.
Ask me anything about opening hours, services or bookings and I'll do my best to help.
Use /help to see what else I can do.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the conversation
/help - Show this help message
/status - Show the assistant's connections and quota

Just write to me in plain words for everything else.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
