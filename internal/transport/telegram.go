// Package transport delivers reply text to chat platforms.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender delivers text to a chat address using a channel credential.
type Sender interface {
	SendText(ctx context.Context, credential, chatID, text string) error
}

// TelegramSender sends messages through the Bot API. Each project has its own bot
// token, so one BotAPI is kept per token.
type TelegramSender struct {
	mu       sync.Mutex
	bots     map[string]*tgbotapi.BotAPI
	client   *http.Client
	endpoint string
	logger   *zap.Logger
}

func NewTelegramSender(client *http.Client, logger *zap.Logger) *TelegramSender {
	if client == nil {
		client = &http.Client{}
	}
	return &TelegramSender{
		bots:     make(map[string]*tgbotapi.BotAPI),
		client:   client,
		endpoint: tgbotapi.APIEndpoint,
		logger:   logger,
	}
}

// SetAPIEndpoint overrides the Bot API endpoint format (see tgbotapi.APIEndpoint).
func (s *TelegramSender) SetAPIEndpoint(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = endpoint
	s.bots = make(map[string]*tgbotapi.BotAPI)
}

func (s *TelegramSender) bot(token string) *tgbotapi.BotAPI {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.bots[token]; ok {
		return b
	}
	// Built directly instead of tgbotapi.NewBotAPI to skip the getMe round trip.
	b := &tgbotapi.BotAPI{Token: token, Client: s.client, Buffer: 100}
	b.SetAPIEndpoint(s.endpoint)
	s.bots[token] = b
	return b
}

func (s *TelegramSender) SendText(ctx context.Context, credential, chatID, text string) error {
	if credential == "" {
		return fmt.Errorf("telegram bot token is not configured")
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(id, text)
	if _, err := s.bot(credential).Send(msg); err != nil {
		s.logger.Error("Failed to send message",
			zap.Error(err),
			zap.String("chat_id", chatID))
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
