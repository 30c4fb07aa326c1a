// Package completion wraps external text-completion services behind one interface.
package completion

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Provider completes a conversation. It does not retry and is unaware of quotas;
// an empty string with a nil error means the provider had nothing to say.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Options configures a provider client.
type Options struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	// JSONMode asks the provider for a JSON object response when supported.
	JSONMode bool
}

// New builds the provider named in opts.Provider ("openai" or "gemini").
func New(ctx context.Context, opts Options, logger *zap.Logger) (Provider, error) {
	switch opts.Provider {
	case "", "openai":
		return NewOpenAIProvider(opts, logger), nil
	case "gemini":
		return NewGeminiProvider(ctx, opts, logger)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", opts.Provider)
	}
}
