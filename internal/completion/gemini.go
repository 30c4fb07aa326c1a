package completion

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type GeminiProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
	jsonMode    bool
	logger      *zap.Logger
}

func NewGeminiProvider(ctx context.Context, opts Options, logger *zap.Logger) (*GeminiProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{
		client:      client,
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		jsonMode:    opts.JSONMode,
		logger:      logger,
	}, nil
}

func (p *GeminiProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(p.temperature)),
	}
	if p.maxTokens > 0 {
		config.MaxOutputTokens = int32(p.maxTokens)
	}
	if p.jsonMode {
		config.ResponseMIMEType = "application/json"
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		p.logger.Debug("Gemini returned no text", zap.String("model", p.model))
	}
	return text, nil
}
