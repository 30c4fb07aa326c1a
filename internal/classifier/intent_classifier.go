package classifier

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/xaenox/frontdesk/internal/completion"
	"github.com/xaenox/frontdesk/internal/models"
	"github.com/xaenox/frontdesk/internal/textclean"
	"go.uber.org/zap"
)

const (
	// HistoryTurns is how much of the transcript is sent to the provider.
	HistoryTurns = 10

	FallbackMessage = "Thanks for your message! We'll get back to you shortly."
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

type IntentClassifier struct {
	provider completion.Provider
	local    *LocalMatcher
	logger   *zap.Logger
}

func NewIntentClassifier(provider completion.Provider, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{
		provider: provider,
		local:    NewLocalMatcher(),
		logger:   logger,
	}
}

func (c *IntentClassifier) Classify(ctx context.Context, systemPrompt string, history []models.Turn, message string) models.Intent {
	if query, ok := c.local.Match(message); ok {
		c.logger.Debug("Matched local status pattern", zap.String("query", string(query)))
		return models.SystemQueryIntent{Query: query}
	}

	messages := make([]completion.Message, 0, HistoryTurns+2)
	messages = append(messages, completion.Message{Role: completion.RoleSystem, Content: systemPrompt})
	for _, turn := range models.TrimTurns(history, HistoryTurns) {
		role := completion.RoleUser
		if turn.Role == models.RoleAssistant {
			role = completion.RoleAssistant
		}
		messages = append(messages, completion.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, completion.Message{Role: completion.RoleUser, Content: message})

	response, err := c.provider.Complete(ctx, messages)
	if err != nil {
		c.logger.Error("Failed to get completion", zap.Error(err))
		response = ""
	}
	return c.parseResponse(response)
}

// parseResponse maps untrusted provider output onto an Intent, falling back
// to a chat intent at every step that cannot be validated. A missing or
// unknown type does not echo the raw response: the reply is the object's
// message field, else the prose around the object, else FallbackMessage.
func (c *IntentClassifier) parseResponse(response string) models.Intent {
	raw := strings.TrimSpace(response)
	if raw == "" {
		return models.ChatIntent{Message: FallbackMessage}
	}

	candidate, outside := extractJSON(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		c.logger.Warn("Failed to parse completion response",
			zap.Error(err),
			zap.String("response", raw))
		return models.ChatIntent{Message: textclean.Sanitize(textclean.StripLegacyTags(raw))}
	}

	message := stringField(fields, "message")
	switch models.IntentKind(strings.ToLower(stringField(fields, "type"))) {
	case models.IntentChat:
		return models.ChatIntent{Message: textclean.Sanitize(message)}

	case models.IntentAction:
		name := strings.TrimSpace(stringField(fields, "action"))
		if name == "" {
			return models.ChatIntent{Message: chatText(message, FallbackMessage)}
		}
		intent := models.ActionIntent{Name: name, Payload: objectField(fields, "payload")}
		if message != "" {
			intent.Message = textclean.Sanitize(message)
		}
		return intent

	case models.IntentSystemQuery:
		query, ok := models.ParseQueryKind(strings.ToLower(stringField(fields, "query")))
		if !ok {
			query = models.QueryFullStatus
		}
		intent := models.SystemQueryIntent{Query: query}
		if message != "" {
			intent.Message = textclean.Sanitize(message)
		}
		return intent

	default:
		c.logger.Warn("Completion response has no known type", zap.String("response", raw))
		return models.ChatIntent{Message: chatText(message, chatText(outside, FallbackMessage))}
	}
}

func chatText(text, fallback string) string {
	if strings.TrimSpace(text) == "" {
		return fallback
	}
	return textclean.Sanitize(text)
}

// extractJSON strips one fenced code block and slices from the first "{" to
// the last "}". It also returns the prose found outside the object.
func extractJSON(raw string) (candidate, outside string) {
	text, prose := raw, ""
	if m := fencePattern.FindStringSubmatchIndex(raw); m != nil {
		text = raw[m[2]:m[3]]
		prose = raw[:m[0]] + " " + raw[m[1]:]
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return text, prose
	}
	return text[start : end+1], prose + " " + text[:start] + " " + text[end+1:]
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func objectField(fields map[string]json.RawMessage, key string) map[string]any {
	out := map[string]any{}
	raw, ok := fields[key]
	if !ok {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}
