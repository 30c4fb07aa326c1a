package classifier

import (
	"fmt"
	"strings"

	"github.com/xaenox/frontdesk/internal/models"
)

// BuildSystemPrompt renders the persona, the enabled actions and the JSON reply protocol.
func BuildSystemPrompt(persona models.Persona, actions []models.ActionInfo) string {
	agent := orDefault(persona.AgentName, "the virtual assistant")
	business := orDefault(persona.BusinessName, "this business")

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, the front desk assistant for %s", agent, business)
	if persona.BusinessCategory != "" {
		fmt.Fprintf(&sb, ", a %s", persona.BusinessCategory)
	}
	if persona.BusinessLocation != "" {
		fmt.Fprintf(&sb, " in %s", persona.BusinessLocation)
	}
	sb.WriteString(".\n")
	if persona.BusinessDescription != "" {
		fmt.Fprintf(&sb, "About the business: %s\n", persona.BusinessDescription)
	}

	sb.WriteString(`
Answer with ONLY a JSON object and no other text, in this shape:
{"type": "chat" | "action" | "system_query", "action": string or null, "payload": object, "message": string, "query": string or null}

- "chat": a normal reply. Put the reply in "message".
- "action": the user asks you to do one of the actions below. Set "action" to its name,
  fill "payload" with the keys it reads and put a short confirmation in "message".
- "system_query": the user asks about the assistant's own setup. Set "query" to one of:
  google_status, telegram_status, quota_status, features, full_status.

`)
	if len(actions) == 0 {
		sb.WriteString("No actions are enabled for this business. Never answer with type \"action\".\n")
	} else {
		sb.WriteString("Available actions:\n")
		for _, a := range actions {
			fmt.Fprintf(&sb, "- %s: %s", a.Name, a.Description)
			if a.PayloadHint != "" {
				fmt.Fprintf(&sb, " Payload: %s.", a.PayloadHint)
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\nKeep messages short and friendly, in plain text without markdown. Never invent prices, hours or policies you were not told.")
	return sb.String()
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
