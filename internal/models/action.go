package models

// ActionResult is the normalized outcome of an action handler.
// Message is always present and safe to show to the end user.
type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Failure builds an unsuccessful result.
func Failure(message, detail string) ActionResult {
	return ActionResult{Success: false, Message: message, Error: detail}
}

// ActionInfo describes a registered action for prompts and listings.
type ActionInfo struct {
	Name        string
	Description string
	Feature     Feature
	// PayloadHint documents the payload keys the handler reads.
	PayloadHint string
}
