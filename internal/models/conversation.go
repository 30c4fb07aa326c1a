package models

import "time"

// MaxTurns is the number of turns kept per conversation. Older turns are dropped on write.
const MaxTurns = 20

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is the bounded transcript for one (project, chat address) pair.
type Conversation struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	ChatID    string    `json:"chat_id"`
	Channel   string    `json:"channel"`
	Turns     []Turn    `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Append adds turns and trims the transcript to the most recent MaxTurns.
func (c *Conversation) Append(turns ...Turn) {
	c.Turns = TrimTurns(append(c.Turns, turns...), MaxTurns)
}

// Recent returns at most n of the latest turns.
func (c *Conversation) Recent(n int) []Turn {
	if c == nil {
		return nil
	}
	return TrimTurns(c.Turns, n)
}

// TrimTurns keeps the last n turns, preserving order.
func TrimTurns(turns []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(turns) <= n {
		return turns
	}
	out := make([]Turn, n)
	copy(out, turns[len(turns)-n:])
	return out
}
