package models

import "time"

// EventCategory groups append-only quota events.
type EventCategory string

const (
	EventAction EventCategory = "action"
	EventUsage  EventCategory = "usage"
)

// Event is an append-only quota row. Only ever read back as a count.
type Event struct {
	ProjectID string
	Category  EventCategory
	Name      string
	At        time.Time
}

// ActivityStatus is the outcome recorded in the audit trail.
type ActivityStatus string

const (
	ActivitySuccess     ActivityStatus = "success"
	ActivityFailed      ActivityStatus = "failed"
	ActivityRateLimited ActivityStatus = "rate_limited"
)

// ActivityLog is one audit trail entry for an attempted action.
type ActivityLog struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	Action    string         `json:"action"`
	Status    ActivityStatus `json:"status"`
	Input     map[string]any `json:"input,omitempty"`
	Result    *ActionResult  `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
