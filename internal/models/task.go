package models

import "time"

type TaskKind string

const (
	TaskFollowUp TaskKind = "follow_up"
	TaskSummary  TaskKind = "summary"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Task is a scheduled follow-up or summary row processed outside the message pipeline.
type Task struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	Kind      TaskKind       `json:"kind"`
	ExecuteAt time.Time      `json:"execute_at"`
	Status    TaskStatus     `json:"status"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
