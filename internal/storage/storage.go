package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xaenox/frontdesk/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the gateway to persisted projects, transcripts, quota events,
// the activity audit trail and scheduled tasks. Every call is fallible;
// callers on the reply path treat failures as "unknown" rather than fatal.
type Storage interface {
	ProjectStorage
	ConversationStorage
	EventStorage
	TaskStorage

	Ping(ctx context.Context) error
	Close() error
}

type ProjectStorage interface {
	// GetProject returns ErrNotFound when no project has the id.
	GetProject(ctx context.Context, id string) (*models.Project, error)
	// UpsertProject applies patch to the project, creating a draft project when none exists.
	UpsertProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
}

type ConversationStorage interface {
	// GetConversation returns ErrNotFound when the chat has no transcript yet.
	GetConversation(ctx context.Context, projectID, chatID string) (*models.Conversation, error)
	// UpsertConversation updates the row for (project, chat) or inserts it.
	UpsertConversation(ctx context.Context, conv *models.Conversation) error
}

type EventStorage interface {
	// CountEvents counts events of a category recorded strictly after since.
	CountEvents(ctx context.Context, projectID string, category models.EventCategory, since time.Time) (int, error)
	AppendEvent(ctx context.Context, event models.Event) error
	AppendActivityLog(ctx context.Context, entry *models.ActivityLog) error
}

type TaskStorage interface {
	CountPendingTasks(ctx context.Context, projectID string) (int, error)
	InsertTask(ctx context.Context, task *models.Task) error
}
