package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/frontdesk/internal/models"
)

type MemoryStorage struct {
	mu            sync.RWMutex
	projects      map[string]*models.Project
	conversations map[string]*models.Conversation
	events        []models.Event
	activity      []*models.ActivityLog
	tasks         map[string]*models.Task
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		projects:      make(map[string]*models.Project),
		conversations: make(map[string]*models.Conversation),
		tasks:         make(map[string]*models.Task),
	}
}

func conversationKey(projectID, chatID string) string {
	return projectID + ":" + chatID
}

// Project methods
func (s *MemoryStorage) GetProject(ctx context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, exists := s.projects[id]; exists {
		return cloneProject(p), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) UpsertProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p, exists := s.projects[id]
	if !exists {
		p = &models.Project{
			ID:        id,
			Status:    models.ProjectDraft,
			Features:  []models.Feature{},
			CreatedAt: now,
		}
	}
	patch.Apply(p)
	p.UpdatedAt = now
	s.projects[id] = p
	return cloneProject(p), nil
}

func (s *MemoryStorage) ListProjects(ctx context.Context) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Conversation methods
func (s *MemoryStorage) GetConversation(ctx context.Context, projectID, chatID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.conversations[conversationKey(projectID, chatID)]
	if !exists {
		return nil, ErrNotFound
	}
	c := *conv
	c.Turns = append([]models.Turn(nil), conv.Turns...)
	return &c, nil
}

func (s *MemoryStorage) UpsertConversation(ctx context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	key := conversationKey(conv.ProjectID, conv.ChatID)
	if existing, exists := s.conversations[key]; exists {
		conv.ID = existing.ID
		conv.CreatedAt = existing.CreatedAt
	} else {
		if conv.ID == "" {
			conv.ID = uuid.New().String()
		}
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now

	c := *conv
	c.Turns = models.TrimTurns(append([]models.Turn(nil), conv.Turns...), models.MaxTurns)
	s.conversations[key] = &c
	return nil
}

// Event methods
func (s *MemoryStorage) CountEvents(ctx context.Context, projectID string, category models.EventCategory, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.events {
		if e.ProjectID == projectID && e.Category == category && e.At.After(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) AppendEvent(ctx context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.At.IsZero() {
		event.At = time.Now()
	}
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStorage) AppendActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	e := *entry
	s.activity = append(s.activity, &e)
	return nil
}

// ActivityLogs returns a copy of the audit trail for a project, oldest first.
func (s *MemoryStorage) ActivityLogs(projectID string) []models.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ActivityLog
	for _, e := range s.activity {
		if e.ProjectID == projectID {
			out = append(out, *e)
		}
	}
	return out
}

// Task methods
func (s *MemoryStorage) CountPendingTasks(ctx context.Context, projectID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.tasks {
		if t.ProjectID == projectID && t.Status == models.TaskPending {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) InsertTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = models.TaskPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	t := *task
	s.tasks[task.ID] = &t
	return nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func cloneProject(p *models.Project) *models.Project {
	c := *p
	c.Features = append([]models.Feature(nil), p.Features...)
	return &c
}
