package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/frontdesk/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

type dialect struct {
	name          string
	migrationFile string
	// numberedParams rewrites "?" placeholders to "$1, $2, ..." (PostgreSQL).
	numberedParams bool
}

// SQLStorage implements Storage over database/sql. Queries are written with
// "?" placeholders and rebound for the dialect.
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
}

func newSQLStorage(db *sql.DB, d dialect) (*SQLStorage, error) {
	s := &SQLStorage{db: db, dialect: d}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded schema. All statements are idempotent.
func (s *SQLStorage) Migrate(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile("migrations/" + s.dialect.migrationFile)
	if err != nil {
		return fmt.Errorf("read migrations file: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("execute %s migrations: %w", s.dialect.name, err)
	}
	return nil
}

func (s *SQLStorage) rebind(query string) string {
	if !s.dialect.numberedParams {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

const projectColumns = `id, owner_id, agent_name, business_name, business_category, business_location,
	business_description, features, status, telegram_bot_token, google_access_token,
	google_refresh_token, google_location_name, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var features, status string
	var createdAt, updatedAt int64
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.AgentName, &p.BusinessName, &p.BusinessCategory, &p.BusinessLocation,
		&p.BusinessDescription, &features, &status, &p.TelegramBotToken, &p.GoogleAccessToken,
		&p.GoogleRefreshToken, &p.GoogleLocationName, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
		return nil, fmt.Errorf("decode features of project %s: %w", p.ID, err)
	}
	p.Status = models.ProjectStatus(status)
	p.CreatedAt = time.UnixMilli(createdAt)
	p.UpdatedAt = time.UnixMilli(updatedAt)
	return &p, nil
}

func (s *SQLStorage) GetProject(ctx context.Context, id string) (*models.Project, error) {
	query := s.rebind(`SELECT ` + projectColumns + ` FROM projects WHERE id = ?`)
	p, err := scanProject(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLStorage) UpsertProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	now := time.Now().UnixMilli()
	cols := []string{"id", "created_at", "updated_at"}
	args := []any{id, now, now}

	add := func(col string, v any) {
		cols = append(cols, col)
		args = append(args, v)
	}
	addString := func(col string, v *string) {
		if v != nil {
			add(col, *v)
		}
	}
	addString("owner_id", patch.OwnerID)
	addString("agent_name", patch.AgentName)
	addString("business_name", patch.BusinessName)
	addString("business_category", patch.BusinessCategory)
	addString("business_location", patch.BusinessLocation)
	addString("business_description", patch.BusinessDescription)
	addString("telegram_bot_token", patch.TelegramBotToken)
	addString("google_access_token", patch.GoogleAccessToken)
	addString("google_refresh_token", patch.GoogleRefreshToken)
	addString("google_location_name", patch.GoogleLocationName)
	if patch.Features != nil {
		features := *patch.Features
		if features == nil {
			features = []models.Feature{}
		}
		raw, err := json.Marshal(features)
		if err != nil {
			return nil, fmt.Errorf("encode features: %w", err)
		}
		add("features", string(raw))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}

	updates := []string{"updated_at = excluded.updated_at"}
	for _, col := range cols[3:] {
		updates = append(updates, col+" = excluded."+col)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf(`INSERT INTO projects (%s) VALUES (%s)
		ON CONFLICT (id) DO UPDATE SET %s`,
		strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "))

	if _, err := s.db.ExecContext(ctx, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("upsert project %s: %w", id, err)
	}
	return s.GetProject(ctx, id)
}

func (s *SQLStorage) ListProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLStorage) GetConversation(ctx context.Context, projectID, chatID string) (*models.Conversation, error) {
	query := s.rebind(`
		SELECT id, project_id, chat_id, channel, messages, created_at, updated_at
		FROM conversations
		WHERE project_id = ? AND chat_id = ?`)

	var conv models.Conversation
	var messages string
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, projectID, chatID).Scan(
		&conv.ID, &conv.ProjectID, &conv.ChatID, &conv.Channel, &messages, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if err := json.Unmarshal([]byte(messages), &conv.Turns); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", conv.ID, err)
	}
	conv.CreatedAt = time.UnixMilli(createdAt)
	conv.UpdatedAt = time.UnixMilli(updatedAt)
	return &conv, nil
}

func (s *SQLStorage) UpsertConversation(ctx context.Context, conv *models.Conversation) error {
	turns := models.TrimTurns(conv.Turns, models.MaxTurns)
	if turns == nil {
		turns = []models.Turn{}
	}
	messages, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	now := time.Now()

	query := s.rebind(`
		INSERT INTO conversations (id, project_id, chat_id, channel, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, chat_id) DO UPDATE SET
			messages = excluded.messages,
			channel = excluded.channel,
			updated_at = excluded.updated_at
		RETURNING id, created_at`)

	var createdAt int64
	err = s.db.QueryRowContext(ctx, query,
		conv.ID, conv.ProjectID, conv.ChatID, conv.Channel, string(messages), now.UnixMilli(), now.UnixMilli(),
	).Scan(&conv.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	conv.CreatedAt = time.UnixMilli(createdAt)
	conv.UpdatedAt = now
	return nil
}

func (s *SQLStorage) CountEvents(ctx context.Context, projectID string, category models.EventCategory, since time.Time) (int, error) {
	query := s.rebind(`SELECT COUNT(*) FROM events WHERE project_id = ? AND category = ? AND created_at > ?`)
	var count int
	if err := s.db.QueryRowContext(ctx, query, projectID, string(category), since.UnixMilli()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s events: %w", category, err)
	}
	return count, nil
}

func (s *SQLStorage) AppendEvent(ctx context.Context, event models.Event) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	query := s.rebind(`INSERT INTO events (project_id, category, name, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, event.ProjectID, string(event.Category), event.Name, event.At.UnixMilli()); err != nil {
		return fmt.Errorf("append %s event: %w", event.Category, err)
	}
	return nil
}

func (s *SQLStorage) AppendActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	input, err := marshalObject(entry.Input)
	if err != nil {
		return fmt.Errorf("encode activity input: %w", err)
	}
	result, err := marshalObject(entry.Result)
	if err != nil {
		return fmt.Errorf("encode activity result: %w", err)
	}

	query := s.rebind(`
		INSERT INTO activity_logs (id, project_id, action, status, input, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		entry.ID, entry.ProjectID, entry.Action, string(entry.Status), input, result, entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}
	return nil
}

func (s *SQLStorage) CountPendingTasks(ctx context.Context, projectID string) (int, error) {
	query := s.rebind(`SELECT COUNT(*) FROM tasks WHERE project_id = ? AND status = ?`)
	var count int
	if err := s.db.QueryRowContext(ctx, query, projectID, string(models.TaskPending)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending tasks: %w", err)
	}
	return count, nil
}

func (s *SQLStorage) InsertTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = models.TaskPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	taskContext, err := marshalObject(task.Context)
	if err != nil {
		return fmt.Errorf("encode task context: %w", err)
	}

	query := s.rebind(`
		INSERT INTO tasks (id, project_id, kind, execute_at, status, context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		task.ID, task.ProjectID, string(task.Kind), task.ExecuteAt.UnixMilli(),
		string(task.Status), taskContext, task.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *SQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func marshalObject(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(raw) == "null" {
		return "{}", nil
	}
	return string(raw), nil
}
