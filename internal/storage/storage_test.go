package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/frontdesk/internal/models"
	"go.uber.org/zap"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()

	sqlite, err := NewSQLiteStorage(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"sqlite": sqlite,
	}
}

func ptr[T any](v T) *T { return &v }

func TestProjectUpsertAndGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.GetProject(ctx, "p1")
			require.ErrorIs(t, err, ErrNotFound)

			created, err := s.UpsertProject(ctx, "p1", models.ProjectPatch{
				AgentName:    ptr("Ava"),
				BusinessName: ptr("Corner Bakery"),
			})
			require.NoError(t, err)
			assert.Equal(t, models.ProjectDraft, created.Status)
			assert.Empty(t, created.Features)

			features := []models.Feature{models.FeatureSEOContent, models.FeatureFollowUps}
			status := models.ProjectActive
			updated, err := s.UpsertProject(ctx, "p1", models.ProjectPatch{
				Features:         &features,
				Status:           &status,
				TelegramBotToken: ptr("123:abc"),
			})
			require.NoError(t, err)
			assert.Equal(t, "Ava", updated.AgentName, "untouched fields survive a partial patch")
			assert.Equal(t, features, updated.Features)
			assert.True(t, updated.IsActive())
			assert.True(t, updated.TelegramConnected())
			assert.False(t, updated.GoogleConnected())

			got, err := s.GetProject(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, "Corner Bakery", got.BusinessName)
			assert.Equal(t, features, got.Features)

			list, err := s.ListProjects(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "p1", list[0].ID)
		})
	}
}

func TestConversationUpsertKeepsRowAndCapsTurns(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.UpsertProject(ctx, "p1", models.ProjectPatch{})
			require.NoError(t, err)

			_, err = s.GetConversation(ctx, "p1", "42")
			require.ErrorIs(t, err, ErrNotFound)

			conv := &models.Conversation{ProjectID: "p1", ChatID: "42", Channel: "telegram"}
			conv.Append(models.Turn{Role: models.RoleUser, Content: "hi"})
			require.NoError(t, s.UpsertConversation(ctx, conv))
			firstID := conv.ID
			require.NotEmpty(t, firstID)

			for i := 0; i < 30; i++ {
				conv.Turns = append(conv.Turns, models.Turn{Role: models.RoleAssistant, Content: fmt.Sprintf("m%d", i)})
			}
			second := &models.Conversation{ProjectID: "p1", ChatID: "42", Channel: "telegram", Turns: conv.Turns}
			require.NoError(t, s.UpsertConversation(ctx, second))
			assert.Equal(t, firstID, second.ID, "upsert updates the existing row")

			got, err := s.GetConversation(ctx, "p1", "42")
			require.NoError(t, err)
			require.Len(t, got.Turns, models.MaxTurns)
			assert.Equal(t, "m29", got.Turns[len(got.Turns)-1].Content)
			assert.Equal(t, "m10", got.Turns[0].Content)
		})
	}
}

func TestCountEventsWindow(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()

			for _, at := range []time.Time{now.Add(-2 * time.Hour), now.Add(-30 * time.Second), now} {
				require.NoError(t, s.AppendEvent(ctx, models.Event{
					ProjectID: "p1", Category: models.EventAction, Name: "generate_seo_post", At: at,
				}))
			}
			require.NoError(t, s.AppendEvent(ctx, models.Event{
				ProjectID: "p1", Category: models.EventUsage, Name: "seo_generation", At: now,
			}))
			require.NoError(t, s.AppendEvent(ctx, models.Event{
				ProjectID: "p2", Category: models.EventAction, Name: "generate_seo_post", At: now,
			}))

			n, err := s.CountEvents(ctx, "p1", models.EventAction, now.Add(-time.Minute))
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			n, err = s.CountEvents(ctx, "p1", models.EventAction, now.Add(-24*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			n, err = s.CountEvents(ctx, "p1", models.EventUsage, now.Add(-24*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestTasksAndActivity(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.InsertTask(ctx, &models.Task{
				ProjectID: "p1",
				Kind:      models.TaskFollowUp,
				ExecuteAt: time.Now().Add(24 * time.Hour),
				Context:   map[string]any{"chat_id": "42"},
			}))
			require.NoError(t, s.InsertTask(ctx, &models.Task{
				ProjectID: "p1",
				Kind:      models.TaskSummary,
				Status:    models.TaskCompleted,
				ExecuteAt: time.Now(),
			}))

			n, err := s.CountPendingTasks(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			entry := &models.ActivityLog{
				ProjectID: "p1",
				Action:    "generate_seo_post",
				Status:    models.ActivitySuccess,
				Input:     map[string]any{"topic": "bread"},
				Result:    &models.ActionResult{Success: true, Message: "done"},
			}
			require.NoError(t, s.AppendActivityLog(ctx, entry))
			assert.NotEmpty(t, entry.ID)
		})
	}
}

func TestRebindNumbersPlaceholders(t *testing.T) {
	s := &SQLStorage{dialect: dialect{numberedParams: true}}
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", s.rebind("SELECT 1 WHERE a = ? AND b = ?"))

	plain := &SQLStorage{dialect: dialect{}}
	assert.Equal(t, "a = ?", plain.rebind("a = ?"))
}
