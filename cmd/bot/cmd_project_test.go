package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/frontdesk/internal/models"
	"github.com/xaenox/frontdesk/internal/storage"
)

func runUpsert(t *testing.T, store storage.ProjectStorage, args ...string) (string, error) {
	t.Helper()
	cmd := newProjectUpsertCmd(&rootOptions{}, store)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestProjectUpsertCreatesAndPatches(t *testing.T) {
	store := storage.NewMemoryStorage()

	out, err := runUpsert(t, store,
		"--id", "bakery",
		"--business-name", "Corner Bakery",
		"--features", "seo_content,follow_ups",
		"--status", "active",
		"--telegram-token", "123:abc",
	)
	require.NoError(t, err)
	assert.Contains(t, out, `"business_name": "Corner Bakery"`)
	assert.NotContains(t, out, "123:abc", "credentials are never printed")

	_, err = runUpsert(t, store, "--id", "bakery", "--location", "Lisbon")
	require.NoError(t, err)

	p, err := store.GetProject(context.Background(), "bakery")
	require.NoError(t, err)
	assert.Equal(t, "Corner Bakery", p.BusinessName)
	assert.Equal(t, "Lisbon", p.BusinessLocation)
	assert.Equal(t, []models.Feature{models.FeatureSEOContent, models.FeatureFollowUps}, p.Features)
	assert.Equal(t, models.ProjectActive, p.Status)
	assert.Equal(t, "123:abc", p.TelegramBotToken)
}

func TestProjectUpsertRejectsBadInput(t *testing.T) {
	store := storage.NewMemoryStorage()

	_, err := runUpsert(t, store, "--id", "x", "--features", "teleportation")
	assert.ErrorContains(t, err, "unknown feature")

	_, err = runUpsert(t, store, "--id", "x", "--status", "archived")
	assert.ErrorContains(t, err, "status must be draft or active")

	_, err = runUpsert(t, store, "--business-name", "no id")
	assert.Error(t, err)

	_, err = store.GetProject(context.Background(), "x")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
