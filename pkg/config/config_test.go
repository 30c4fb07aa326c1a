package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "openai", cfg.Completion.Provider)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 25*time.Second, cfg.Conversation.HandleTimeout)
	assert.Equal(t, LimitsConfig{ActionsPerMinute: 5, ActionsPerDay: 100, UsagePerDay: 300}, cfg.Limits)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: file-token
  inline_replies: true
database:
  driver: sqlite
  path: /tmp/desk.db
completion:
  provider: gemini
  model: gemini-2.0-flash
limits:
  actions_per_minute: 3
server:
  read_timeout: 3s
`)
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("OPENAI_API_KEY", "ignored")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.True(t, cfg.Telegram.InlineReplies)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/desk.db", cfg.Database.Path)
	assert.Equal(t, "gemini", cfg.Completion.Provider)
	assert.Equal(t, "gem-key", cfg.Completion.APIKey)
	assert.Equal(t, 3, cfg.Limits.ActionsPerMinute)
	assert.Equal(t, 100, cfg.Limits.ActionsPerDay)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadConfigDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://desk:pw@db.internal:6543/frontdesk?sslmode=require")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DatabaseConfig{
		Driver:   "postgres",
		Host:     "db.internal",
		Port:     6543,
		User:     "desk",
		Password: "pw",
		DBName:   "frontdesk",
		SSLMode:  "require",
	}, cfg.Database)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "completion:\n  provider: llama\n"))
	assert.ErrorContains(t, err, "unknown completion provider")

	_, err = LoadConfig(writeConfig(t, "database:\n  driver: mongo\n"))
	assert.ErrorContains(t, err, "unknown database driver")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "mysql://x@y/z")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestParseDatabaseURLDefaults(t *testing.T) {
	cfg, err := parseDatabaseURL("postgresql://desk@localhost/frontdesk")
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Empty(t, cfg.Password)
}
