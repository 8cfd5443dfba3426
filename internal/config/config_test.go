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
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigFromFile(t *testing.T) {
	storage := t.TempDir()
	dir := writeConfig(t, `
server:
  port: "9090"
  mode: debug
database:
  driver: sqlite
  path: test.db
jwt:
  secret: short
storage:
  type: local
  local_path: `+storage+`
youtube:
  api_key: file-key
ingestion:
  backfill_durations: true
  backfill_concurrency: 8
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file-key", cfg.YouTube.APIKey)
	assert.Equal(t, 10*time.Second, cfg.YouTube.Timeout())
	assert.True(t, cfg.Ingestion.BackfillDurations)
	assert.Equal(t, 8, cfg.Ingestion.BackfillConcurrency)
	assert.Equal(t, "cloudinary", cfg.Ingestion.DefaultVideoProvider)
	assert.Equal(t, 24*time.Hour, cfg.Ingestion.IdempotencyTTL())
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.FilePath)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, "youtube:\n  api_key: file-key\nstorage:\n  local_path: "+t.TempDir()+"\n")
	t.Setenv("YOUTUBE_API_KEY", "env-key")
	t.Setenv("DATABASE_DRIVER", "postgres")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.YouTube.APIKey)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv("COURSE_AUTHORING_STORAGE_LOCAL_PATH", t.TempDir())

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Empty(t, cfg.FilePath)
}

func TestLoadConfigRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, "server:\n  mode: release\njwt:\n  secret: short\nstorage:\n  local_path: "+t.TempDir()+"\n")

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
