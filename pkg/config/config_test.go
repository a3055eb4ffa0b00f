package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SEARCH_TUNING_FILE", "")
	t.Setenv("SEARCH_DEFAULT_THRESHOLD", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.40, cfg.Search.DefaultThreshold)
	assert.Equal(t, 200, cfg.Search.GenericBatchSize)
	assert.Equal(t, 400, cfg.Search.DeviceBatchSize)
	assert.Equal(t, 500, cfg.Search.ClinicBatchSize)
	assert.Equal(t, "http", cfg.OpenAI.Backend)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
}

func TestLoad_EmbeddingConfig(t *testing.T) {
	t.Setenv("EMBEDDING_URL", "http://embedder:11434/api/embeddings")
	t.Setenv("EMBEDDING_MODEL", "mxbai-embed-large")
	t.Setenv("EMBEDDING_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://embedder:11434/api/embeddings", cfg.Embedding.URL)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedding.Model)
	assert.Equal(t, 3, cfg.Embedding.TimeoutSeconds)
}

func TestLoad_InvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("SEARCH_DEFAULT_THRESHOLD", "high")
	t.Setenv("SEARCH_WORKERS", "many")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.40, cfg.Search.DefaultThreshold)
	assert.Equal(t, 8, cfg.Search.Workers)
}

func TestLoad_SearchTuningFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	content := "default_threshold: 0.55\nclinic_batch_size: 250\nworkers: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SEARCH_TUNING_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.55, cfg.Search.DefaultThreshold)
	assert.Equal(t, 250, cfg.Search.ClinicBatchSize)
	assert.Equal(t, 2, cfg.Search.Workers)
	// untouched keys keep their env/default values
	assert.Equal(t, 400, cfg.Search.DeviceBatchSize)
}

func TestLoad_MissingTuningFile(t *testing.T) {
	t.Setenv("SEARCH_TUNING_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "medbook", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=medbook sslmode=require", cfg.DatabaseDSN())
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://medbook.se, https://admin.medbook.se,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://medbook.se", "https://admin.medbook.se"}, cfg.Server.AllowedOrigins)
}
