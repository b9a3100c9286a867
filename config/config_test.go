package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.AI.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.AI.GenerativeModel)
	assert.Equal(t, 60*time.Second, cfg.AI.RequestTimeout)
	assert.Equal(t, 365, cfg.OpenFDA.DaysBack)
	assert.Equal(t, 100, cfg.OpenFDA.ReportLimit)
	assert.Equal(t, 240, cfg.OpenFDA.RequestsPerMinute)
	assert.Equal(t, 30*time.Second, cfg.OpenFDA.Timeout)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, 20, cfg.Summary.MaxRecords)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Empty(t, cfg.History.Path)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedsafe.yaml")
	content := `
ai:
  generative_model: llama3.2
  request_timeout: 15s
openfda:
  days_back: 30
retrieval:
  top_k: 5
history:
  path: /var/lib/pedsafe
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "llama3.2", cfg.AI.GenerativeModel)
	assert.Equal(t, 15*time.Second, cfg.AI.RequestTimeout)
	assert.Equal(t, 30, cfg.OpenFDA.DaysBack)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, "/var/lib/pedsafe", cfg.History.Path)
	// Untouched keys keep their defaults.
	assert.Equal(t, "embeddinggemma", cfg.AI.EmbeddingModel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedsafe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  top_k: 5\n"), 0o600))

	t.Setenv("PEDSAFE_RETRIEVAL_TOP_K", "7")
	t.Setenv("PEDSAFE_AI_API_KEY", "secret")
	t.Setenv("PEDSAFE_HTTP_ADDR", "127.0.0.1:9000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Retrieval.TopK)
	assert.Equal(t, "secret", cfg.AI.APIKey)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("invalid top k", func(t *testing.T) {
		t.Setenv("PEDSAFE_RETRIEVAL_TOP_K", "0")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "top_k")
	})
}

func TestConfig_AIConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.AI.EmbeddingHost = "http://embed:8080"
	aiCfg, err := cfg.AIConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://embed:8080/v1", aiCfg.EmbeddingHost)
	assert.Equal(t, "qwen2.5:3b", aiCfg.GenerativeModel)

	cfg.AI.EmbeddingModel = ""
	_, err = cfg.AIConfig()
	require.Error(t, err)
}
