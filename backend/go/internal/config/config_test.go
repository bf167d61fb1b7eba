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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvOllamaBaseURL, "")
	t.Setenv(EnvOllamaModel, "")
	t.Setenv(EnvDataPath, "")
	t.Setenv(EnvHTTPAddress, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv(EnvOllamaModel, "")
	path := writeConfig(t, `
search:
  bonusScheme: phrase
ingest:
  maxFiles: 20
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "phrase", cfg.Search.BonusScheme)
	assert.Equal(t, 0.2, cfg.Search.Threshold)
	assert.Equal(t, 5, cfg.Search.DefaultTopK)
	assert.Equal(t, 3, cfg.Ingest.MinFiles)
	assert.Equal(t, 20, cfg.Ingest.MaxFiles)
	assert.Equal(t, "tinyllama:1.1b", cfg.LLM.Ollama.Model)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvOllamaBaseURL, "http://localhost:11434")
	t.Setenv(EnvOllamaModel, "llama3")
	t.Setenv(EnvDataPath, "/tmp/docs.json")
	t.Setenv(EnvHTTPAddress, ":9000")

	cfg, err := LoadConfig(writeConfig(t, "llm:\n  ollama:\n    model: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.Ollama.BaseURL)
	assert.Equal(t, "llama3", cfg.LLM.Ollama.Model)
	assert.Equal(t, "/tmp/docs.json", cfg.Store.Path)
	assert.Equal(t, ":9000", cfg.HTTP.Address)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "search: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"min files zero", func(c *AppConfig) { c.Ingest.MinFiles = 0 }},
		{"max below min", func(c *AppConfig) { c.Ingest.MaxFiles = 2 }},
		{"threshold too high", func(c *AppConfig) { c.Search.Threshold = 1 }},
		{"negative threshold", func(c *AppConfig) { c.Search.Threshold = -0.1 }},
		{"zero top k", func(c *AppConfig) { c.Search.DefaultTopK = 0 }},
		{"unknown store", func(c *AppConfig) { c.Store.Type = "s3" }},
		{"empty file path", func(c *AppConfig) { c.Store.Path = "" }},
		{"unknown provider", func(c *AppConfig) { c.LLM.Provider = "gemini" }},
		{"bad duration", func(c *AppConfig) { c.LLM.Ollama.Timeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 500*time.Second, Duration("500s", time.Second))
	assert.Equal(t, time.Second, Duration("", time.Second))
	assert.Equal(t, time.Second, Duration("later", time.Second))
	assert.Equal(t, time.Second, Duration("-5s", time.Second))
}

func TestApplyEnv_IgnoresBlankValues(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(func(key string) (string, bool) { return "   ", true })
	assert.Equal(t, Default(), cfg)
}
