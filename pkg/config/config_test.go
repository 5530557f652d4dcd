package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbedModelResolution(t *testing.T) {
	t.Run("hardcoded fallback", func(t *testing.T) {
		t.Setenv("OLLAMA_EMBED_MODEL", "")
		t.Setenv("EMBED_MODEL_DEFAULT", "")
		assert.Equal(t, FallbackEmbedModel, Load().OllamaEmbedModel)
	})

	t.Run("injected default beats fallback", func(t *testing.T) {
		t.Setenv("OLLAMA_EMBED_MODEL", "")
		t.Setenv("EMBED_MODEL_DEFAULT", "injected-model")
		assert.Equal(t, "injected-model", Load().OllamaEmbedModel)
	})

	t.Run("manual override beats injected default", func(t *testing.T) {
		t.Setenv("OLLAMA_EMBED_MODEL", "manual-model")
		t.Setenv("EMBED_MODEL_DEFAULT", "injected-model")
		assert.Equal(t, "manual-model", Load().OllamaEmbedModel)
	})
}

func TestEmbedEndpointAbsentByDefault(t *testing.T) {
	t.Setenv("OLLAMA_EMBED_URL", "")
	t.Setenv("OLLAMA_BASE_URL", "")
	assert.Empty(t, Load().OllamaEmbedURL)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("OLLAMA_EMBED_URL", "")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("EMBED_CHUNK_LIMIT", "1000")

	cfg := Load()
	assert.Equal(t, "http://ollama:11434", cfg.OllamaEmbedURL)
	assert.Equal(t, 1000, cfg.EmbedChunkLimit)
}

func TestLogLevel(t *testing.T) {
	t.Run("defaults to info", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "")
		assert.Equal(t, slog.LevelInfo, Load().LogLevel)
	})

	t.Run("parses named levels", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")
		assert.Equal(t, slog.LevelDebug, Load().LogLevel)

		t.Setenv("LOG_LEVEL", "WARN")
		assert.Equal(t, slog.LevelWarn, Load().LogLevel)

		t.Setenv("LOG_LEVEL", "error")
		assert.Equal(t, slog.LevelError, Load().LogLevel)
	})

	t.Run("garbage falls back to info", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loudest")
		assert.Equal(t, slog.LevelInfo, Load().LogLevel)
	})
}
