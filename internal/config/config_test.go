package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PAYDESK_MEMORY_BACKEND", "MAX_MEMORY_ITEMS", "PAYDESK_LLM_PROVIDER",
		"PAYDESK_PAYMENT_CACHE_TTL", "PAYDESK_EMBED_PROVIDER", "PAYDESK_SEED",
		"PAYDESK_SERVER_PORT", "SURREALDB_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, BackendSurreal, cfg.MemoryBackend)
	assert.Equal(t, 10, cfg.MaxMemoryItems)
	assert.Equal(t, ProviderGoogleAI, cfg.LLMProvider)
	assert.Equal(t, 5*time.Minute, cfg.PaymentCacheTTL)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Empty(t, cfg.EmbedProvider)
	assert.False(t, cfg.SeedData)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8484", cfg.ServerPort)
	surreal, err := url.Parse(cfg.SurrealDBURL)
	require.NoError(t, err)
	assert.NotEqual(t, surreal.Port(), cfg.ServerPort, "server and local SurrealDB must not share a port")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PAYDESK_MEMORY_BACKEND", "Memory")
	t.Setenv("MAX_MEMORY_ITEMS", "25")
	t.Setenv("PAYDESK_PAYMENT_CACHE_TTL", "90s")
	t.Setenv("PAYDESK_LOG_LEVEL", "debug")
	t.Setenv("PAYDESK_SEED", "true")

	cfg := Load()

	assert.Equal(t, BackendMemory, cfg.MemoryBackend)
	assert.Equal(t, 25, cfg.MaxMemoryItems)
	assert.Equal(t, 90*time.Second, cfg.PaymentCacheTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.SeedData)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_MEMORY_ITEMS", "lots")
	t.Setenv("PAYDESK_PAYMENT_CACHE_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 10, cfg.MaxMemoryItems)
	assert.Equal(t, 5*time.Minute, cfg.PaymentCacheTTL)
}

func TestValidate(t *testing.T) {
	valid := Config{
		MemoryBackend:  BackendSurreal,
		MaxMemoryItems: 10,
		LLMProvider:    ProviderOllama,
		EmbedDimension: 384,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.MemoryBackend = "chroma" }, "unsupported memory backend"},
		{"postgres without url", func(c *Config) { c.MemoryBackend = BackendPostgres }, "PAYDESK_POSTGRES_URL"},
		{"postgres with url", func(c *Config) {
			c.MemoryBackend = BackendPostgres
			c.PostgresURL = "postgres://localhost/paydesk"
		}, ""},
		{"zero memory items", func(c *Config) { c.MaxMemoryItems = 0 }, "MAX_MEMORY_ITEMS"},
		{"unknown llm", func(c *Config) { c.LLMProvider = "gpt" }, "unsupported LLM provider"},
		{"unknown embedder", func(c *Config) { c.EmbedProvider = "voyage" }, "unsupported embedding provider"},
		{"embedder without dimension", func(c *Config) {
			c.EmbedProvider = ProviderOllama
			c.EmbedDimension = 0
		}, "PAYDESK_EMBED_DIMENSION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("conversation cleared", "conversation_id", "abc")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "conversation cleared")

	var record map[string]any
	line := strings.TrimSpace(file.String())
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "conversation cleared", record["msg"])
	assert.Equal(t, "abc", record["conversation_id"])
	assert.Equal(t, "paydesk", record["service"])
}

func TestLoggerRedactsSecrets(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("authenticating", "user", "root", "password", "hunter2", "API_KEY", "sk-123")

	for _, out := range []string{stderr.String(), file.String()} {
		assert.NotContains(t, out, "hunter2")
		assert.NotContains(t, out, "sk-123")
		assert.Contains(t, out, "[redacted]")
		assert.Contains(t, out, "root")
	}
}

func TestSetupLoggerCreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "paydesk.log")

	logger, closeLog := SetupLogger(path, slog.LevelInfo)
	logger.Info("payment lookup", "reference", "PAY123456")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reference":"PAY123456"`)
}
