// Package config loads paydesk configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Memory backends.
const (
	BackendSurreal  = "surreal"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// LLM and embedding providers.
const (
	ProviderGoogleAI  = "googleai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderBedrock   = "bedrock"
)

// DefaultServerPort keeps the HTTP server off SurrealDB's default port 8000.
const DefaultServerPort = "8484"

// DefaultSystemPrompt frames the support agent persona.
const DefaultSystemPrompt = `You are a helpful customer support agent for an e-commerce store.
You can look up customer purchase information when they provide their purchase ID.
Be friendly, professional, and concise in your responses.
If you don't know something, say so clearly and ask for more information if needed.`

// Config holds all configuration values.
type Config struct {
	// Conversation memory
	MemoryBackend  string
	MaxMemoryItems int

	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// PostgreSQL memory backend
	PostgresURL string

	// Payment lookup cache
	RedisURL        string
	PaymentCacheTTL time.Duration

	// Text generation
	LLMProvider     string
	LLMModel        string
	SystemPrompt    string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string

	// Message embeddings (empty provider disables them)
	EmbedProvider  string
	EmbedModel     string
	EmbedDimension int

	// HTTP server
	ServerPort string
	SeedData   bool

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		MemoryBackend:  strings.ToLower(getEnv("PAYDESK_MEMORY_BACKEND", BackendSurreal)),
		MaxMemoryItems: getEnvInt("MAX_MEMORY_ITEMS", 10),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "paydesk"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "support"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		PostgresURL: getEnv("PAYDESK_POSTGRES_URL", ""),

		RedisURL:        getEnv("PAYDESK_REDIS_URL", ""),
		PaymentCacheTTL: getEnvDuration("PAYDESK_PAYMENT_CACHE_TTL", 5*time.Minute),

		LLMProvider:     strings.ToLower(getEnv("PAYDESK_LLM_PROVIDER", ProviderGoogleAI)),
		LLMModel:        getEnv("PAYDESK_LLM_MODEL", "gemini-2.0-flash"),
		SystemPrompt:    getEnv("PAYDESK_SYSTEM_PROMPT", DefaultSystemPrompt),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),

		EmbedProvider:  strings.ToLower(getEnv("PAYDESK_EMBED_PROVIDER", "")),
		EmbedModel:     getEnv("PAYDESK_EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("PAYDESK_EMBED_DIMENSION", 384),

		ServerPort: getEnv("PAYDESK_SERVER_PORT", DefaultServerPort),
		SeedData:   getEnv("PAYDESK_SEED", "false") == "true",

		LogFile:  getEnv("PAYDESK_LOG_FILE", "/tmp/paydesk.log"),
		LogLevel: parseLogLevel(getEnv("PAYDESK_LOG_LEVEL", "INFO")),
	}
}

// Validate reports configuration values that cannot work.
func (c Config) Validate() error {
	switch c.MemoryBackend {
	case BackendSurreal, BackendMemory:
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("postgres memory backend requires PAYDESK_POSTGRES_URL")
		}
	default:
		return fmt.Errorf("unsupported memory backend: %s", c.MemoryBackend)
	}

	if c.MaxMemoryItems <= 0 {
		return fmt.Errorf("MAX_MEMORY_ITEMS must be positive, got %d", c.MaxMemoryItems)
	}

	switch c.LLMProvider {
	case ProviderGoogleAI, ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderBedrock:
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}

	switch c.EmbedProvider {
	case "":
	case ProviderOllama, ProviderOpenAI:
		if c.EmbedDimension <= 0 {
			return fmt.Errorf("PAYDESK_EMBED_DIMENSION must be positive, got %d", c.EmbedDimension)
		}
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.EmbedProvider)
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
