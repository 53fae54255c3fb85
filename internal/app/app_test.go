package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/raphaelgruber/paydesk/internal/config"
	"github.com/raphaelgruber/paydesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		MemoryBackend:  config.BackendMemory,
		MaxMemoryItems: 10,
		LLMProvider:    config.ProviderGoogleAI,
		LLMModel:       "gemini-2.0-flash",
		SystemPrompt:   config.DefaultSystemPrompt,
		EmbedDimension: 384,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildMemoryBackend(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, memoryConfig(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })

	p, err := a.Payments.Lookup(ctx, "PAY123456")
	require.NoError(t, err)
	assert.Nil(t, p, "nothing is seeded until asked")

	n, err := a.SeedSamplePayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	p, err = a.Payments.Lookup(ctx, "PAY123456")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "John Doe", p.CustomerName)

	_, err = a.Store.Put(ctx, models.Message{ConversationID: "c", Role: models.RoleUser, Content: "hi"})
	require.NoError(t, err)
	snap := a.Metrics.Snapshot()
	require.NotNil(t, snap.StorePut)
	assert.Equal(t, int64(1), snap.StorePut.Count)

	require.NoError(t, a.WipeData(ctx))

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.MemoryBackend = "cassandra"
	_, err := Build(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "unsupported memory backend")
}

func TestChatServiceNeedsModelCredentials(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, memoryConfig(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })

	_, err = a.ChatService(ctx)
	assert.ErrorContains(t, err, "API key required")
}

func TestCloseIsRepeatable(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, memoryConfig(), quietLogger())
	require.NoError(t, err)
	require.NoError(t, a.Close(ctx))
	require.NoError(t, a.Close(ctx))
}
