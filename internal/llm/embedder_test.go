package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/raphaelgruber/paydesk/internal/config"
	"github.com/raphaelgruber/paydesk/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddings struct {
	vectors [][]float32
	err     error
}

func (f fakeEmbeddings) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return f.vectors, f.err
}

func (f fakeEmbeddings) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[0], nil
}

func TestEmbed(t *testing.T) {
	collector := metrics.NewCollector()
	e := NewEmbedderFrom(fakeEmbeddings{vectors: [][]float32{{0.1, 0.2, 0.3}}}, "mini", 3, collector)

	vec, err := e.Embed(context.Background(), "where is my order")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "mini", e.Model())
	assert.Equal(t, 3, e.Dimension())
	assert.Equal(t, int64(1), collector.Snapshot().Embedding.Count)
}

func TestEmbedErrors(t *testing.T) {
	tests := []struct {
		name    string
		fake    fakeEmbeddings
		wantErr string
	}{
		{"provider error", fakeEmbeddings{err: errors.New("model not found")}, "model not found"},
		{"empty result", fakeEmbeddings{}, "no embedding returned"},
		{"wrong dimension", fakeEmbeddings{vectors: [][]float32{{1, 2}}}, "dimension mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := metrics.NewCollector()
			e := NewEmbedderFrom(tt.fake, "mini", 3, collector)
			_, err := e.Embed(context.Background(), "text")
			assert.ErrorContains(t, err, tt.wantErr)
			assert.Equal(t, int64(1), collector.Snapshot().Embedding.Errors)
		})
	}
}

func TestNewEmbedderUnsupportedProvider(t *testing.T) {
	_, err := NewEmbedder(config.Config{EmbedProvider: "bedrock"}, nil)
	assert.ErrorContains(t, err, "unsupported embedding provider")

	_, err = NewEmbedder(config.Config{EmbedProvider: config.ProviderOpenAI}, nil)
	assert.ErrorContains(t, err, "API key required")
}
