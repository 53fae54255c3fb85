package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/raphaelgruber/paydesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessageLog mimics the SurrealDB message table in memory.
type fakeMessageLog struct {
	mu         sync.Mutex
	rows       map[string]models.Message
	embeddings map[string][]float32

	createErr error
	readErr   error
	deleteErr error
}

func newFakeMessageLog() *fakeMessageLog {
	return &fakeMessageLog{
		rows:       make(map[string]models.Message),
		embeddings: make(map[string][]float32),
	}
}

func (f *fakeMessageLog) CreateMessage(_ context.Context, msg models.Message, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.rows[msg.ID]; exists {
		return errors.New("record already exists")
	}
	f.rows[msg.ID] = msg
	if len(embedding) > 0 {
		f.embeddings[msg.ID] = embedding
	}
	return nil
}

func (f *fakeMessageLog) RecentMessages(_ context.Context, conversationID string, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := []models.Message{}
	for _, m := range f.rows {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageLog) DeleteConversation(_ context.Context, conversationID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	n := 0
	for id, m := range f.rows {
		if m.ConversationID == conversationID {
			delete(f.rows, id)
			delete(f.embeddings, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageLog) SearchMessages(_ context.Context, conversationID string, embedding []float32, limit int) ([]models.ScoredMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []models.ScoredMessage
	for id, vec := range f.embeddings {
		m := f.rows[id]
		if m.ConversationID != conversationID {
			continue
		}
		var d float64
		for i := range vec {
			if i < len(embedding) {
				diff := float64(vec[i] - embedding[i])
				d += diff * diff
			}
		}
		out = append(out, models.ScoredMessage{Message: m, Distance: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func TestSurrealStorePutStoresEmbedding(t *testing.T) {
	ctx := context.Background()
	log := newFakeMessageLog()
	embedder := &stubEmbedder{vectors: map[string][]float32{"refund please": {1, 0, 0}}}
	store := NewSurrealStore(log, embedder, nil)

	msg, err := store.Put(ctx, models.Message{ConversationID: "c1", Role: models.RoleUser, Content: "refund please"})
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, []float32{1, 0, 0}, log.embeddings[msg.ID])
}

func TestSurrealStorePutSurvivesEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	log := newFakeMessageLog()
	store := NewSurrealStore(log, &stubEmbedder{err: errors.New("model not loaded")}, nil)

	msg, err := store.Put(ctx, models.Message{ConversationID: "c1", Role: models.RoleUser, Content: "hello"})
	require.NoError(t, err)

	msgs, err := store.Fetch(ctx, "c1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.ID, msgs[0].ID)
	assert.Empty(t, log.embeddings)
}

func TestSurrealStoreWrapsBackendErrors(t *testing.T) {
	ctx := context.Background()
	backend := errors.New("socket closed")
	log := newFakeMessageLog()
	log.createErr = backend
	log.readErr = backend
	log.deleteErr = backend
	store := NewSurrealStore(log, &stubEmbedder{}, nil)

	_, err := store.Put(ctx, models.Message{ConversationID: "c1", Role: models.RoleUser, Content: "hi"})
	assert.ErrorIs(t, err, ErrStoreWrite)
	assert.ErrorIs(t, err, backend)

	_, err = store.Fetch(ctx, "c1", 10)
	assert.ErrorIs(t, err, ErrStoreRead)
	assert.ErrorIs(t, err, backend)

	err = store.DeleteAll(ctx, "c1")
	assert.ErrorIs(t, err, ErrStoreWrite)

	_, err = store.Search(ctx, "c1", "hi", 3)
	assert.ErrorIs(t, err, ErrStoreRead)
}

func TestSurrealStoreSearch(t *testing.T) {
	ctx := context.Background()
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"where is my order":   {1, 0, 0},
		"thanks, bye":         {0, 1, 0},
		"order status please": {0.9, 0.1, 0},
	}}
	store := NewSurrealStore(newFakeMessageLog(), embedder, nil)

	_, err := store.Put(ctx, models.Message{ConversationID: "c1", Role: models.RoleUser, Content: "where is my order"})
	require.NoError(t, err)
	_, err = store.Put(ctx, models.Message{ConversationID: "c1", Role: models.RoleUser, Content: "thanks, bye"})
	require.NoError(t, err)

	results, err := store.Search(ctx, "c1", "order status please", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "where is my order", results[0].Content)
}

func TestSurrealStoreSearchWithoutEmbedder(t *testing.T) {
	store := NewSurrealStore(newFakeMessageLog(), nil, nil)
	_, err := store.Search(context.Background(), "c1", "anything", 3)
	assert.ErrorIs(t, err, ErrSearchUnsupported)
}
