package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/paydesk/internal/models"
)

// MessageLog is the subset of the SurrealDB client used by SurrealStore.
type MessageLog interface {
	CreateMessage(ctx context.Context, msg models.Message, embedding []float32) error
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	DeleteConversation(ctx context.Context, conversationID string) (int, error)
	SearchMessages(ctx context.Context, conversationID string, embedding []float32, limit int) ([]models.ScoredMessage, error)
}

// SurrealStore keeps messages in a SurrealDB table with an HNSW index.
// The vector index only serves Search; history reads use the
// (conversation_id, seq) index.
type SurrealStore struct {
	log      MessageLog
	embedder Embedder
	logger   *slog.Logger
	seq      *Sequencer
}

// NewSurrealStore wraps a message log. embedder may be nil, in which case
// messages are stored without vectors and Search is unavailable.
func NewSurrealStore(log MessageLog, embedder Embedder, logger *slog.Logger) *SurrealStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SurrealStore{
		log:      log,
		embedder: embedder,
		logger:   logger,
		seq:      processSequencer,
	}
}

func (s *SurrealStore) Put(ctx context.Context, msg models.Message) (models.Message, error) {
	if err := validateDraft(msg); err != nil {
		return models.Message{}, err
	}
	msg = stamp(msg, s.seq)

	var embedding []float32
	if s.embedder != nil && strings.TrimSpace(msg.Content) != "" {
		vec, err := s.embedder.Embed(ctx, msg.Content)
		if err != nil {
			// The vector only feeds similarity search; the message itself must still land.
			s.logger.Warn("embedding failed, storing message without vector",
				"conversation_id", msg.ConversationID, "message_id", msg.ID, "error", err)
		} else {
			embedding = vec
		}
	}

	if err := s.log.CreateMessage(ctx, msg, embedding); err != nil {
		return models.Message{}, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return msg, nil
}

func (s *SurrealStore) Fetch(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	msgs, err := s.log.RecentMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	return msgs, nil
}

func (s *SurrealStore) DeleteAll(ctx context.Context, conversationID string) error {
	deleted, err := s.log.DeleteConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	s.logger.Debug("conversation deleted", "conversation_id", conversationID, "messages", deleted)
	return nil
}

func (s *SurrealStore) Search(ctx context.Context, conversationID, query string, limit int) ([]models.ScoredMessage, error) {
	if s.embedder == nil {
		return nil, ErrSearchUnsupported
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.log.SearchMessages(ctx, conversationID, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	return results, nil
}

// Close is a no-op; the SurrealDB client is owned by the caller.
func (s *SurrealStore) Close() error { return nil }
