package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/paydesk/internal/models"
)

// InMemoryStore is a simple in-process memory store for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]models.Message
	seq     *Sequencer
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string][]models.Message),
		seq:     processSequencer,
	}
}

func (s *InMemoryStore) Put(_ context.Context, msg models.Message) (models.Message, error) {
	if err := validateDraft(msg); err != nil {
		return models.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	msg = stamp(msg, s.seq)
	s.records[msg.ConversationID] = append(s.records[msg.ConversationID], msg)
	return msg, nil
}

func (s *InMemoryStore) Fetch(_ context.Context, conversationID string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.records[conversationID]
	if len(arr) == 0 {
		return []models.Message{}, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	// Records are appended under the lock in minting order.
	out := make([]models.Message, limit)
	copy(out, arr[len(arr)-limit:])
	return out, nil
}

func (s *InMemoryStore) DeleteAll(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, conversationID)
	return nil
}

// Search ranks by shared lowercase words; good enough for dev without vectors.
func (s *InMemoryStore) Search(_ context.Context, conversationID, query string, limit int) ([]models.ScoredMessage, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []models.ScoredMessage{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ScoredMessage
	for _, msg := range s.records[conversationID] {
		content := strings.ToLower(msg.Content)
		hits := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		out = append(out, models.ScoredMessage{
			Message:  msg,
			Distance: 1 - float64(hits)/float64(len(terms)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []models.ScoredMessage{}
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }

// validateDraft checks the caller-supplied fields of a message about to be stored.
func validateDraft(msg models.Message) error {
	if strings.TrimSpace(msg.ConversationID) == "" {
		return fmt.Errorf("%w: conversation id is required", ErrInvalidArgument)
	}
	if !msg.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, msg.Role)
	}
	return nil
}

// stamp assigns the store-owned fields of a new record.
func stamp(msg models.Message, seq *Sequencer) models.Message {
	msg.ID = uuid.NewString()
	msg.Seq = seq.Next()
	msg.CreatedAt = time.Now().UTC()
	return msg
}
