package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/raphaelgruber/paydesk/internal/models"
)

const (
	// DefaultMaxItems bounds how many past messages History returns.
	DefaultMaxItems = 10

	// EmptyHistoryText is what FormatForPrompt renders for a new conversation.
	EmptyHistoryText = "No previous conversation."
)

// Conversation is the view of one conversation over a Store. It holds no
// message state: every read goes back to the store.
type Conversation struct {
	id       string
	store    Store
	maxItems int
	logger   *slog.Logger
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithMaxItems sets how many recent messages History returns.
func WithMaxItems(n int) Option {
	return func(c *Conversation) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

// WithLogger sets the logger used for conversation events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conversation) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConversation returns the conversation id on store. An empty id starts
// a new conversation under a random identifier.
func NewConversation(store Store, id string, opts ...Option) *Conversation {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	c := &Conversation{
		id:       id,
		store:    store,
		maxItems: DefaultMaxItems,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string {
	return c.id
}

// AddMessage appends a message to the conversation.
func (c *Conversation) AddMessage(ctx context.Context, role models.Role, content string) (models.Message, error) {
	if !role.Valid() {
		return models.Message{}, fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, role)
	}
	if content == "" {
		return models.Message{}, fmt.Errorf("%w: message content is required", ErrInvalidArgument)
	}

	msg, err := c.store.Put(ctx, models.Message{
		ConversationID: c.id,
		Role:           role,
		Content:        content,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("add %s message to %s: %w", role, c.id, err)
	}

	c.logger.Debug("message stored", "conversation_id", c.id, "message_id", msg.ID, "role", role, "seq", msg.Seq)
	return msg, nil
}

// History returns the most recent messages, oldest first.
func (c *Conversation) History(ctx context.Context) ([]models.HistoryEntry, error) {
	msgs, err := c.store.Fetch(ctx, c.id, c.maxItems)
	if err != nil {
		return nil, fmt.Errorf("load history of %s: %w", c.id, err)
	}

	sortChronologically(msgs)

	history := make([]models.HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, models.HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return history, nil
}

// FormatForPrompt renders History as "Customer: ..." / "Support Agent: ..."
// lines, or EmptyHistoryText when there is nothing yet.
func (c *Conversation) FormatForPrompt(ctx context.Context) (string, error) {
	history, err := c.History(ctx)
	if err != nil {
		return "", err
	}
	return FormatHistory(history), nil
}

// FormatHistory renders history the way FormatForPrompt does.
func FormatHistory(history []models.HistoryEntry) string {
	if len(history) == 0 {
		return EmptyHistoryText
	}

	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, h.Role.Label()+": "+h.Content)
	}
	return strings.Join(lines, "\n")
}

// Clear deletes every message of the conversation. It is safe to repeat
// after a partial failure.
func (c *Conversation) Clear(ctx context.Context) error {
	if err := c.store.DeleteAll(ctx, c.id); err != nil {
		return fmt.Errorf("clear conversation %s: %w", c.id, err)
	}
	c.logger.Info("conversation cleared", "conversation_id", c.id)
	return nil
}

// Search returns the conversation's messages closest to query.
func (c *Conversation) Search(ctx context.Context, query string, limit int) ([]models.ScoredMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidArgument)
	}
	searcher, ok := c.store.(Searcher)
	if !ok {
		return nil, ErrSearchUnsupported
	}
	if limit <= 0 {
		limit = c.maxItems
	}
	return searcher.Search(ctx, c.id, query, limit)
}

// sortChronologically orders by sequence key; ID breaks ties between
// keys minted by different processes.
func sortChronologically(msgs []models.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].Seq != msgs[j].Seq {
			return msgs[i].Seq < msgs[j].Seq
		}
		return msgs[i].ID < msgs[j].ID
	})
}
