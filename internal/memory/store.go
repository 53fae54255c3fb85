// Package memory keeps per-conversation message logs on top of stores that do
// not return records in chronological order.
package memory

import (
	"context"
	"errors"

	"github.com/raphaelgruber/paydesk/internal/models"
)

// Sentinel errors. Backends wrap their driver errors with one of these so
// callers can tell store failures apart from bad input.
var (
	ErrStoreRead       = errors.New("store read failed")
	ErrStoreWrite      = errors.New("store write failed")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSearchUnsupported is returned by Search when the store keeps no vectors.
	ErrSearchUnsupported = errors.New("similarity search not available")
)

// Store is the physical message log. It exclusively owns message records.
type Store interface {
	// Put writes a new record for msg.ConversationID, msg.Role and
	// msg.Content. It assigns a fresh ID and a sequence key greater than any
	// previously minted one and returns the stored message. There is no
	// update path: every call creates a record.
	Put(ctx context.Context, msg models.Message) (models.Message, error)

	// Fetch returns up to limit of the most recent messages of a
	// conversation. Callers must not rely on the order of the result.
	Fetch(ctx context.Context, conversationID string, limit int) ([]models.Message, error)

	// DeleteAll removes every message of a conversation. Deleting an empty
	// or unknown conversation succeeds.
	DeleteAll(ctx context.Context, conversationID string) error

	Close() error
}

// Searcher is implemented by stores that can rank a conversation's messages
// by similarity to free text.
type Searcher interface {
	Search(ctx context.Context, conversationID, query string, limit int) ([]models.ScoredMessage, error)
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
