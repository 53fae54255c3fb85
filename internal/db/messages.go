package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/paydesk/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// messageFields is the projection used by every message read.
const messageFields = "id, conversation_id, role, content, seq, created_at"

// messageRow is the wire shape of a message record.
type messageRow struct {
	ID             surrealmodels.RecordID `json:"id"`
	ConversationID string                 `json:"conversation_id"`
	Role           string                 `json:"role"`
	Content        string                 `json:"content"`
	Seq            int64                  `json:"seq"`
	CreatedAt      time.Time              `json:"created_at"`
	Distance       float64                `json:"distance,omitempty"`
}

func (r messageRow) toMessage() (models.Message, error) {
	id, err := models.RecordIDString(r.ID)
	if err != nil {
		return models.Message{}, err
	}
	return models.Message{
		ID:             id,
		ConversationID: r.ConversationID,
		Role:           models.Role(r.Role),
		Content:        r.Content,
		Seq:            r.Seq,
		CreatedAt:      r.CreatedAt,
	}, nil
}

// CreateMessage inserts a new message record. It never updates: a reused ID
// fails with ErrRecordExists. A nil embedding leaves the vector field unset.
func (c *Client) CreateMessage(ctx context.Context, msg models.Message, embedding []float32) error {
	embeddingClause := ""
	vars := map[string]any{
		"id":              msg.ID,
		"conversation_id": msg.ConversationID,
		"role":            string(msg.Role),
		"content":         msg.Content,
		"seq":             msg.Seq,
		"created_at":      msg.CreatedAt,
	}
	if len(embedding) > 0 {
		embeddingClause = ", embedding = $embedding"
		vars["embedding"] = embedding
	}

	sql := fmt.Sprintf(`
		CREATE type::record("message", $id) SET
			conversation_id = $conversation_id,
			role = $role,
			content = $content,
			seq = $seq,
			created_at = $created_at%s
		RETURN NONE
	`, embeddingClause)

	if _, err := surrealdb.Query[any](ctx, c.db, sql, vars); err != nil {
		return fmt.Errorf("create message: %w", wrapQueryError(err))
	}
	return nil
}

// RecentMessages returns the newest limit messages of a conversation,
// newest first. The (conversation_id, seq) index makes this a range scan.
func (c *Client) RecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM message
		WHERE conversation_id = $conversation_id
		ORDER BY seq DESC
		LIMIT $limit
	`, messageFields)

	results, err := surrealdb.Query[[]messageRow](ctx, c.db, sql, map[string]any{
		"conversation_id": conversationID,
		"limit":           limit,
	})
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", wrapQueryError(err))
	}

	return rowsToMessages(results)
}

// DeleteConversation removes every message of a conversation in one
// statement and returns how many were removed (0 if none - idempotent).
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) (int, error) {
	results, err := surrealdb.Query[[]messageRow](ctx, c.db, `
		DELETE message WHERE conversation_id = $conversation_id RETURN BEFORE
	`, map[string]any{"conversation_id": conversationID})
	if err != nil {
		return 0, fmt.Errorf("delete conversation: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	return len((*results)[0].Result), nil
}

// SearchMessages returns the messages of a conversation nearest to
// embedding, closest first. Messages stored without a vector never match.
func (c *Client) SearchMessages(ctx context.Context, conversationID string, embedding []float32, limit int) ([]models.ScoredMessage, error) {
	// HNSW with ef=40 for better recall
	sql := fmt.Sprintf(`
		SELECT %s, vector::distance::knn() AS distance FROM message
		WHERE conversation_id = $conversation_id AND embedding <|%d,40|> $embedding
		ORDER BY distance
	`, messageFields, limit)

	results, err := surrealdb.Query[[]messageRow](ctx, c.db, sql, map[string]any{
		"conversation_id": conversationID,
		"embedding":       embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.ScoredMessage{}, nil
	}

	rows := (*results)[0].Result
	out := make([]models.ScoredMessage, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toMessage()
		if err != nil {
			return nil, fmt.Errorf("search messages: %w", err)
		}
		out = append(out, models.ScoredMessage{Message: msg, Distance: row.Distance})
	}
	return out, nil
}

func rowsToMessages(results *[]surrealdb.QueryResult[[]messageRow]) ([]models.Message, error) {
	if results == nil || len(*results) == 0 {
		return []models.Message{}, nil
	}

	rows := (*results)[0].Result
	out := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toMessage()
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}
