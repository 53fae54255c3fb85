package memory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/raphaelgruber/paydesk/internal/models"
)

// PostgresStore persists conversation messages in PostgreSQL.
// The pool is owned by the caller; Close does not close it.
type PostgresStore struct {
	pool *pgxpool.Pool
	seq  *Sequencer
}

// NewPostgresStore creates the message table if needed and returns a store on pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if err := initSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, seq: processSequencer}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
			content TEXT NOT NULL,
			seq BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_messages_conv_seq ON conversation_messages (conversation_id, seq);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, msg models.Message) (models.Message, error) {
	if err := validateDraft(msg); err != nil {
		return models.Message{}, err
	}
	msg = stamp(msg, s.seq)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_messages (id, conversation_id, role, content, seq, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID,
		msg.ConversationID,
		string(msg.Role),
		msg.Content,
		msg.Seq,
		msg.CreatedAt,
	)
	if err != nil {
		return models.Message{}, fmt.Errorf("%w: insert message: %w", ErrStoreWrite, err)
	}
	return msg, nil
}

func (s *PostgresStore) Fetch(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultMaxItems
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, seq, created_at
		 FROM conversation_messages WHERE conversation_id=$1 ORDER BY seq DESC LIMIT $2`,
		conversationID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query messages: %w", ErrStoreRead, err)
	}
	defer rows.Close()

	items := make([]models.Message, 0, limit)
	for rows.Next() {
		var m models.Message
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.Seq, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan message row: %w", ErrStoreRead, err)
		}
		m.Role = models.Role(role)
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate message rows: %w", ErrStoreRead, err)
	}

	return items, nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context, conversationID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_messages WHERE conversation_id=$1`,
		conversationID,
	); err != nil {
		return fmt.Errorf("%w: delete conversation: %w", ErrStoreWrite, err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return nil }
