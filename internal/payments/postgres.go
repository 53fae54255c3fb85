package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/raphaelgruber/paydesk/internal/models"
)

// PostgresSource reads payments from a PostgreSQL table. Line items are
// kept as JSONB.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates the payments table if needed.
func NewPostgresSource(ctx context.Context, pool *pgxpool.Pool) (*PostgresSource, error) {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS payments (
		payment_id TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL DEFAULT '',
		customer_email TEXT NOT NULL DEFAULT '',
		amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		items JSONB NOT NULL DEFAULT '[]'::jsonb,
		date TEXT NOT NULL DEFAULT ''
	);`); err != nil {
		return nil, fmt.Errorf("init payments schema: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

func (s *PostgresSource) GetPayment(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	var items []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payment_id, customer_name, customer_email, amount, currency, status, items, date
		 FROM payments WHERE payment_id=$1`,
		reference,
	).Scan(&p.Reference, &p.CustomerName, &p.CustomerEmail, &p.Amount, &p.Currency, &p.Status, &items, &p.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query payment %s: %w", reference, err)
	}
	if err := json.Unmarshal(items, &p.Items); err != nil {
		return nil, fmt.Errorf("decode items of payment %s: %w", reference, err)
	}
	return &p, nil
}

func (s *PostgresSource) UpsertPayments(ctx context.Context, payments []models.Payment) (int, error) {
	batch := &pgx.Batch{}
	for _, p := range payments {
		if p.Reference == "" {
			return 0, fmt.Errorf("upsert payment: missing payment_id")
		}
		items := p.Items
		if items == nil {
			items = []models.PaymentItem{}
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return 0, fmt.Errorf("encode items of payment %s: %w", p.Reference, err)
		}
		batch.Queue(`INSERT INTO payments (payment_id, customer_name, customer_email, amount, currency, status, items, date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (payment_id) DO UPDATE SET
				customer_name = EXCLUDED.customer_name,
				customer_email = EXCLUDED.customer_email,
				amount = EXCLUDED.amount,
				currency = EXCLUDED.currency,
				status = EXCLUDED.status,
				items = EXCLUDED.items,
				date = EXCLUDED.date`,
			p.Reference, p.CustomerName, p.CustomerEmail, p.Amount, p.Currency, p.Status, string(raw), p.Date)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("upsert payments: %w", err)
	}
	return len(payments), nil
}
