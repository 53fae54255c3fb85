package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/paydesk/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// GetPayment retrieves a payment by its reference.
// Returns nil if not found.
func (c *Client) GetPayment(ctx context.Context, reference string) (*models.Payment, error) {
	results, err := surrealdb.Query[[]models.Payment](ctx, c.db, `
		SELECT payment_id, customer_name, customer_email, amount, currency, status, items, date
		FROM type::record("payment", $reference)
	`, map[string]any{"reference": reference})
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// UpsertPayments creates or replaces payment records keyed by reference.
// Returns the number of records written.
func (c *Client) UpsertPayments(ctx context.Context, payments []models.Payment) (int, error) {
	written := 0
	for _, p := range payments {
		if p.Reference == "" {
			return written, fmt.Errorf("upsert payment: missing payment_id")
		}
		items := p.Items
		if items == nil {
			items = []models.PaymentItem{}
		}

		_, err := surrealdb.Query[any](ctx, c.db, `
			UPSERT type::record("payment", $reference) SET
				payment_id = $reference,
				customer_name = $customer_name,
				customer_email = $customer_email,
				amount = $amount,
				currency = $currency,
				status = $status,
				items = $items,
				date = $date
			RETURN NONE
		`, map[string]any{
			"reference":      p.Reference,
			"customer_name":  p.CustomerName,
			"customer_email": p.CustomerEmail,
			"amount":         p.Amount,
			"currency":       p.Currency,
			"status":         p.Status,
			"items":          items,
			"date":           p.Date,
		})
		if err != nil {
			return written, fmt.Errorf("upsert payment %s: %w", p.Reference, wrapQueryError(err))
		}
		written++
	}
	return written, nil
}
