package payments

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/paydesk/internal/metrics"
	"github.com/raphaelgruber/paydesk/internal/models"
)

// Source resolves a payment reference. A nil payment with a nil error
// means the reference is unknown.
type Source interface {
	GetPayment(ctx context.Context, reference string) (*models.Payment, error)
}

// Writer stores payment records, replacing existing ones by reference.
type Writer interface {
	UpsertPayments(ctx context.Context, payments []models.Payment) (int, error)
}

// Service looks payments up for the agent. Lookups never fail: a broken
// source is logged and reported as an unknown payment.
type Service struct {
	source  Source
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewService creates a lookup service over source.
func NewService(source Source, m *metrics.Collector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, metrics: m, logger: logger}
}

// Lookup returns the payment for reference, or nil when it is unknown or
// the source is unavailable.
func (s *Service) Lookup(ctx context.Context, reference string) (*models.Payment, error) {
	start := time.Now()
	payment, err := s.source.GetPayment(ctx, reference)
	s.metrics.RecordTiming(metrics.OpPaymentLookup, time.Since(start), err)
	if err != nil {
		s.logger.Warn("payment lookup failed", "reference", reference, "error", err)
		return nil, nil
	}
	if payment == nil {
		s.logger.Info("payment not found", "reference", reference)
		return nil, nil
	}
	s.logger.Debug("payment found", "reference", reference, "status", payment.Status)
	return payment, nil
}
