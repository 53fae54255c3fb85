package memory

import (
	"context"
	"time"

	"github.com/raphaelgruber/paydesk/internal/metrics"
	"github.com/raphaelgruber/paydesk/internal/models"
)

// InstrumentedStore times every store call into a metrics collector.
type InstrumentedStore struct {
	next    Store
	metrics *metrics.Collector
}

// WithMetrics wraps store so each operation is recorded in c.
func WithMetrics(store Store, c *metrics.Collector) *InstrumentedStore {
	return &InstrumentedStore{next: store, metrics: c}
}

func (s *InstrumentedStore) Put(ctx context.Context, msg models.Message) (models.Message, error) {
	start := time.Now()
	stored, err := s.next.Put(ctx, msg)
	s.metrics.RecordTiming(metrics.OpStorePut, time.Since(start), err)
	return stored, err
}

func (s *InstrumentedStore) Fetch(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	start := time.Now()
	msgs, err := s.next.Fetch(ctx, conversationID, limit)
	s.metrics.RecordTiming(metrics.OpStoreFetch, time.Since(start), err)
	return msgs, err
}

func (s *InstrumentedStore) DeleteAll(ctx context.Context, conversationID string) error {
	start := time.Now()
	err := s.next.DeleteAll(ctx, conversationID)
	s.metrics.RecordTiming(metrics.OpStoreDelete, time.Since(start), err)
	return err
}

// Search forwards to the wrapped store when it supports similarity search.
func (s *InstrumentedStore) Search(ctx context.Context, conversationID, query string, limit int) ([]models.ScoredMessage, error) {
	searcher, ok := s.next.(Searcher)
	if !ok {
		return nil, ErrSearchUnsupported
	}
	return searcher.Search(ctx, conversationID, query, limit)
}

func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}
