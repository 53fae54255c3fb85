package payments

import (
	"context"
	"fmt"
	"sync"

	"github.com/raphaelgruber/paydesk/internal/models"
)

// MemorySource keeps payments in process. Used with the memory backend
// and in tests.
type MemorySource struct {
	mu       sync.RWMutex
	payments map[string]models.Payment
}

func NewMemorySource(payments ...models.Payment) *MemorySource {
	s := &MemorySource{payments: make(map[string]models.Payment, len(payments))}
	for _, p := range payments {
		s.payments[p.Reference] = p
	}
	return s
}

func (s *MemorySource) GetPayment(_ context.Context, reference string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[reference]
	if !ok {
		return nil, nil
	}
	p.Items = append([]models.PaymentItem(nil), p.Items...)
	return &p, nil
}

func (s *MemorySource) UpsertPayments(_ context.Context, payments []models.Payment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range payments {
		if p.Reference == "" {
			return i, fmt.Errorf("upsert payment: missing payment_id")
		}
		s.payments[p.Reference] = p
	}
	return len(payments), nil
}
