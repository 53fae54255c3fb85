package payments

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/raphaelgruber/paydesk/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed sample_payments.yaml
var samplePaymentsYAML []byte

// SamplePayments returns the built-in demo payment records.
func SamplePayments() ([]models.Payment, error) {
	return ParseFixtures(samplePaymentsYAML)
}

// ParseFixtures decodes a YAML list of payment records.
func ParseFixtures(data []byte) ([]models.Payment, error) {
	var payments []models.Payment
	if err := yaml.Unmarshal(data, &payments); err != nil {
		return nil, fmt.Errorf("parse payment fixtures: %w", err)
	}
	for i, p := range payments {
		if p.Reference == "" {
			return nil, fmt.Errorf("payment fixture %d: missing payment_id", i)
		}
	}
	return payments, nil
}

// SeedSamples writes the demo payments into w and returns how many were written.
func SeedSamples(ctx context.Context, w Writer) (int, error) {
	payments, err := SamplePayments()
	if err != nil {
		return 0, err
	}
	n, err := w.UpsertPayments(ctx, payments)
	if err != nil {
		return n, fmt.Errorf("seed sample payments: %w", err)
	}
	return n, nil
}
