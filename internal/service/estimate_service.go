package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/serhq/estimator/internal/calculator"
	"github.com/serhq/estimator/internal/models"
	"github.com/serhq/estimator/internal/normalizer"
	"github.com/serhq/estimator/internal/storage"
)

// Knob bounds enforced on save. The editor's sliders stay inside these, but
// the API is reachable without the editor.
const (
	maxMarkupPercent = 50
	maxTaxPercent    = 20
)

// EstimateService reads and updates estimates. Totals are always derived at
// read time, never stored.
type EstimateService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewEstimateService creates a new estimate service.
func NewEstimateService(store storage.Store, logger *slog.Logger) *EstimateService {
	return &EstimateService{
		store:  store,
		logger: logger,
	}
}

// Get retrieves one estimate with its line items.
func (s *EstimateService) Get(ctx context.Context, id string) (*models.Estimate, error) {
	return s.store.GetEstimate(ctx, id)
}

// List returns all estimates, newest first.
func (s *EstimateService) List(ctx context.Context) ([]*models.Estimate, error) {
	return s.store.ListEstimates(ctx)
}

// Save persists an edited estimate, clamping the percentage knobs to their
// allowed ranges.
func (s *EstimateService) Save(ctx context.Context, estimate *models.Estimate) error {
	estimate.MarkupPercent = clamp(estimate.MarkupPercent, 0, maxMarkupPercent)
	estimate.TaxPercent = clamp(estimate.TaxPercent, 0, maxTaxPercent)

	if err := s.store.SaveEstimate(ctx, estimate); err != nil {
		return fmt.Errorf("save estimate: %w", err)
	}
	return nil
}

// Delete removes an estimate.
func (s *EstimateService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteEstimate(ctx, id)
}

// Totals recomputes the derived figures for an estimate.
func (s *EstimateService) Totals(ctx context.Context, id string) (calculator.Totals, error) {
	estimate, err := s.store.GetEstimate(ctx, id)
	if err != nil {
		return calculator.Totals{}, err
	}
	return calculator.ComputeTotals(estimate.Items, estimate.MarkupPercent, estimate.TaxPercent), nil
}

// Allocation returns the per-category breakdown for an estimate.
func (s *EstimateService) Allocation(ctx context.Context, id string) ([]calculator.CategoryTotal, error) {
	estimate, err := s.store.GetEstimate(ctx, id)
	if err != nil {
		return nil, err
	}
	return calculator.AllocationByCategory(estimate.Items), nil
}

// ApplyEstimatePayload appends a normalized AI budget to an estimate and
// persists the result. The payload's items already carry fresh ids and
// repaired fields; nothing is applied unless the whole save succeeds.
func (s *EstimateService) ApplyEstimatePayload(ctx context.Context, id string, payload *normalizer.EstimatePayload) (*models.Estimate, error) {
	estimate, err := s.store.GetEstimate(ctx, id)
	if err != nil {
		return nil, err
	}

	estimate.Items = append(estimate.Items, payload.Items...)
	if err := s.store.SaveEstimate(ctx, estimate); err != nil {
		return nil, fmt.Errorf("apply AI items: %w", err)
	}

	s.logger.Info("applied AI budget",
		"estimate_id", id,
		"items_added", len(payload.Items),
	)
	return estimate, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
