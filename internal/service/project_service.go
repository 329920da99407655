// Package service wires the domain pieces together: project creation behind
// the entitlement gate, and estimate reads with totals derived on the fly.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/serhq/estimator/internal/models"
	"github.com/serhq/estimator/internal/session"
	"github.com/serhq/estimator/internal/storage"
)

// defaultBusinessName brands estimates for accounts without a saved profile.
const defaultBusinessName = "Shoot.Edit.Release"

// ProjectService creates new projects, enforcing the free-tier ceiling.
type ProjectService struct {
	store  storage.Store
	gate   *session.Gate
	logger *slog.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(store storage.Store, gate *session.Gate, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		store:  store,
		gate:   gate,
		logger: logger,
	}
}

// NewProject creates and persists a fresh estimate. For Free members at the
// ceiling it returns session.ErrProjectLimit, which callers route to the
// upgrade flow rather than an error page. Pro members get their saved
// business identity pre-filled.
func (s *ProjectService) NewProject(ctx context.Context) (*models.Estimate, error) {
	if !s.gate.CanCreateProject() {
		return nil, session.ErrProjectLimit
	}
	if err := s.gate.RecordProjectCreated(ctx); err != nil {
		return nil, err
	}

	estimate := models.NewEstimate()
	estimate.Details.ProjectDate = time.Now().Format("2006-01-02")
	estimate.Details.BusinessName = defaultBusinessName

	if s.gate.Pro() {
		profile, err := s.gate.Profile(ctx)
		if err != nil {
			return nil, err
		}
		if profile.BusinessName != "" {
			estimate.Details.BusinessName = profile.BusinessName
		}
		estimate.Details.BusinessLogo = profile.BusinessLogo
		estimate.Details.PayableTo = profile.PayableTo
		estimate.Details.BusinessAddress = profile.BusinessAddress
		estimate.Details.BusinessEmail = profile.BusinessEmail
		estimate.Details.BusinessPhone = profile.BusinessPhone
		estimate.Details.PaymentLink = profile.PaymentLink
	}

	if err := s.store.SaveEstimate(ctx, estimate); err != nil {
		return nil, fmt.Errorf("save new estimate: %w", err)
	}

	s.logger.Info("project created",
		"estimate_id", estimate.ID,
		"pro", s.gate.Pro(),
		"free_projects_used", s.gate.ProjectCount(),
	)
	return estimate, nil
}
