package drive

import (
	"context"
	"fmt"
	"log/slog"

	"drivehub/internal/config"
	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveRepo "drivehub/internal/domain/repositories/drive"
	driveSvc "drivehub/internal/domain/services/drive"
	"drivehub/internal/quotaplan"
)

type quotaService struct {
	quotas driveRepo.QuotaRepository
	plans  *quotaplan.Registry
	logger *slog.Logger
}

// NewQuotaService creates a new quota service
func NewQuotaService(quotas driveRepo.QuotaRepository, plans *quotaplan.Registry, logger *slog.Logger) driveSvc.QuotaService {
	return &quotaService{
		quotas: quotas,
		plans:  plans,
		logger: logger,
	}
}

// GetQuota returns the user's ledger, provisioning the default plan on first
// touch so a fresh user always sees a limit instead of a 404.
func (s *quotaService) GetQuota(ctx context.Context, userID string) (*models.Quota, error) {
	return s.quotas.EnsureDefault(ctx, userID, config.DefaultQuotaLimitBytes)
}

// SetPlan moves the user onto a named storage plan. The store rejects limits
// below the user's current usage, which surfaces as a quota-exceeded error.
func (s *quotaService) SetPlan(ctx context.Context, userID, plan string) (*models.Quota, error) {
	p, err := s.plans.Get(plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrValidation)
	}

	if _, err := s.quotas.EnsureDefault(ctx, userID, config.DefaultQuotaLimitBytes); err != nil {
		return nil, err
	}
	q, err := s.quotas.SetLimit(ctx, userID, p.LimitBytes)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "storage plan changed",
		"user_id", userID,
		"plan", p.Name,
		"limit_bytes", p.LimitBytes,
	)
	return q, nil
}
