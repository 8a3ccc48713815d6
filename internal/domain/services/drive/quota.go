package drive

import (
	"context"

	models "drivehub/internal/domain/models/drive"
)

// QuotaService exposes the per-user storage ledger.
type QuotaService interface {
	// GetQuota returns the user's ledger, provisioning the default plan on
	// first touch
	GetQuota(ctx context.Context, userID string) (*models.Quota, error)

	// SetPlan moves the user to a named quota plan. Fails when the plan's
	// limit is below the bytes the user already has in use.
	SetPlan(ctx context.Context, userID, plan string) (*models.Quota, error)
}
