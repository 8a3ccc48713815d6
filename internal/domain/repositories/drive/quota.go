package drive

import (
	"context"

	models "drivehub/internal/domain/models/drive"
)

// QuotaRepository defines data access for per-user storage ledgers.
type QuotaRepository interface {
	// GetByUserID retrieves a user's quota, domain.ErrNotFound when absent
	GetByUserID(ctx context.Context, userID string) (*models.Quota, error)

	// EnsureDefault provisions a quota row with the given limit if the user
	// has none yet, and returns the current row either way
	EnsureDefault(ctx context.Context, userID string, limit int64) (*models.Quota, error)

	// AddUsed moves the used counter by delta (positive or negative) and
	// returns the updated row. The 0 <= used <= limit bound is checked in the
	// same statement: a violation surfaces as domain.ErrQuotaExceeded and
	// writes nothing. Concurrent movers serialize via the surrounding
	// transaction's isolation.
	AddUsed(ctx context.Context, userID string, delta int64) (*models.Quota, error)

	// SetLimit rewrites a user's limit and returns the updated row.
	// Fails with domain.ErrQuotaExceeded when the new limit is below the
	// bytes already used.
	SetLimit(ctx context.Context, userID string, limit int64) (*models.Quota, error)
}
