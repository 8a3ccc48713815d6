package drive

import (
	"context"
	"fmt"
	"time"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveRepo "drivehub/internal/domain/repositories/drive"
)

// QuotaRepository is the in-memory QuotaRepository implementation
type QuotaRepository struct {
	store *Store
}

// NewQuotaRepository creates a new quota repository over the store
func NewQuotaRepository(store *Store) driveRepo.QuotaRepository {
	return &QuotaRepository{store: store}
}

// GetByUserID retrieves a user's quota
func (r *QuotaRepository) GetByUserID(ctx context.Context, userID string) (*models.Quota, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	q, ok := r.store.quotas[userID]
	if !ok {
		return nil, fmt.Errorf("quota for user %s: %w", userID, domain.ErrNotFound)
	}
	return copyQuota(q), nil
}

// EnsureDefault provisions a quota row if the user has none yet
func (r *QuotaRepository) EnsureDefault(ctx context.Context, userID string, limit int64) (*models.Quota, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if q, ok := r.store.quotas[userID]; ok {
		return copyQuota(q), nil
	}

	q := &models.Quota{UserID: userID, Limit: limit, Used: 0, UpdatedAt: time.Now()}
	r.store.quotas[userID] = q
	return copyQuota(q), nil
}

// AddUsed moves the used counter by delta with the bound checked in place
func (r *QuotaRepository) AddUsed(ctx context.Context, userID string, delta int64) (*models.Quota, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	q, ok := r.store.quotas[userID]
	if !ok {
		return nil, fmt.Errorf("quota for user %s: %w", userID, domain.ErrNotFound)
	}

	next := q.Used + delta
	if next < 0 || next > q.Limit {
		return nil, &domain.QuotaExceededError{
			UserID:    userID,
			Limit:     q.Limit,
			Used:      q.Used,
			Requested: delta,
		}
	}

	q.Used = next
	q.UpdatedAt = time.Now()
	return copyQuota(q), nil
}

// SetLimit rewrites a user's limit, refusing to go below the used bytes
func (r *QuotaRepository) SetLimit(ctx context.Context, userID string, limit int64) (*models.Quota, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	q, ok := r.store.quotas[userID]
	if !ok {
		return nil, fmt.Errorf("quota for user %s: %w", userID, domain.ErrNotFound)
	}

	if q.Used > limit {
		return nil, &domain.QuotaExceededError{
			UserID: userID,
			Limit:  limit,
			Used:   q.Used,
		}
	}

	q.Limit = limit
	q.UpdatedAt = time.Now()
	return copyQuota(q), nil
}
