package drive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveRepo "drivehub/internal/domain/repositories/drive"
	"drivehub/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresQuotaRepository implements the QuotaRepository interface
type PostgresQuotaRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewQuotaRepository creates a new quota repository
func NewQuotaRepository(config *postgres.RepositoryConfig) driveRepo.QuotaRepository {
	return &PostgresQuotaRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const quotaColumns = `user_id, limit_bytes, used_bytes, updated_at`

func scanQuota(row interface{ Scan(...interface{}) error }) (*models.Quota, error) {
	var q models.Quota
	if err := row.Scan(&q.UserID, &q.Limit, &q.Used, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

// GetByUserID retrieves a user's quota
func (r *PostgresQuotaRepository) GetByUserID(ctx context.Context, userID string) (*models.Quota, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE user_id = $1
	`, quotaColumns, r.tables.Quotas)

	executor := postgres.GetExecutor(ctx, r.pool)
	q, err := scanQuota(executor.QueryRow(ctx, query, userID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("quota for user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get quota: %w", err)
	}

	return q, nil
}

// EnsureDefault provisions a quota row if the user has none yet
func (r *PostgresQuotaRepository) EnsureDefault(ctx context.Context, userID string, limit int64) (*models.Quota, error) {
	// No-op DO UPDATE so RETURNING yields the existing row when present.
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, limit_bytes, used_bytes, updated_at)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING %s
	`, r.tables.Quotas, quotaColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	q, err := scanQuota(executor.QueryRow(ctx, query, userID, limit, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("ensure quota: %w", err)
	}

	return q, nil
}

// AddUsed moves the used counter by delta with the 0 <= used <= limit bound
// checked in the same statement. The conditional UPDATE writes nothing when
// the bound would be violated, which keeps the invariant under concurrent
// movers inside the surrounding snapshot transaction.
func (r *PostgresQuotaRepository) AddUsed(ctx context.Context, userID string, delta int64) (*models.Quota, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET used_bytes = used_bytes + $1, updated_at = $2
		WHERE user_id = $3
		  AND used_bytes + $1 >= 0
		  AND used_bytes + $1 <= limit_bytes
		RETURNING %s
	`, r.tables.Quotas, quotaColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	q, err := scanQuota(executor.QueryRow(ctx, query, delta, time.Now(), userID))
	if err == nil {
		return q, nil
	}
	if !postgres.IsPgNoRowsError(err) {
		return nil, fmt.Errorf("add quota usage: %w", err)
	}

	// No row updated: either the user has no ledger or the bound failed.
	current, getErr := r.GetByUserID(ctx, userID)
	if getErr != nil {
		return nil, getErr
	}

	return nil, &domain.QuotaExceededError{
		UserID:    userID,
		Limit:     current.Limit,
		Used:      current.Used,
		Requested: delta,
	}
}

// SetLimit rewrites a user's limit, refusing to go below the used bytes
func (r *PostgresQuotaRepository) SetLimit(ctx context.Context, userID string, limit int64) (*models.Quota, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET limit_bytes = $1, updated_at = $2
		WHERE user_id = $3 AND used_bytes <= $1
		RETURNING %s
	`, r.tables.Quotas, quotaColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	q, err := scanQuota(executor.QueryRow(ctx, query, limit, time.Now(), userID))
	if err == nil {
		return q, nil
	}
	if !postgres.IsPgNoRowsError(err) {
		return nil, fmt.Errorf("set quota limit: %w", err)
	}

	current, getErr := r.GetByUserID(ctx, userID)
	if getErr != nil {
		return nil, getErr
	}

	return nil, &domain.QuotaExceededError{
		UserID:    userID,
		Limit:     limit,
		Used:      current.Used,
	}
}
