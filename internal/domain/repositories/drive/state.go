package drive

import (
	"context"

	models "drivehub/internal/domain/models/drive"
)

// StateFilter selects state rows. Zero-valued fields are ignored; pointer
// fields filter only when non-nil. FsObjectIDs is an "in set" predicate.
type StateFilter struct {
	ID          string
	UserID      string
	FsObjectID  string
	FsObjectIDs []string
	Root        *bool
	Trash       *bool
	TrashRoot   *bool
	Favorite    *bool
	Permission  *models.Permission
}

// StatePatch describes a partial state update; nil fields are left untouched.
type StatePatch struct {
	Permission *models.Permission
	Favorite   *bool
	Trash      *bool
	TrashRoot  *bool
	Root       *bool
}

// StateRepository defines data access for per-(user, object) states.
// All mutators participate in the caller-supplied transaction when the
// context carries one.
type StateRepository interface {
	// Create inserts a state. It is idempotent-safe via upsert semantics on
	// the (fs_object_id, user_id) unique key: a concurrent duplicate share
	// attempt never raises a duplicate-key fault to the caller - the second
	// writer observes the first writer's row (st is updated in place).
	Create(ctx context.Context, st *models.State) error

	// GetOne returns the single state matching the filter, domain.ErrNotFound
	// when absent
	GetOne(ctx context.Context, f StateFilter) (*models.State, error)

	// GetMany returns every state matching the filter
	GetMany(ctx context.Context, f StateFilter) ([]models.State, error)

	// UpdateOne patches the single state matching the filter and returns the
	// updated row, domain.ErrNotFound when absent
	UpdateOne(ctx context.Context, f StateFilter, p StatePatch) (*models.State, error)

	// UpdateMany patches every matching state and returns the affected count
	UpdateMany(ctx context.Context, f StateFilter, p StatePatch) (int64, error)

	// DeleteOne removes the single state matching the filter,
	// domain.ErrNotFound when absent
	DeleteOne(ctx context.Context, f StateFilter) error

	// DeleteMany removes every matching state and returns the affected count
	DeleteMany(ctx context.Context, f StateFilter) (int64, error)
}
