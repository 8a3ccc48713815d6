package drive

import (
	"context"

	models "drivehub/internal/domain/models/drive"
)

// FsObjectRepository defines data access for the shared object graph.
// It owns identity and parent-pointer integrity only; cascades are computed
// by the hierarchy engine and arrive here as explicit id sets.
type FsObjectRepository interface {
	// Create inserts a new object. Fails with a ConflictError when a sibling
	// with the same (parent, name) exists under a non-nil parent.
	Create(ctx context.Context, obj *models.FsObject) error

	// GetByID retrieves an object by id
	GetByID(ctx context.Context, id string) (*models.FsObject, error)

	// GetByIDs retrieves the objects for the given ids (missing ids are
	// silently absent from the result)
	GetByIDs(ctx context.Context, ids []string) ([]models.FsObject, error)

	// ListByParent lists the immediate children of a folder
	// (nil = root-level objects)
	ListByParent(ctx context.Context, parentID *string) ([]models.FsObject, error)

	// ListShortcutsByRef lists every shortcut whose ref falls in refIDs
	ListShortcutsByRef(ctx context.Context, refIDs []string) ([]models.FsObject, error)

	// Update rewrites the object's mutable fields, re-validating the
	// (parent, name) sibling constraint exactly as Create does
	Update(ctx context.Context, obj *models.FsObject) error

	// DeleteByIDs removes exactly the given rows and returns the count.
	// No cascade happens at this layer.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	// ListSubtreeEdges returns the flat {id, parent, type} rows of rootID and
	// its transitive children, bounded by maxDepth. A subtree deeper than the
	// bound surfaces domain.ErrBrokenHierarchy rather than looping on a
	// corrupted store.
	ListSubtreeEdges(ctx context.Context, rootID string, maxDepth int) ([]models.Edge, error)
}
