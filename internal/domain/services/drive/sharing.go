package drive

import (
	"context"

	models "drivehub/internal/domain/models/drive"
)

// SharingService handles share, permission-change and unshare, including
// their folder cascades. Cascades never cross into subtrees the target user
// reaches through an independent share (root states in their view).
type SharingService interface {
	// Share grants targetUser the given permission on an object. Sharing a
	// shortcut shares its underlying target; sharing a folder cascades over
	// the full descendant set, raising lower permissions and creating missing
	// states but never lowering an existing equal-or-higher one.
	Share(ctx context.Context, userID string, req *ShareRequest) (*models.State, error)

	// ChangePermission re-scopes an existing share. For a folder only the
	// target user's reachable non-root descendants are touched.
	ChangePermission(ctx context.Context, userID string, req *ChangePermissionRequest) (*models.State, error)

	// Unshare removes every state targetUser holds on the object and their
	// reachable non-root descendants. Objects the target owns inside the
	// removed set pass to the unshared object's owner (with their quota
	// bytes); shortcuts the target owns whose ref falls in the removed set
	// are destroyed. Requires the acting user's permission to strictly
	// exceed the target's.
	Unshare(ctx context.Context, userID, objectID, targetUserID string) error

	// ListCollaborators lists every state on an object the acting user can read
	ListCollaborators(ctx context.Context, userID, objectID string) ([]models.State, error)
}

// ShareRequest represents a share grant
type ShareRequest struct {
	ObjectID     string            `json:"object_id"`
	TargetUserID string            `json:"target_user_id"`
	Permission   models.Permission `json:"permission"`
}

// ChangePermissionRequest represents a permission re-scope on an existing share
type ChangePermissionRequest struct {
	ObjectID     string            `json:"object_id"`
	TargetUserID string            `json:"target_user_id"`
	Permission   models.Permission `json:"permission"`
}
