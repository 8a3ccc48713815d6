package drive

import (
	"context"

	models "drivehub/internal/domain/models/drive"
)

// TrashService handles the trash / restore / permanent-delete lifecycle.
type TrashService interface {
	// Trash moves an object to the acting user's trash (trashRoot). The
	// object's owner cascades the trash flag to every user's state across the
	// full subtree; a non-owner sweeps only their own view.
	Trash(ctx context.Context, userID, objectID string) error

	// Restore clears trash flags on an object the user explicitly trashed.
	// Inverse of Trash, with the same owner/non-owner cascade scopes.
	Restore(ctx context.Context, userID, objectID string) error

	// Purge permanently deletes a trashed object (trashRoot required).
	// The owner destroys the objects, every state on them, and releases the
	// owner-side file quota; a non-owner only abandons their own states,
	// leaving the object intact for others.
	Purge(ctx context.Context, userID, objectID string) error

	// ListTrash lists the user's explicitly trashed objects (trash roots)
	ListTrash(ctx context.Context, userID string) ([]TrashEntry, error)
}

// TrashEntry pairs a trashed object with the user's trash-root state on it.
type TrashEntry struct {
	Object *models.FsObject `json:"object"`
	State  *models.State    `json:"state"`
}
