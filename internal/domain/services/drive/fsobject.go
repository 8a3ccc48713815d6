package drive

import (
	"context"

	models "drivehub/internal/domain/models/drive"
)

// FsObjectService handles object creation, lookup and metadata updates.
// Every operation takes the acting user first; "not visible to this user"
// is reported as not-found so existence never leaks.
type FsObjectService interface {
	// CreateFile creates a file together with its owner state, raising the
	// owner's quota by the file size in the same transaction
	CreateFile(ctx context.Context, userID string, req *CreateFileRequest) (*ObjectView, error)

	// CreateFolder creates a folder together with its owner state
	CreateFolder(ctx context.Context, userID string, req *CreateFolderRequest) (*ObjectView, error)

	// CreateShortcut creates a shortcut to an object the user can see.
	// A shortcut to a shortcut is dereferenced to the ultimate target.
	CreateShortcut(ctx context.Context, userID string, req *CreateShortcutRequest) (*ObjectView, error)

	// GetObject retrieves an object with the acting user's state on it
	GetObject(ctx context.Context, userID, objectID string) (*ObjectView, error)

	// ListRoots lists the user's root-level view: every object whose state is
	// root for the user and not in trash
	ListRoots(ctx context.Context, userID string) ([]ObjectView, error)

	// ListChildren lists the children of a folder visible to the user
	ListChildren(ctx context.Context, userID, folderID string) ([]ObjectView, error)

	// ListFavorites lists the user's favorited objects
	ListFavorites(ctx context.Context, userID string) ([]ObjectView, error)

	// Ancestors returns the folder chain above an object in the user's view,
	// ordered root-to-leaf
	Ancestors(ctx context.Context, userID, objectID string) ([]models.FsObject, error)

	// UpdateFile updates file metadata; a size change adjusts the owner's
	// quota by the delta inside the same transaction
	UpdateFile(ctx context.Context, userID, objectID string, req *UpdateFileRequest) (*ObjectView, error)

	// UpdateFolder renames or moves a folder
	UpdateFolder(ctx context.Context, userID, objectID string, req *UpdateFolderRequest) (*ObjectView, error)

	// UpdateShortcut renames or moves a shortcut
	UpdateShortcut(ctx context.Context, userID, objectID string, req *UpdateShortcutRequest) (*ObjectView, error)

	// SetFavorite flips the user's favorite flag on an object. No cascade,
	// no quota effect.
	SetFavorite(ctx context.Context, userID, objectID string, favorite bool) (*models.State, error)
}

// ObjectView pairs an object with the acting user's state on it.
type ObjectView struct {
	Object *models.FsObject `json:"object"`
	State  *models.State    `json:"state"`
}

// CreateFileRequest represents a file creation request
type CreateFileRequest struct {
	Name         string  `json:"name"`
	ParentID     *string `json:"parent_id,omitempty"` // null = root level
	LocationKey  string  `json:"location_key"`
	Bucket       string  `json:"bucket"`
	SizeBytes    int64   `json:"size_bytes"`
	IsPublic     bool    `json:"is_public"`
	ClientOrigin string  `json:"client_origin,omitempty"`
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// CreateShortcutRequest represents a shortcut creation request
type CreateShortcutRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
	RefID    string  `json:"ref_id"`
}

// OptionalParent tracks tri-state semantics for parent moves (RFC 7396 PATCH).
// This is transport-agnostic (no JSON tags) - handlers map from
// httputil.OptionalString.
//   - Present=false: field absent from request (don't move)
//   - Present=true, Value=nil: move to root level
//   - Present=true, Value=&id: move under that folder
type OptionalParent struct {
	Present bool
	Value   *string
}

// UpdateFileRequest represents a file metadata patch
type UpdateFileRequest struct {
	Name      *string `json:"name,omitempty"`
	ParentID  OptionalParent
	SizeBytes *int64 `json:"size_bytes,omitempty"`
	IsPublic  *bool  `json:"is_public,omitempty"`
}

// UpdateFolderRequest represents a folder rename/move patch
type UpdateFolderRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID OptionalParent
}

// UpdateShortcutRequest represents a shortcut rename/move patch
type UpdateShortcutRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID OptionalParent
}
