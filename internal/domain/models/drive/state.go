package drive

import (
	"time"
)

// Permission is a user's access level on an object. Levels are ordered:
// read < write < owner. An object has at most one owner state across all
// users; the orchestrator enforces that, not the store.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionOwner Permission = "owner"
)

// Level returns the numeric ordering of the permission (-1 if unknown).
func (p Permission) Level() int {
	switch p {
	case PermissionRead:
		return 0
	case PermissionWrite:
		return 1
	case PermissionOwner:
		return 2
	}
	return -1
}

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	return p.Level() >= 0
}

// AtLeast reports whether p grants everything other does.
func (p Permission) AtLeast(other Permission) bool {
	return p.Level() >= other.Level()
}

// Cap returns the lower of p and limit.
func (p Permission) Cap(limit Permission) Permission {
	if p.Level() > limit.Level() {
		return limit
	}
	return p
}

// State is one user's view record over one FsObject: permission, favorite
// and trash flags. Unique on (FsObjectID, UserID).
//
// Root marks the entry point of the user's reachability for the object: the
// user's own top-level objects and every independently shared object. Cascades
// and ancestor walks never cross a Root boundary in the user's view.
//
// TrashRoot marks the object the user explicitly trashed, as opposed to a
// descendant swept in by cascade; restore and permanent delete target
// TrashRoot states directly.
type State struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	FsObjectID string     `json:"fs_object_id" db:"fs_object_id"`
	Permission Permission `json:"permission" db:"permission"`
	Favorite   bool       `json:"favorite" db:"favorite"`
	Trash      bool       `json:"trash" db:"trash"`
	TrashRoot  bool       `json:"trash_root" db:"trash_root"`
	Root       bool       `json:"root" db:"root"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}
