package drive

import (
	"time"
)

// ObjectType discriminates the FsObject union. All variants share one table
// and one header; variant payloads are nullable and dispatched on this tag.
type ObjectType string

const (
	TypeFile     ObjectType = "file"
	TypeFolder   ObjectType = "folder"
	TypeShortcut ObjectType = "shortcut"
)

// Valid reports whether t is one of the known object types.
func (t ObjectType) Valid() bool {
	switch t {
	case TypeFile, TypeFolder, TypeShortcut:
		return true
	}
	return false
}

// FileAttrs is the File-specific payload. Content bytes live in an external
// blob store; the object carries only the location metadata.
type FileAttrs struct {
	LocationKey  string `json:"location_key" db:"location_key"`
	Bucket       string `json:"bucket" db:"bucket"`
	SizeBytes    int64  `json:"size_bytes" db:"size_bytes"`
	IsPublic     bool   `json:"is_public" db:"is_public"`
	ClientOrigin string `json:"client_origin,omitempty" db:"client_origin"`
}

// ShortcutAttrs is the Shortcut-specific payload. RefID always points at a
// non-shortcut object: creation dereferences shortcut targets so shortcuts
// never chain.
type ShortcutAttrs struct {
	RefID string `json:"ref_id" db:"ref_id"`
}

// FsObject is a node in the shared object graph: a File, Folder or Shortcut.
// Parent is a plain id field, never a native pointer; integrity (no cycles)
// is a runtime invariant enforced by the hierarchy engine's bounded walks.
type FsObject struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	ParentID  *string    `json:"parent_id" db:"parent_id"` // NULL = root level
	Type      ObjectType `json:"type" db:"type"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`

	// Variant payloads; exactly the one matching Type is non-nil.
	File     *FileAttrs     `json:"file,omitempty"`
	Shortcut *ShortcutAttrs `json:"shortcut,omitempty"`
}

// IsFolder reports whether the object can contain children.
func (o *FsObject) IsFolder() bool {
	return o.Type == TypeFolder
}

// Size returns the byte size the object contributes to its owner's quota.
// Only files occupy quota.
func (o *FsObject) Size() int64 {
	if o.Type == TypeFile && o.File != nil {
		return o.File.SizeBytes
	}
	return 0
}

// Edge is the flat {id, parent, type} projection of an object, used by the
// hierarchy engine's in-process traversals.
type Edge struct {
	ID       string
	ParentID *string
	Type     ObjectType
}
