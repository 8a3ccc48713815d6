package drive

import (
	"context"
	"fmt"
	"sort"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveRepo "drivehub/internal/domain/repositories/drive"
)

// FsObjectRepository is the in-memory FsObjectRepository implementation
type FsObjectRepository struct {
	store *Store
}

// NewFsObjectRepository creates a new fs-object repository over the store
func NewFsObjectRepository(store *Store) driveRepo.FsObjectRepository {
	return &FsObjectRepository{store: store}
}

// siblingConflict mirrors the postgres partial unique index: (parent, name)
// is enforced only under a non-nil parent; root-level uniqueness is per-user
// and checked by the orchestrator against the user's root states.
func (r *FsObjectRepository) siblingConflict(obj *models.FsObject) *models.FsObject {
	if obj.ParentID == nil {
		return nil
	}
	for _, other := range r.store.objects {
		if other.ID == obj.ID {
			continue
		}
		if other.ParentID != nil && *other.ParentID == *obj.ParentID && other.Name == obj.Name {
			return other
		}
	}
	return nil
}

// Create inserts a new object
func (r *FsObjectRepository) Create(ctx context.Context, obj *models.FsObject) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.objects[obj.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("fs object %s already exists", obj.ID),
			ResourceType: string(obj.Type),
			ResourceID:   obj.ID,
		}
	}
	if existing := r.siblingConflict(obj); existing != nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("an object named %q already exists in this location", obj.Name),
			ResourceType: string(existing.Type),
			ResourceID:   existing.ID,
		}
	}

	r.store.objects[obj.ID] = copyObject(obj)
	return nil
}

// GetByID retrieves an object by id
func (r *FsObjectRepository) GetByID(ctx context.Context, id string) (*models.FsObject, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	obj, ok := r.store.objects[id]
	if !ok {
		return nil, fmt.Errorf("fs object %s: %w", id, domain.ErrNotFound)
	}
	return copyObject(obj), nil
}

// GetByIDs retrieves the objects for the given ids
func (r *FsObjectRepository) GetByIDs(ctx context.Context, ids []string) ([]models.FsObject, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	objects := []models.FsObject{}
	for _, id := range ids {
		if obj, ok := r.store.objects[id]; ok {
			objects = append(objects, *copyObject(obj))
		}
	}
	return objects, nil
}

// ListByParent lists the immediate children of a folder (nil = root level)
func (r *FsObjectRepository) ListByParent(ctx context.Context, parentID *string) ([]models.FsObject, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	objects := []models.FsObject{}
	for _, obj := range r.store.objects {
		switch {
		case parentID == nil && obj.ParentID == nil:
			objects = append(objects, *copyObject(obj))
		case parentID != nil && obj.ParentID != nil && *obj.ParentID == *parentID:
			objects = append(objects, *copyObject(obj))
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

// ListShortcutsByRef lists every shortcut whose ref falls in refIDs
func (r *FsObjectRepository) ListShortcutsByRef(ctx context.Context, refIDs []string) ([]models.FsObject, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	refs := make(map[string]bool, len(refIDs))
	for _, id := range refIDs {
		refs[id] = true
	}

	objects := []models.FsObject{}
	for _, obj := range r.store.objects {
		if obj.Type == models.TypeShortcut && obj.Shortcut != nil && refs[obj.Shortcut.RefID] {
			objects = append(objects, *copyObject(obj))
		}
	}
	return objects, nil
}

// Update rewrites the object's mutable fields
func (r *FsObjectRepository) Update(ctx context.Context, obj *models.FsObject) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.objects[obj.ID]; !ok {
		return fmt.Errorf("fs object %s: %w", obj.ID, domain.ErrNotFound)
	}
	if existing := r.siblingConflict(obj); existing != nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("an object named %q already exists in this location", obj.Name),
			ResourceType: string(existing.Type),
			ResourceID:   existing.ID,
		}
	}

	r.store.objects[obj.ID] = copyObject(obj)
	return nil
}

// DeleteByIDs removes exactly the given rows
func (r *FsObjectRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := r.store.objects[id]; ok {
			delete(r.store.objects, id)
			deleted++
		}
	}
	return deleted, nil
}

// ListSubtreeEdges returns the flat edge rows of rootID and its transitive
// children via a breadth-first walk over a parent index, bounded by maxDepth
// and a visited set so a corrupted (cyclic) store surfaces as a broken
// hierarchy instead of looping.
func (r *FsObjectRepository) ListSubtreeEdges(ctx context.Context, rootID string, maxDepth int) ([]models.Edge, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if _, ok := r.store.objects[rootID]; !ok {
		return []models.Edge{}, nil
	}

	children := make(map[string][]*models.FsObject)
	for _, obj := range r.store.objects {
		if obj.ParentID != nil {
			children[*obj.ParentID] = append(children[*obj.ParentID], obj)
		}
	}

	root := r.store.objects[rootID]
	edges := []models.Edge{{ID: root.ID, ParentID: root.ParentID, Type: root.Type}}
	visited := map[string]bool{rootID: true}
	frontier := []string{rootID}

	for depth := 0; len(frontier) > 0; depth++ {
		var next []string
		for _, parentID := range frontier {
			for _, child := range children[parentID] {
				if depth+1 >= maxDepth {
					return nil, fmt.Errorf("subtree of %s exceeds depth %d: %w", rootID, maxDepth, domain.ErrBrokenHierarchy)
				}
				if visited[child.ID] {
					return nil, fmt.Errorf("cycle at %s: %w", child.ID, domain.ErrBrokenHierarchy)
				}
				visited[child.ID] = true
				edges = append(edges, models.Edge{ID: child.ID, ParentID: child.ParentID, Type: child.Type})
				next = append(next, child.ID)
			}
		}
		frontier = next
	}

	return edges, nil
}
