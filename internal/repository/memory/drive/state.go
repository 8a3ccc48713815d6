package drive

import (
	"context"
	"fmt"
	"time"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveRepo "drivehub/internal/domain/repositories/drive"
)

// StateRepository is the in-memory StateRepository implementation
type StateRepository struct {
	store *Store
}

// NewStateRepository creates a new state repository over the store
func NewStateRepository(store *Store) driveRepo.StateRepository {
	return &StateRepository{store: store}
}

func matchState(f driveRepo.StateFilter, st *models.State) bool {
	if f.ID != "" && st.ID != f.ID {
		return false
	}
	if f.UserID != "" && st.UserID != f.UserID {
		return false
	}
	if f.FsObjectID != "" && st.FsObjectID != f.FsObjectID {
		return false
	}
	if f.FsObjectIDs != nil {
		found := false
		for _, id := range f.FsObjectIDs {
			if st.FsObjectID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Root != nil && st.Root != *f.Root {
		return false
	}
	if f.Trash != nil && st.Trash != *f.Trash {
		return false
	}
	if f.TrashRoot != nil && st.TrashRoot != *f.TrashRoot {
		return false
	}
	if f.Favorite != nil && st.Favorite != *f.Favorite {
		return false
	}
	if f.Permission != nil && st.Permission != *f.Permission {
		return false
	}
	return true
}

func emptyFilter(f driveRepo.StateFilter) bool {
	return f.ID == "" && f.UserID == "" && f.FsObjectID == "" && f.FsObjectIDs == nil &&
		f.Root == nil && f.Trash == nil && f.TrashRoot == nil && f.Favorite == nil && f.Permission == nil
}

func applyPatch(st *models.State, p driveRepo.StatePatch) {
	if p.Permission != nil {
		st.Permission = *p.Permission
	}
	if p.Favorite != nil {
		st.Favorite = *p.Favorite
	}
	if p.Trash != nil {
		st.Trash = *p.Trash
	}
	if p.TrashRoot != nil {
		st.TrashRoot = *p.TrashRoot
	}
	if p.Root != nil {
		st.Root = *p.Root
	}
	st.UpdatedAt = time.Now()
}

// matching returns the states matching a non-empty filter. Empty filters
// match nothing, mirroring the postgres repository's refusal to touch every
// row.
func (r *StateRepository) matching(f driveRepo.StateFilter) []*models.State {
	if emptyFilter(f) {
		return nil
	}
	var result []*models.State
	for _, st := range r.store.states {
		if matchState(f, st) {
			result = append(result, st)
		}
	}
	return result
}

// Create inserts a state with upsert semantics on (fs_object_id, user_id)
func (r *StateRepository) Create(ctx context.Context, st *models.State) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := stateKey{fsObjectID: st.FsObjectID, userID: st.UserID}
	if existingID, ok := r.store.stateKeys[key]; ok {
		// Second writer observes the first writer's row.
		*st = *copyState(r.store.states[existingID])
		return nil
	}

	r.store.states[st.ID] = copyState(st)
	r.store.stateKeys[key] = st.ID
	return nil
}

// GetOne returns the single state matching the filter
func (r *StateRepository) GetOne(ctx context.Context, f driveRepo.StateFilter) (*models.State, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, st := range r.matching(f) {
		return copyState(st), nil
	}
	return nil, fmt.Errorf("state: %w", domain.ErrNotFound)
}

// GetMany returns every state matching the filter
func (r *StateRepository) GetMany(ctx context.Context, f driveRepo.StateFilter) ([]models.State, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	states := []models.State{}
	for _, st := range r.matching(f) {
		states = append(states, *copyState(st))
	}
	return states, nil
}

// UpdateOne patches the single state matching the filter
func (r *StateRepository) UpdateOne(ctx context.Context, f driveRepo.StateFilter, p driveRepo.StatePatch) (*models.State, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, st := range r.matching(f) {
		applyPatch(st, p)
		return copyState(st), nil
	}
	return nil, fmt.Errorf("state: %w", domain.ErrNotFound)
}

// UpdateMany patches every matching state and returns the affected count
func (r *StateRepository) UpdateMany(ctx context.Context, f driveRepo.StateFilter, p driveRepo.StatePatch) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var count int64
	for _, st := range r.matching(f) {
		applyPatch(st, p)
		count++
	}
	return count, nil
}

// DeleteOne removes the single state matching the filter
func (r *StateRepository) DeleteOne(ctx context.Context, f driveRepo.StateFilter) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, st := range r.matching(f) {
		delete(r.store.states, st.ID)
		delete(r.store.stateKeys, stateKey{fsObjectID: st.FsObjectID, userID: st.UserID})
		return nil
	}
	return fmt.Errorf("state: %w", domain.ErrNotFound)
}

// DeleteMany removes every matching state and returns the affected count
func (r *StateRepository) DeleteMany(ctx context.Context, f driveRepo.StateFilter) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var count int64
	for _, st := range r.matching(f) {
		delete(r.store.states, st.ID)
		delete(r.store.stateKeys, stateKey{fsObjectID: st.FsObjectID, userID: st.UserID})
		count++
	}
	return count, nil
}
