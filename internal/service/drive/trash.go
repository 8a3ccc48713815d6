package drive

import (
	"context"
	"fmt"
	"log/slog"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	"drivehub/internal/domain/repositories"
	driveRepo "drivehub/internal/domain/repositories/drive"
	driveSvc "drivehub/internal/domain/services/drive"
)

type trashService struct {
	objects   driveRepo.FsObjectRepository
	states    driveRepo.StateRepository
	quotas    driveRepo.QuotaRepository
	hierarchy *Hierarchy
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewTrashService creates a new trash service
func NewTrashService(
	objects driveRepo.FsObjectRepository,
	states driveRepo.StateRepository,
	quotas driveRepo.QuotaRepository,
	hierarchy *Hierarchy,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) driveSvc.TrashService {
	return &trashService{
		objects:   objects,
		states:    states,
		quotas:    quotas,
		hierarchy: hierarchy,
		txManager: txManager,
		logger:    logger,
	}
}

// trashScope resolves the object, the acting user's state, and whether the
// actor owns the object.
func (s *trashService) trashScope(ctx context.Context, userID, objectID string) (*models.FsObject, *models.State, bool, error) {
	obj, err := s.objects.GetByID(ctx, objectID)
	if err != nil {
		return nil, nil, false, err
	}
	actorState, err := stateOf(ctx, s.states, userID, objectID)
	if err != nil {
		return nil, nil, false, err
	}
	ownerState, err := ownerStateOf(ctx, s.states, objectID)
	if err != nil {
		return nil, nil, false, fmt.Errorf("fs object %s has no owner: %w", objectID, domain.ErrBrokenHierarchy)
	}
	return obj, actorState, ownerState.UserID == userID, nil
}

// subtreeIDs returns the object id plus its descendants when it is a folder.
func (s *trashService) subtreeIDs(ctx context.Context, obj *models.FsObject) ([]string, error) {
	ids := []string{obj.ID}
	if !obj.IsFolder() {
		return ids, nil
	}
	descendants, err := s.hierarchy.DescendantIDs(ctx, obj.ID, "")
	if err != nil {
		return nil, err
	}
	return append(ids, descendants...), nil
}

// reachableIDs returns the object id plus the user's reachable non-root
// descendants when it is a folder.
func (s *trashService) reachableIDs(ctx context.Context, userID string, obj *models.FsObject) ([]string, error) {
	ids := []string{obj.ID}
	if !obj.IsFolder() {
		return ids, nil
	}
	reachable, err := s.hierarchy.ReachableNonRootDescendants(ctx, userID, obj.ID)
	if err != nil {
		return nil, err
	}
	return append(ids, reachable...), nil
}

// Trash moves an object into the acting user's trash. The owner's trash
// sweeps every user's state over the full subtree; a non-owner's trash
// sweeps only their own reachable view.
func (s *trashService) Trash(ctx context.Context, userID, objectID string) error {
	return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		obj, actorState, isOwner, err := s.trashScope(ctx, userID, objectID)
		if err != nil {
			return err
		}
		if actorState.Trash {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("fs object %s is already in trash", objectID),
				ResourceType: "fs_object",
				ResourceID:   objectID,
			}
		}

		trashTrue := true
		flagFalse := false
		if isOwner {
			ids, err := s.subtreeIDs(ctx, obj)
			if err != nil {
				return err
			}
			// Everyone's states over the subtree get swept; any earlier
			// per-user trash roots inside collapse into this one.
			if _, err := s.states.UpdateMany(ctx, driveRepo.StateFilter{
				FsObjectIDs: ids,
			}, driveRepo.StatePatch{Trash: &trashTrue, TrashRoot: &flagFalse}); err != nil {
				return err
			}
			if _, err := s.states.UpdateOne(ctx, driveRepo.StateFilter{ID: actorState.ID}, driveRepo.StatePatch{TrashRoot: &trashTrue}); err != nil {
				return err
			}
			// Other users' shortcuts into the trashed set go away: their
			// drives must not keep links into someone's trash.
			if err := s.destroyShortcutsInto(ctx, ids, func(shortcutOwner string) bool {
				return shortcutOwner != userID
			}); err != nil {
				return err
			}
		} else {
			ids, err := s.reachableIDs(ctx, userID, obj)
			if err != nil {
				return err
			}
			if _, err := s.states.UpdateMany(ctx, driveRepo.StateFilter{
				UserID:      userID,
				FsObjectIDs: ids,
			}, driveRepo.StatePatch{Trash: &trashTrue, TrashRoot: &flagFalse}); err != nil {
				return err
			}
			if _, err := s.states.UpdateOne(ctx, driveRepo.StateFilter{ID: actorState.ID}, driveRepo.StatePatch{TrashRoot: &trashTrue}); err != nil {
				return err
			}
			if err := s.destroyShortcutsInto(ctx, ids, func(shortcutOwner string) bool {
				return shortcutOwner == userID
			}); err != nil {
				return err
			}
		}

		s.logger.InfoContext(ctx, "fs object trashed",
			"object_id", objectID,
			"user_id", userID,
			"as_owner", isOwner,
		)
		return nil
	})
}

// destroyShortcutsInto removes shortcuts whose ref falls in ids and whose
// owner matches the predicate, together with every state on them.
func (s *trashService) destroyShortcutsInto(ctx context.Context, ids []string, ownerMatches func(userID string) bool) error {
	shortcuts, err := s.objects.ListShortcutsByRef(ctx, ids)
	if err != nil {
		return err
	}

	var doomed []string
	for _, sc := range shortcuts {
		ownerState, err := ownerStateOf(ctx, s.states, sc.ID)
		if err != nil {
			continue
		}
		if ownerMatches(ownerState.UserID) {
			doomed = append(doomed, sc.ID)
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	if _, err := s.states.DeleteMany(ctx, driveRepo.StateFilter{FsObjectIDs: doomed}); err != nil {
		return err
	}
	if _, err := s.objects.DeleteByIDs(ctx, doomed); err != nil {
		return err
	}
	return nil
}

// Restore clears trash flags on an explicitly trashed object, with the same
// owner/non-owner scope as Trash.
func (s *trashService) Restore(ctx context.Context, userID, objectID string) error {
	return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		obj, actorState, isOwner, err := s.trashScope(ctx, userID, objectID)
		if err != nil {
			return err
		}
		if !actorState.Trash || !actorState.TrashRoot {
			return fmt.Errorf("fs object %s is not in your trash: %w", objectID, domain.ErrValidation)
		}

		var ids []string
		if isOwner {
			ids, err = s.subtreeIDs(ctx, obj)
		} else {
			ids, err = s.reachableIDs(ctx, userID, obj)
		}
		if err != nil {
			return err
		}

		flagFalse := false
		filter := driveRepo.StateFilter{FsObjectIDs: ids}
		if !isOwner {
			filter.UserID = userID
		}
		if _, err := s.states.UpdateMany(ctx, filter, driveRepo.StatePatch{
			Trash:     &flagFalse,
			TrashRoot: &flagFalse,
		}); err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "fs object restored",
			"object_id", objectID,
			"user_id", userID,
			"as_owner", isOwner,
		)
		return nil
	})
}

// Purge permanently deletes an explicitly trashed object. The owner destroys
// the subtree, every state on it and all shortcuts left pointing into it,
// releasing file quota back to each file's owner. A non-owner only abandons
// their own view; the objects survive for everyone else.
func (s *trashService) Purge(ctx context.Context, userID, objectID string) error {
	return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		obj, actorState, isOwner, err := s.trashScope(ctx, userID, objectID)
		if err != nil {
			return err
		}
		if !actorState.Trash || !actorState.TrashRoot {
			return fmt.Errorf("fs object %s is not in your trash: %w", objectID, domain.ErrValidation)
		}

		if !isOwner {
			ids, err := s.reachableIDs(ctx, userID, obj)
			if err != nil {
				return err
			}
			// Ownership survives an abandoned view: only read/write states
			// are dropped, so objects the user created inside keep their
			// owner and their quota accounting.
			for _, level := range grantablePermissions {
				level := level
				if _, err := s.states.DeleteMany(ctx, driveRepo.StateFilter{
					UserID:      userID,
					FsObjectIDs: ids,
					Permission:  &level,
				}); err != nil {
					return err
				}
			}
			s.logger.InfoContext(ctx, "fs object purged from view",
				"object_id", objectID,
				"user_id", userID,
			)
			return nil
		}

		ids, err := s.subtreeIDs(ctx, obj)
		if err != nil {
			return err
		}
		if err := s.releaseQuota(ctx, ids); err != nil {
			return err
		}

		// Any shortcut still referencing a destroyed object would dangle, so
		// the whole ref closure goes with the subtree.
		doomed := ids
		inSubtree := make(map[string]bool, len(ids))
		for _, id := range ids {
			inSubtree[id] = true
		}
		shortcuts, err := s.objects.ListShortcutsByRef(ctx, ids)
		if err != nil {
			return err
		}
		for _, sc := range shortcuts {
			if !inSubtree[sc.ID] {
				doomed = append(doomed, sc.ID)
			}
		}

		if _, err := s.states.DeleteMany(ctx, driveRepo.StateFilter{FsObjectIDs: doomed}); err != nil {
			return err
		}
		deleted, err := s.objects.DeleteByIDs(ctx, doomed)
		if err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "fs object purged",
			"object_id", objectID,
			"user_id", userID,
			"deleted_count", deleted,
		)
		return nil
	})
}

// releaseQuota credits each destroyed file's size back to that file's owner.
func (s *trashService) releaseQuota(ctx context.Context, ids []string) error {
	objects, err := s.objects.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}

	release := map[string]int64{}
	for i := range objects {
		size := objects[i].Size()
		if size == 0 {
			continue
		}
		ownerState, err := ownerStateOf(ctx, s.states, objects[i].ID)
		if err != nil {
			continue
		}
		release[ownerState.UserID] += size
	}

	for uid, bytes := range release {
		if _, err := s.quotas.AddUsed(ctx, uid, -bytes); err != nil {
			return err
		}
	}
	return nil
}

// ListTrash lists the user's explicitly trashed objects
func (s *trashService) ListTrash(ctx context.Context, userID string) ([]driveSvc.TrashEntry, error) {
	flagTrue := true
	states, err := s.states.GetMany(ctx, driveRepo.StateFilter{
		UserID:    userID,
		Trash:     &flagTrue,
		TrashRoot: &flagTrue,
	})
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return []driveSvc.TrashEntry{}, nil
	}

	ids := make([]string, 0, len(states))
	for _, st := range states {
		ids = append(ids, st.FsObjectID)
	}
	objects, err := s.objects.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	objByID := make(map[string]*models.FsObject, len(objects))
	for i := range objects {
		objByID[objects[i].ID] = &objects[i]
	}

	entries := []driveSvc.TrashEntry{}
	for i := range states {
		obj, ok := objByID[states[i].FsObjectID]
		if !ok {
			continue
		}
		entries = append(entries, driveSvc.TrashEntry{Object: obj, State: &states[i]})
	}
	return entries, nil
}
