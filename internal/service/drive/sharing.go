package drive

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"drivehub/internal/config"
	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	"drivehub/internal/domain/repositories"
	driveRepo "drivehub/internal/domain/repositories/drive"
	driveSvc "drivehub/internal/domain/services/drive"
)

// grantablePermissions are the levels a share can confer. Ownership is
// assigned at creation and never granted.
var grantablePermissions = []models.Permission{models.PermissionRead, models.PermissionWrite}

type sharingService struct {
	objects   driveRepo.FsObjectRepository
	states    driveRepo.StateRepository
	quotas    driveRepo.QuotaRepository
	hierarchy *Hierarchy
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewSharingService creates a new sharing service
func NewSharingService(
	objects driveRepo.FsObjectRepository,
	states driveRepo.StateRepository,
	quotas driveRepo.QuotaRepository,
	hierarchy *Hierarchy,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) driveSvc.SharingService {
	return &sharingService{
		objects:   objects,
		states:    states,
		quotas:    quotas,
		hierarchy: hierarchy,
		txManager: txManager,
		logger:    logger,
	}
}

func validateGrant(actorID, targetID string, perm models.Permission) error {
	if targetID == "" {
		return fmt.Errorf("target_user_id is required: %w", domain.ErrValidation)
	}
	if targetID == actorID {
		return fmt.Errorf("cannot share with yourself: %w", domain.ErrValidation)
	}
	if !perm.Valid() {
		return fmt.Errorf("unknown permission %q: %w", perm, domain.ErrValidation)
	}
	if perm == models.PermissionOwner {
		return fmt.Errorf("ownership cannot be granted: %w", domain.ErrValidation)
	}
	return nil
}

// Share grants targetUser a permission on an object. Folder shares cascade
// over the full descendant set: missing states are created, lower ones are
// raised, and equal-or-higher ones (including ownership of objects the
// target created inside) are left alone.
func (s *sharingService) Share(ctx context.Context, userID string, req *driveSvc.ShareRequest) (*models.State, error) {
	if err := validateGrant(userID, req.TargetUserID, req.Permission); err != nil {
		return nil, err
	}

	var granted *models.State
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		obj, err := s.objects.GetByID(ctx, req.ObjectID)
		if err != nil {
			return err
		}
		// Sharing a shortcut shares what it points at.
		if obj.Type == models.TypeShortcut {
			if obj.Shortcut == nil || obj.Shortcut.RefID == "" {
				return fmt.Errorf("shortcut %s has no target: %w", obj.ID, domain.ErrValidation)
			}
			obj, err = s.objects.GetByID(ctx, obj.Shortcut.RefID)
			if err != nil {
				return fmt.Errorf("shortcut target: %w", err)
			}
		}

		actorState, err := stateOf(ctx, s.states, userID, obj.ID)
		if err != nil {
			return err
		}
		if actorState.Trash {
			return fmt.Errorf("fs object %s is in trash: %w", obj.ID, domain.ErrForbidden)
		}
		if !actorState.Permission.AtLeast(req.Permission) {
			return fmt.Errorf("cannot grant %s above your own %s: %w", req.Permission, actorState.Permission, domain.ErrForbidden)
		}

		granted, err = s.grant(ctx, req.TargetUserID, obj.ID, req.Permission, true)
		if err != nil {
			return err
		}

		if obj.IsFolder() {
			descendants, err := s.hierarchy.DescendantIDs(ctx, obj.ID, "")
			if err != nil {
				return err
			}
			if err := s.cascadeGrant(ctx, req.TargetUserID, descendants, req.Permission); err != nil {
				return err
			}
		}

		s.logger.InfoContext(ctx, "object shared",
			"object_id", obj.ID,
			"actor_id", userID,
			"target_id", req.TargetUserID,
			"permission", req.Permission,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return granted, nil
}

// grant creates or raises the target's state on a single object. Existing
// equal-or-higher permissions (and ownership) are never lowered; an existing
// state also keeps its root flag.
func (s *sharingService) grant(ctx context.Context, targetID, objectID string, perm models.Permission, root bool) (*models.State, error) {
	existing, err := s.states.GetOne(ctx, driveRepo.StateFilter{
		UserID:     targetID,
		FsObjectID: objectID,
	})
	if err != nil {
		st := newState(targetID, objectID, perm, root)
		if err := s.states.Create(ctx, st); err != nil {
			return nil, err
		}
		return st, nil
	}

	if existing.Permission.AtLeast(perm) {
		return existing, nil
	}
	patch := driveRepo.StatePatch{Permission: &perm}
	if root && !existing.Root {
		// Raising via a direct share promotes the state to an independent
		// entry point, shielding it from cascades on enclosing folders.
		patch.Root = &root
	}
	return s.states.UpdateOne(ctx, driveRepo.StateFilter{ID: existing.ID}, patch)
}

// cascadeGrant applies a raise-only grant over a descendant id set. Raises
// are batched per current level so owner states are structurally untouched.
func (s *sharingService) cascadeGrant(ctx context.Context, targetID string, ids []string, perm models.Permission) error {
	if len(ids) == 0 {
		return nil
	}

	existing, err := s.states.GetMany(ctx, driveRepo.StateFilter{
		UserID:      targetID,
		FsObjectIDs: ids,
	})
	if err != nil {
		return err
	}
	held := make(map[string]bool, len(existing))
	for _, st := range existing {
		held[st.FsObjectID] = true
	}

	for _, id := range ids {
		if held[id] {
			continue
		}
		if err := s.states.Create(ctx, newState(targetID, id, perm, false)); err != nil {
			return err
		}
	}

	for _, level := range grantablePermissions {
		if !perm.AtLeast(level) || level == perm {
			continue
		}
		level := level
		if _, err := s.states.UpdateMany(ctx, driveRepo.StateFilter{
			UserID:      targetID,
			FsObjectIDs: ids,
			Permission:  &level,
		}, driveRepo.StatePatch{Permission: &perm}); err != nil {
			return err
		}
	}
	return nil
}

// ChangePermission re-scopes an existing share up or down. The folder
// cascade touches only the target's reachable non-root descendants, so
// independently shared subtrees and objects the target owns keep their
// levels.
func (s *sharingService) ChangePermission(ctx context.Context, userID string, req *driveSvc.ChangePermissionRequest) (*models.State, error) {
	if err := validateGrant(userID, req.TargetUserID, req.Permission); err != nil {
		return nil, err
	}

	var updated *models.State
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		obj, err := s.objects.GetByID(ctx, req.ObjectID)
		if err != nil {
			return err
		}

		actorState, err := stateOf(ctx, s.states, userID, obj.ID)
		if err != nil {
			return err
		}
		if actorState.Trash {
			return fmt.Errorf("fs object %s is in trash: %w", obj.ID, domain.ErrForbidden)
		}
		if !actorState.Permission.AtLeast(req.Permission) {
			return fmt.Errorf("cannot grant %s above your own %s: %w", req.Permission, actorState.Permission, domain.ErrForbidden)
		}

		targetState, err := s.states.GetOne(ctx, driveRepo.StateFilter{
			UserID:     req.TargetUserID,
			FsObjectID: obj.ID,
		})
		if err != nil {
			return fmt.Errorf("user %s has no access to %s: %w", req.TargetUserID, obj.ID, domain.ErrNotFound)
		}
		if targetState.Permission == models.PermissionOwner {
			return fmt.Errorf("cannot change the owner's permission: %w", domain.ErrForbidden)
		}

		updated, err = s.states.UpdateOne(ctx, driveRepo.StateFilter{ID: targetState.ID}, driveRepo.StatePatch{Permission: &req.Permission})
		if err != nil {
			return err
		}

		if obj.IsFolder() {
			reachable, err := s.hierarchy.ReachableNonRootDescendants(ctx, req.TargetUserID, obj.ID)
			if err != nil {
				return err
			}
			for _, level := range grantablePermissions {
				if level == req.Permission || len(reachable) == 0 {
					continue
				}
				level := level
				if _, err := s.states.UpdateMany(ctx, driveRepo.StateFilter{
					UserID:      req.TargetUserID,
					FsObjectIDs: reachable,
					Permission:  &level,
				}, driveRepo.StatePatch{Permission: &req.Permission}); err != nil {
					return err
				}
			}
		}

		s.logger.InfoContext(ctx, "permission changed",
			"object_id", obj.ID,
			"actor_id", userID,
			"target_id", req.TargetUserID,
			"permission", req.Permission,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Unshare revokes every state the target holds on an object and their
// reachable non-root descendants, ownership included: objects the target
// created inside pass to the unshared object's owner together with their
// quota bytes. Shortcuts the target owns pointing into the revoked set are
// destroyed so their drive never shows a link they cannot follow.
func (s *sharingService) Unshare(ctx context.Context, userID, objectID, targetUserID string) error {
	if targetUserID == "" {
		return fmt.Errorf("target_user_id is required: %w", domain.ErrValidation)
	}

	return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		obj, err := s.objects.GetByID(ctx, objectID)
		if err != nil {
			return err
		}

		actorState, err := stateOf(ctx, s.states, userID, objectID)
		if err != nil {
			return err
		}
		targetState, err := s.states.GetOne(ctx, driveRepo.StateFilter{
			UserID:     targetUserID,
			FsObjectID: objectID,
		})
		if err != nil {
			return fmt.Errorf("user %s has no access to %s: %w", targetUserID, objectID, domain.ErrNotFound)
		}
		if targetState.Permission == models.PermissionOwner {
			return fmt.Errorf("cannot unshare the owner: %w", domain.ErrForbidden)
		}
		if actorState.Permission.Level() <= targetState.Permission.Level() {
			return fmt.Errorf("unsharing requires a permission above the target's %s: %w", targetState.Permission, domain.ErrForbidden)
		}

		revoked := []string{objectID}
		if obj.IsFolder() {
			reachable, err := s.hierarchy.ReachableNonRootDescendants(ctx, targetUserID, objectID)
			if err != nil {
				return err
			}
			revoked = append(revoked, reachable...)
		}

		if err := s.destroyTargetShortcutsInto(ctx, targetUserID, revoked); err != nil {
			return err
		}

		// Objects the target owns inside the revoked set would be left
		// ownerless, so ownership passes to the unshared object's owner,
		// carrying the file bytes across the two quota ledgers.
		if err := s.reassignTargetOwnership(ctx, targetUserID, objectID, revoked); err != nil {
			return err
		}

		if _, err := s.states.DeleteMany(ctx, driveRepo.StateFilter{
			UserID:      targetUserID,
			FsObjectIDs: revoked,
		}); err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "object unshared",
			"object_id", objectID,
			"actor_id", userID,
			"target_id", targetUserID,
			"revoked_count", len(revoked),
		)
		return nil
	})
}

// destroyTargetShortcutsInto removes every shortcut owned by targetID whose
// ref falls in ids, together with all states on those shortcuts.
func (s *sharingService) destroyTargetShortcutsInto(ctx context.Context, targetID string, ids []string) error {
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
		if ownerState.UserID == targetID {
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

// reassignTargetOwnership hands every object the target owns inside ids over
// to the owner of the unshared root object, moving the file bytes between the
// two quota ledgers in the same transaction. Target-owned shortcuts in the
// set are personal pointers and are destroyed instead.
func (s *sharingService) reassignTargetOwnership(ctx context.Context, targetID, rootID string, ids []string) error {
	ownerPerm := models.PermissionOwner
	owned, err := s.states.GetMany(ctx, driveRepo.StateFilter{
		UserID:      targetID,
		FsObjectIDs: ids,
		Permission:  &ownerPerm,
	})
	if err != nil {
		return err
	}
	if len(owned) == 0 {
		return nil
	}

	rootOwner, err := ownerStateOf(ctx, s.states, rootID)
	if err != nil {
		return fmt.Errorf("fs object %s has no owner: %w", rootID, domain.ErrBrokenHierarchy)
	}

	var moved int64
	var doomed []string
	for i := range owned {
		obj, err := s.objects.GetByID(ctx, owned[i].FsObjectID)
		if err != nil {
			return err
		}
		if obj.Type == models.TypeShortcut {
			doomed = append(doomed, obj.ID)
			continue
		}

		existing, err := s.states.GetOne(ctx, driveRepo.StateFilter{
			UserID:     rootOwner.UserID,
			FsObjectID: obj.ID,
		})
		if err == nil {
			if _, err := s.states.UpdateOne(ctx, driveRepo.StateFilter{ID: existing.ID}, driveRepo.StatePatch{Permission: &ownerPerm}); err != nil {
				return err
			}
		} else {
			if err := s.states.Create(ctx, newState(rootOwner.UserID, obj.ID, models.PermissionOwner, false)); err != nil {
				return err
			}
		}
		moved += obj.Size()
	}

	if len(doomed) > 0 {
		if _, err := s.states.DeleteMany(ctx, driveRepo.StateFilter{FsObjectIDs: doomed}); err != nil {
			return err
		}
		if _, err := s.objects.DeleteByIDs(ctx, doomed); err != nil {
			return err
		}
	}

	if moved > 0 {
		if _, err := s.quotas.AddUsed(ctx, targetID, -moved); err != nil {
			return err
		}
		if _, err := s.quotas.EnsureDefault(ctx, rootOwner.UserID, config.DefaultQuotaLimitBytes); err != nil {
			return err
		}
		if _, err := s.quotas.AddUsed(ctx, rootOwner.UserID, moved); err != nil {
			return err
		}
	}
	return nil
}

// ListCollaborators lists every state on an object the acting user can read
func (s *sharingService) ListCollaborators(ctx context.Context, userID, objectID string) ([]models.State, error) {
	if _, err := s.objects.GetByID(ctx, objectID); err != nil {
		return nil, err
	}
	if _, err := stateOf(ctx, s.states, userID, objectID); err != nil {
		return nil, err
	}

	states, err := s.states.GetMany(ctx, driveRepo.StateFilter{FsObjectID: objectID})
	if err != nil {
		return nil, err
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].Permission.Level() != states[j].Permission.Level() {
			return states[i].Permission.Level() > states[j].Permission.Level()
		}
		return states[i].UserID < states[j].UserID
	})
	return states, nil
}
