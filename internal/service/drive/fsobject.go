package drive

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"drivehub/internal/config"
	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	"drivehub/internal/domain/repositories"
	driveRepo "drivehub/internal/domain/repositories/drive"
	driveSvc "drivehub/internal/domain/services/drive"

	"github.com/google/uuid"
)

type fsObjectService struct {
	objects   driveRepo.FsObjectRepository
	states    driveRepo.StateRepository
	quotas    driveRepo.QuotaRepository
	hierarchy *Hierarchy
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewFsObjectService creates a new fs-object service
func NewFsObjectService(
	objects driveRepo.FsObjectRepository,
	states driveRepo.StateRepository,
	quotas driveRepo.QuotaRepository,
	hierarchy *Hierarchy,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) driveSvc.FsObjectService {
	return &fsObjectService{
		objects:   objects,
		states:    states,
		quotas:    quotas,
		hierarchy: hierarchy,
		txManager: txManager,
		logger:    logger,
	}
}

// CreateFile creates a file, its owner state and the quota charge atomically
func (s *fsObjectService) CreateFile(ctx context.Context, userID string, req *driveSvc.CreateFileRequest) (*driveSvc.ObjectView, error) {
	if req.SizeBytes < 0 {
		return nil, fmt.Errorf("size_bytes must not be negative: %w", domain.ErrValidation)
	}

	now := time.Now()
	obj := &models.FsObject{
		ID:        uuid.NewString(),
		Name:      req.Name,
		ParentID:  req.ParentID,
		Type:      models.TypeFile,
		CreatedAt: now,
		UpdatedAt: now,
		File: &models.FileAttrs{
			LocationKey:  req.LocationKey,
			Bucket:       req.Bucket,
			SizeBytes:    req.SizeBytes,
			IsPublic:     req.IsPublic,
			ClientOrigin: req.ClientOrigin,
		},
	}
	return s.create(ctx, userID, obj)
}

// CreateFolder creates a folder with its owner state
func (s *fsObjectService) CreateFolder(ctx context.Context, userID string, req *driveSvc.CreateFolderRequest) (*driveSvc.ObjectView, error) {
	now := time.Now()
	obj := &models.FsObject{
		ID:        uuid.NewString(),
		Name:      req.Name,
		ParentID:  req.ParentID,
		Type:      models.TypeFolder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.create(ctx, userID, obj)
}

// CreateShortcut creates a shortcut, dereferencing shortcut targets so a
// shortcut always points at a file or folder, never at another shortcut.
func (s *fsObjectService) CreateShortcut(ctx context.Context, userID string, req *driveSvc.CreateShortcutRequest) (*driveSvc.ObjectView, error) {
	if req.RefID == "" {
		return nil, fmt.Errorf("ref_id is required: %w", domain.ErrValidation)
	}

	var view *driveSvc.ObjectView
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		ref, err := s.objects.GetByID(ctx, req.RefID)
		if err != nil {
			return fmt.Errorf("shortcut target %s: %w", req.RefID, domain.ErrNotFound)
		}
		if _, err := stateOf(ctx, s.states, userID, ref.ID); err != nil {
			return fmt.Errorf("shortcut target %s: %w", req.RefID, domain.ErrNotFound)
		}
		if ref.Type == models.TypeShortcut {
			if ref.Shortcut == nil || ref.Shortcut.RefID == "" {
				return fmt.Errorf("shortcut %s has no target: %w", ref.ID, domain.ErrValidation)
			}
			ref, err = s.objects.GetByID(ctx, ref.Shortcut.RefID)
			if err != nil {
				return fmt.Errorf("shortcut target %s is dangling: %w", req.RefID, domain.ErrValidation)
			}
		}

		now := time.Now()
		obj := &models.FsObject{
			ID:        uuid.NewString(),
			Name:      req.Name,
			ParentID:  req.ParentID,
			Type:      models.TypeShortcut,
			CreatedAt: now,
			UpdatedAt: now,
			Shortcut:  &models.ShortcutAttrs{RefID: ref.ID},
		}
		view, err = s.createInTx(ctx, userID, obj)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// create runs the shared creation path in its own transaction.
func (s *fsObjectService) create(ctx context.Context, userID string, obj *models.FsObject) (*driveSvc.ObjectView, error) {
	var view *driveSvc.ObjectView
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		view, err = s.createInTx(ctx, userID, obj)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// createInTx is the shared creation path: parent validation, sibling-name
// check, quota charge for files, object insert, owner state, and state
// inheritance from the parent. Must run inside a transaction.
func (s *fsObjectService) createInTx(ctx context.Context, userID string, obj *models.FsObject) (*driveSvc.ObjectView, error) {
	if err := validateObjectName(obj.Name); err != nil {
		return nil, err
	}

	var parent *models.FsObject
	if obj.ParentID != nil {
		var err error
		parent, err = validateParentFolder(ctx, s.objects, s.states, userID, *obj.ParentID)
		if err != nil {
			return nil, err
		}
	}
	if err := checkSiblingName(ctx, s.objects, s.states, userID, obj.ParentID, obj.Name, obj.ID); err != nil {
		return nil, err
	}

	// Quota is charged before the insert so an over-quota request leaves no
	// orphan row behind on backends without transactional rollback.
	if size := obj.Size(); size > 0 || obj.Type == models.TypeFile {
		if _, err := s.quotas.EnsureDefault(ctx, userID, config.DefaultQuotaLimitBytes); err != nil {
			return nil, err
		}
		if size > 0 {
			if _, err := s.quotas.AddUsed(ctx, userID, size); err != nil {
				return nil, err
			}
		}
	}

	if err := s.objects.Create(ctx, obj); err != nil {
		return nil, err
	}

	ownerState := newState(userID, obj.ID, models.PermissionOwner, obj.ParentID == nil)
	if err := s.states.Create(ctx, ownerState); err != nil {
		return nil, err
	}

	if parent != nil {
		if err := s.inheritParentStates(ctx, userID, obj.ID, parent.ID); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "fs object created",
		"object_id", obj.ID,
		"type", obj.Type,
		"user_id", userID,
	)
	return &driveSvc.ObjectView{Object: obj, State: ownerState}, nil
}

// inheritParentStates copies the parent's states onto a freshly created
// child for every user other than the creator, so a shared folder's
// collaborators see new content immediately. The parent's owner is capped at
// write on the child: the creator owns what they create.
func (s *fsObjectService) inheritParentStates(ctx context.Context, creatorID, objectID, parentID string) error {
	parentStates, err := s.states.GetMany(ctx, driveRepo.StateFilter{FsObjectID: parentID})
	if err != nil {
		return err
	}

	for _, ps := range parentStates {
		if ps.UserID == creatorID {
			continue
		}
		perm := ps.Permission.Cap(models.PermissionWrite)
		st := newState(ps.UserID, objectID, perm, false)
		st.Trash = ps.Trash
		if err := s.states.Create(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// GetObject retrieves an object with the acting user's state on it
func (s *fsObjectService) GetObject(ctx context.Context, userID, objectID string) (*driveSvc.ObjectView, error) {
	obj, err := s.objects.GetByID(ctx, objectID)
	if err != nil {
		return nil, err
	}
	st, err := stateOf(ctx, s.states, userID, objectID)
	if err != nil {
		return nil, err
	}
	return &driveSvc.ObjectView{Object: obj, State: st}, nil
}

// ListRoots lists the user's root-level view
func (s *fsObjectService) ListRoots(ctx context.Context, userID string) ([]driveSvc.ObjectView, error) {
	rootTrue := true
	trashFalse := false
	states, err := s.states.GetMany(ctx, driveRepo.StateFilter{
		UserID: userID,
		Root:   &rootTrue,
		Trash:  &trashFalse,
	})
	if err != nil {
		return nil, err
	}
	return s.viewsFor(ctx, states)
}

// ListChildren lists the children of a folder visible to the user. Children
// the user has no state on, or has trashed, are omitted.
func (s *fsObjectService) ListChildren(ctx context.Context, userID, folderID string) ([]driveSvc.ObjectView, error) {
	folder, _, err := visibleObject(ctx, s.objects, s.states, userID, folderID)
	if err != nil {
		return nil, err
	}
	if !folder.IsFolder() {
		return nil, fmt.Errorf("fs object %s is a %s, not a folder: %w", folderID, folder.Type, domain.ErrValidation)
	}

	children, err := s.objects.ListByParent(ctx, &folderID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return []driveSvc.ObjectView{}, nil
	}

	ids := make([]string, 0, len(children))
	for _, child := range children {
		ids = append(ids, child.ID)
	}
	trashFalse := false
	childStates, err := s.states.GetMany(ctx, driveRepo.StateFilter{
		UserID:      userID,
		FsObjectIDs: ids,
		Trash:       &trashFalse,
	})
	if err != nil {
		return nil, err
	}
	stateByID := make(map[string]models.State, len(childStates))
	for _, st := range childStates {
		stateByID[st.FsObjectID] = st
	}

	views := []driveSvc.ObjectView{}
	for i := range children {
		st, ok := stateByID[children[i].ID]
		if !ok {
			continue
		}
		views = append(views, driveSvc.ObjectView{Object: &children[i], State: &st})
	}
	return views, nil
}

// ListFavorites lists the user's favorited objects
func (s *fsObjectService) ListFavorites(ctx context.Context, userID string) ([]driveSvc.ObjectView, error) {
	favTrue := true
	trashFalse := false
	states, err := s.states.GetMany(ctx, driveRepo.StateFilter{
		UserID:   userID,
		Favorite: &favTrue,
		Trash:    &trashFalse,
	})
	if err != nil {
		return nil, err
	}
	return s.viewsFor(ctx, states)
}

// viewsFor resolves objects for a list of states and pairs them, sorted by
// object name for a stable listing.
func (s *fsObjectService) viewsFor(ctx context.Context, states []models.State) ([]driveSvc.ObjectView, error) {
	if len(states) == 0 {
		return []driveSvc.ObjectView{}, nil
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

	views := []driveSvc.ObjectView{}
	for i := range states {
		obj, ok := objByID[states[i].FsObjectID]
		if !ok {
			continue
		}
		views = append(views, driveSvc.ObjectView{Object: obj, State: &states[i]})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Object.Name < views[j].Object.Name })
	return views, nil
}

// Ancestors returns the folder chain above an object in the user's view,
// root-to-leaf. The chain is truncated at the user's reachability entry
// point: ancestors above the folder that was shared with them stay hidden.
func (s *fsObjectService) Ancestors(ctx context.Context, userID, objectID string) ([]models.FsObject, error) {
	st, err := stateOf(ctx, s.states, userID, objectID)
	if err != nil {
		return nil, err
	}
	if st.Root {
		return []models.FsObject{}, nil
	}

	chain, err := s.hierarchy.AncestorChain(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return []models.FsObject{}, nil
	}

	ids := make([]string, 0, len(chain))
	for _, anc := range chain {
		ids = append(ids, anc.ID)
	}
	ancStates, err := s.states.GetMany(ctx, driveRepo.StateFilter{
		UserID:      userID,
		FsObjectIDs: ids,
	})
	if err != nil {
		return nil, err
	}
	stateByID := make(map[string]models.State, len(ancStates))
	for _, as := range ancStates {
		stateByID[as.FsObjectID] = as
	}

	// Walk leaf-to-root, stopping at (and including) the user's root entry.
	visible := []models.FsObject{}
	for i := len(chain) - 1; i >= 0; i-- {
		as, ok := stateByID[chain[i].ID]
		if !ok {
			break
		}
		visible = append([]models.FsObject{chain[i]}, visible...)
		if as.Root {
			break
		}
	}
	return visible, nil
}

// UpdateFile updates file metadata; a size change adjusts the owner's quota
// by the delta in the same transaction
func (s *fsObjectService) UpdateFile(ctx context.Context, userID, objectID string, req *driveSvc.UpdateFileRequest) (*driveSvc.ObjectView, error) {
	var view *driveSvc.ObjectView
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		obj, st, ownerState, err := s.updatableObject(ctx, userID, objectID, models.TypeFile)
		if err != nil {
			return err
		}

		if req.SizeBytes != nil {
			if *req.SizeBytes < 0 {
				return fmt.Errorf("size_bytes must not be negative: %w", domain.ErrValidation)
			}
			delta := *req.SizeBytes - obj.File.SizeBytes
			if delta != 0 {
				if _, err := s.quotas.AddUsed(ctx, ownerState.UserID, delta); err != nil {
					return err
				}
				obj.File.SizeBytes = *req.SizeBytes
			}
		}
		if req.IsPublic != nil {
			obj.File.IsPublic = *req.IsPublic
		}

		if err := s.applyRenameMove(ctx, userID, obj, ownerState, req.Name, req.ParentID); err != nil {
			return err
		}
		view = &driveSvc.ObjectView{Object: obj, State: st}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateFolder renames or moves a folder
func (s *fsObjectService) UpdateFolder(ctx context.Context, userID, objectID string, req *driveSvc.UpdateFolderRequest) (*driveSvc.ObjectView, error) {
	var view *driveSvc.ObjectView
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		obj, st, ownerState, err := s.updatableObject(ctx, userID, objectID, models.TypeFolder)
		if err != nil {
			return err
		}
		if err := s.applyRenameMove(ctx, userID, obj, ownerState, req.Name, req.ParentID); err != nil {
			return err
		}
		view = &driveSvc.ObjectView{Object: obj, State: st}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateShortcut renames or moves a shortcut
func (s *fsObjectService) UpdateShortcut(ctx context.Context, userID, objectID string, req *driveSvc.UpdateShortcutRequest) (*driveSvc.ObjectView, error) {
	var view *driveSvc.ObjectView
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		obj, st, ownerState, err := s.updatableObject(ctx, userID, objectID, models.TypeShortcut)
		if err != nil {
			return err
		}
		if err := s.applyRenameMove(ctx, userID, obj, ownerState, req.Name, req.ParentID); err != nil {
			return err
		}
		view = &driveSvc.ObjectView{Object: obj, State: st}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// updatableObject loads an object of the expected type together with the
// acting user's state (write required, not in trash) and the owner's state.
func (s *fsObjectService) updatableObject(ctx context.Context, userID, objectID string, expected models.ObjectType) (*models.FsObject, *models.State, *models.State, error) {
	obj, st, err := visibleObject(ctx, s.objects, s.states, userID, objectID)
	if err != nil {
		return nil, nil, nil, err
	}
	if obj.Type != expected {
		return nil, nil, nil, fmt.Errorf("fs object %s is a %s, not a %s: %w", objectID, obj.Type, expected, domain.ErrValidation)
	}
	if !st.Permission.AtLeast(models.PermissionWrite) {
		return nil, nil, nil, fmt.Errorf("write permission required on %s: %w", objectID, domain.ErrForbidden)
	}

	ownerState, err := ownerStateOf(ctx, s.states, objectID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fs object %s has no owner: %w", objectID, domain.ErrBrokenHierarchy)
	}
	return obj, st, ownerState, nil
}

// applyRenameMove applies name and parent patches, re-validating the sibling
// constraint, blocking folder moves under the folder's own subtree, and
// keeping the owner's root flag in step with the parent pointer. It persists
// the object, so attribute changes made by the caller beforehand are written
// in the same statement.
func (s *fsObjectService) applyRenameMove(ctx context.Context, userID string, obj *models.FsObject, ownerState *models.State, name *string, parent driveSvc.OptionalParent) error {
	if name != nil && *name != obj.Name {
		if err := validateObjectName(*name); err != nil {
			return err
		}
		obj.Name = *name
	}

	if parent.Present && !sameParent(obj.ParentID, parent.Value) {
		if parent.Value != nil {
			newParent, err := validateParentFolder(ctx, s.objects, s.states, userID, *parent.Value)
			if err != nil {
				return err
			}
			if obj.IsFolder() {
				if newParent.ID == obj.ID {
					return fmt.Errorf("cannot move folder %s into itself: %w", obj.ID, domain.ErrValidation)
				}
				chain, err := s.hierarchy.AncestorChain(ctx, newParent.ID)
				if err != nil {
					return err
				}
				for _, anc := range chain {
					if anc.ID == obj.ID {
						return fmt.Errorf("cannot move folder %s under its own descendant: %w", obj.ID, domain.ErrValidation)
					}
				}
			}
		} else if ownerState.UserID != userID {
			// Only the owner has a root level to move things to.
			return fmt.Errorf("only the owner can move an object to root level: %w", domain.ErrForbidden)
		}
		obj.ParentID = parent.Value

		rootFlag := obj.ParentID == nil
		if ownerState.Root != rootFlag {
			if _, err := s.states.UpdateOne(ctx, driveRepo.StateFilter{ID: ownerState.ID}, driveRepo.StatePatch{Root: &rootFlag}); err != nil {
				return err
			}
			ownerState.Root = rootFlag
		}
	}

	// Sibling uniqueness is rechecked against the owner's namespace: the
	// owner is the only user with the object at their root level.
	if err := checkSiblingName(ctx, s.objects, s.states, ownerState.UserID, obj.ParentID, obj.Name, obj.ID); err != nil {
		return err
	}

	obj.UpdatedAt = time.Now()
	return s.objects.Update(ctx, obj)
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// SetFavorite flips the user's favorite flag on an object
func (s *fsObjectService) SetFavorite(ctx context.Context, userID, objectID string, favorite bool) (*models.State, error) {
	var st *models.State
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		updated, err := s.states.UpdateOne(ctx, driveRepo.StateFilter{
			UserID:     userID,
			FsObjectID: objectID,
		}, driveRepo.StatePatch{Favorite: &favorite})
		if err != nil {
			return fmt.Errorf("fs object %s: %w", objectID, domain.ErrNotFound)
		}
		st = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}
