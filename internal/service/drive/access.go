package drive

import (
	"context"
	"fmt"
	"time"

	"drivehub/internal/config"
	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveRepo "drivehub/internal/domain/repositories/drive"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// newState builds a fresh state row. Ids are minted here rather than in the
// stores so the postgres and memory backends behave identically.
func newState(userID, objectID string, perm models.Permission, root bool) *models.State {
	now := time.Now()
	return &models.State{
		ID:         uuid.NewString(),
		UserID:     userID,
		FsObjectID: objectID,
		Permission: perm,
		Root:       root,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// stateOf loads the acting user's state on an object. Absence means the
// object does not exist in this user's view, so callers get a plain
// not-found regardless of whether the object exists for someone else.
func stateOf(ctx context.Context, states driveRepo.StateRepository, userID, objectID string) (*models.State, error) {
	st, err := states.GetOne(ctx, driveRepo.StateFilter{
		UserID:     userID,
		FsObjectID: objectID,
	})
	if err != nil {
		return nil, fmt.Errorf("fs object %s: %w", objectID, domain.ErrNotFound)
	}
	return st, nil
}

// visibleObject loads an object together with the acting user's state,
// requiring the state to exist and not be in trash.
func visibleObject(ctx context.Context, objects driveRepo.FsObjectRepository, states driveRepo.StateRepository, userID, objectID string) (*models.FsObject, *models.State, error) {
	obj, err := objects.GetByID(ctx, objectID)
	if err != nil {
		return nil, nil, err
	}
	st, err := stateOf(ctx, states, userID, objectID)
	if err != nil {
		return nil, nil, err
	}
	if st.Trash {
		return nil, nil, fmt.Errorf("fs object %s is in trash: %w", objectID, domain.ErrForbidden)
	}
	return obj, st, nil
}

// ownerStateOf returns the owner state on an object, if any.
func ownerStateOf(ctx context.Context, states driveRepo.StateRepository, objectID string) (*models.State, error) {
	owner := models.PermissionOwner
	return states.GetOne(ctx, driveRepo.StateFilter{
		FsObjectID: objectID,
		Permission: &owner,
	})
}

// validateParentFolder checks that parentID is a folder the user can write
// into: it must exist in the user's view, be of folder type, not be in the
// user's trash, and carry at least write permission.
func validateParentFolder(ctx context.Context, objects driveRepo.FsObjectRepository, states driveRepo.StateRepository, userID, parentID string) (*models.FsObject, error) {
	parent, err := objects.GetByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("parent folder %s: %w", parentID, domain.ErrNotFound)
	}
	if !parent.IsFolder() {
		return nil, fmt.Errorf("parent %s is a %s, not a folder: %w", parentID, parent.Type, domain.ErrValidation)
	}

	st, err := stateOf(ctx, states, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("parent folder %s: %w", parentID, domain.ErrNotFound)
	}
	if st.Trash {
		return nil, fmt.Errorf("parent folder %s is in trash: %w", parentID, domain.ErrForbidden)
	}
	if !st.Permission.AtLeast(models.PermissionWrite) {
		return nil, fmt.Errorf("write permission required on folder %s: %w", parentID, domain.ErrForbidden)
	}
	return parent, nil
}

// checkSiblingName rejects a (parent, name) pair already taken by another
// object. Under a folder the check spans all users (the store enforces the
// same constraint); at root level it spans only the acting user's own roots,
// since root-level namespaces are per user.
func checkSiblingName(ctx context.Context, objects driveRepo.FsObjectRepository, states driveRepo.StateRepository, userID string, parentID *string, name, excludeID string) error {
	if parentID != nil {
		siblings, err := objects.ListByParent(ctx, parentID)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.ID != excludeID && sib.Name == name {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("an object named %q already exists in this folder", name),
					ResourceType: "fs_object",
					ResourceID:   sib.ID,
				}
			}
		}
		return nil
	}

	rootTrue := true
	rootStates, err := states.GetMany(ctx, driveRepo.StateFilter{
		UserID: userID,
		Root:   &rootTrue,
	})
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(rootStates))
	for _, st := range rootStates {
		ids = append(ids, st.FsObjectID)
	}
	if len(ids) == 0 {
		return nil
	}
	roots, err := objects.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, root := range roots {
		if root.ID != excludeID && root.ParentID == nil && root.Name == name {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("an object named %q already exists at your root level", name),
				ResourceType: "fs_object",
				ResourceID:   root.ID,
			}
		}
	}
	return nil
}

// validateObjectName applies the shared naming rules for files, folders and
// shortcuts.
func validateObjectName(name string) error {
	err := validation.Validate(name,
		validation.Required.Error("name is required"),
		validation.Length(1, config.MaxObjectNameLength),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrValidation)
	}
	return nil
}
