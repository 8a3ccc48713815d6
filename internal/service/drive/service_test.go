package drive

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"drivehub/internal/config"
	models "drivehub/internal/domain/models/drive"
	driveRepo "drivehub/internal/domain/repositories/drive"
	driveSvc "drivehub/internal/domain/services/drive"
	memoryDrive "drivehub/internal/repository/memory/drive"
)

// testEnv wires the full service stack over the in-memory backend.
type testEnv struct {
	ctx       context.Context
	store     *memoryDrive.Store
	objects   driveSvc.FsObjectService
	sharing   driveSvc.SharingService
	trash     driveSvc.TrashService
	hierarchy *Hierarchy

	objRepo   driveRepo.FsObjectRepository
	stateRepo driveRepo.StateRepository
	quotaRepo driveRepo.QuotaRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memoryDrive.NewStore()
	objects := memoryDrive.NewFsObjectRepository(store)
	states := memoryDrive.NewStateRepository(store)
	quotas := memoryDrive.NewQuotaRepository(store)
	txManager := memoryDrive.NewTransactionManager(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hierarchy := NewHierarchy(objects, states, config.MaxHierarchySearchDepth)

	return &testEnv{
		ctx:       context.Background(),
		store:     store,
		objects:   NewFsObjectService(objects, states, quotas, hierarchy, txManager, logger),
		sharing:   NewSharingService(objects, states, quotas, hierarchy, txManager, logger),
		trash:     NewTrashService(objects, states, quotas, hierarchy, txManager, logger),
		hierarchy: hierarchy,
		objRepo:   objects,
		stateRepo: states,
		quotaRepo: quotas,
	}
}

func shareReq(objectID, targetID string, perm models.Permission) *driveSvc.ShareRequest {
	return &driveSvc.ShareRequest{
		ObjectID:     objectID,
		TargetUserID: targetID,
		Permission:   perm,
	}
}

// stateOn fetches one user's state on an object, failing the test when absent.
func (e *testEnv) stateOn(t *testing.T, userID, objectID string) *models.State {
	t.Helper()
	st, err := e.stateRepo.GetOne(e.ctx, driveRepo.StateFilter{
		UserID:     userID,
		FsObjectID: objectID,
	})
	if err != nil {
		t.Fatalf("state for user %s on %s not found: %v", userID, objectID, err)
	}
	return st
}

// hasState reports whether the user holds any state on the object.
func (e *testEnv) hasState(userID, objectID string) bool {
	_, err := e.stateRepo.GetOne(e.ctx, driveRepo.StateFilter{
		UserID:     userID,
		FsObjectID: objectID,
	})
	return err == nil
}

func (e *testEnv) mustCreateFolder(t *testing.T, userID, name string, parentID *string) *driveSvc.ObjectView {
	t.Helper()
	view, err := e.objects.CreateFolder(e.ctx, userID, &driveSvc.CreateFolderRequest{
		Name:     name,
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("CreateFolder(%q) failed: %v", name, err)
	}
	return view
}

func (e *testEnv) mustCreateFile(t *testing.T, userID, name string, parentID *string, size int64) *driveSvc.ObjectView {
	t.Helper()
	view, err := e.objects.CreateFile(e.ctx, userID, &driveSvc.CreateFileRequest{
		Name:        name,
		ParentID:    parentID,
		LocationKey: "blob/" + name,
		Bucket:      "test-bucket",
		SizeBytes:   size,
	})
	if err != nil {
		t.Fatalf("CreateFile(%q) failed: %v", name, err)
	}
	return view
}
