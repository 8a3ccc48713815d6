package drive

import (
	"errors"
	"testing"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveSvc "drivehub/internal/domain/services/drive"
)

func TestOwnerTrashSweepsAllUsers(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 10)

	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	if err := env.trash.Trash(env.ctx, u1, f.Object.ID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}

	root := env.stateOn(t, u1, f.Object.ID)
	if !root.Trash || !root.TrashRoot {
		t.Errorf("actor state must carry trash and trash-root, got %+v", root)
	}
	child := env.stateOn(t, u1, x.Object.ID)
	if !child.Trash || child.TrashRoot {
		t.Errorf("swept child must be trash without trash-root, got %+v", child)
	}
	// Collaborator states are swept too, but the trash root stays the owner's.
	other := env.stateOn(t, u2, f.Object.ID)
	if !other.Trash || other.TrashRoot {
		t.Errorf("collaborator state must be trash without trash-root, got %+v", other)
	}
}

func TestTrashTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	f := env.mustCreateFolder(t, u1, "F", nil)
	if err := env.trash.Trash(env.ctx, u1, f.Object.ID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}

	err := env.trash.Trash(env.ctx, u1, f.Object.ID)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict on double trash, got %v", err)
	}
}

func TestNonOwnerTrashLeavesOwnerView(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 10)

	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	if err := env.trash.Trash(env.ctx, u2, f.Object.ID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}

	if st := env.stateOn(t, u2, f.Object.ID); !st.Trash || !st.TrashRoot {
		t.Errorf("actor state must be the trash root, got %+v", st)
	}
	if st := env.stateOn(t, u2, x.Object.ID); !st.Trash {
		t.Errorf("actor's reachable child must be swept")
	}
	if st := env.stateOn(t, u1, f.Object.ID); st.Trash {
		t.Errorf("owner's view must be untouched by a collaborator's trash")
	}
	if st := env.stateOn(t, u1, x.Object.ID); st.Trash {
		t.Errorf("owner's child view must be untouched")
	}
}

func TestTrashDestroysForeignShortcutsIntoSubtree(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 10)

	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	link, err := env.objects.CreateShortcut(env.ctx, u2, &driveSvc.CreateShortcutRequest{
		Name:  "X (link)",
		RefID: x.Object.ID,
	})
	if err != nil {
		t.Fatalf("CreateShortcut failed: %v", err)
	}

	if err := env.trash.Trash(env.ctx, u1, f.Object.ID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}

	// Nobody keeps a live link into someone else's trash.
	if _, err := env.objRepo.GetByID(env.ctx, link.Object.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("collaborator's shortcut into the trashed subtree must be destroyed, got %v", err)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 10)

	if err := env.trash.Trash(env.ctx, u1, f.Object.ID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}
	if err := env.trash.Restore(env.ctx, u1, f.Object.ID); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	for _, id := range []string{f.Object.ID, x.Object.ID} {
		st := env.stateOn(t, u1, id)
		if st.Trash || st.TrashRoot {
			t.Errorf("restored state on %s still flagged: %+v", id, st)
		}
	}
}

func TestRestoreRequiresTrashRoot(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 10)

	if err := env.trash.Restore(env.ctx, u1, f.Object.ID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("restore of untrashed object must fail validation, got %v", err)
	}

	if err := env.trash.Trash(env.ctx, u1, f.Object.ID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}
	// The swept child is trash but not a trash root: it restores through its
	// folder, never directly.
	if err := env.trash.Restore(env.ctx, u1, x.Object.ID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("restore of a swept child must fail validation, got %v", err)
	}
}

func TestOwnerPurgeDeletesAndReleasesQuota(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 20_000)

	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionRead)); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	// The owner's own shortcut outside the subtree survives the trash but
	// must not survive the purge pointing at nothing.
	link, err := env.objects.CreateShortcut(env.ctx, u1, &driveSvc.CreateShortcutRequest{
		Name:  "X (link)",
		RefID: x.Object.ID,
	})
	if err != nil {
		t.Fatalf("CreateShortcut failed: %v", err)
	}

	if err := env.trash.Trash(env.ctx, u1, f.Object.ID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}
	if err := env.trash.Purge(env.ctx, u1, f.Object.ID); err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	for _, id := range []string{f.Object.ID, x.Object.ID, link.Object.ID} {
		if _, err := env.objRepo.GetByID(env.ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("object %s must be gone, got %v", id, err)
		}
	}
	if env.hasState(u1, f.Object.ID) || env.hasState(u2, f.Object.ID) {
		t.Errorf("all states over the purged subtree must be gone")
	}

	quota, err := env.quotaRepo.GetByUserID(env.ctx, u1)
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if quota.Used != 0 {
		t.Errorf("purge must release the file's bytes, used = %d", quota.Used)
	}
}

func TestNonOwnerPurgeKeepsObjectsAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 10)

	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	// The collaborator creates their own file inside the shared folder.
	mine := env.mustCreateFile(t, u2, "mine.txt", &f.Object.ID, 5_000)

	if err := env.trash.Trash(env.ctx, u2, f.Object.ID); err != nil {
		t.Fatalf("trash failed: %v", err)
	}
	if err := env.trash.Purge(env.ctx, u2, f.Object.ID); err != nil {
		t.Fatalf("purge failed: %v", err)
	}

	// Objects survive for the owner.
	for _, id := range []string{f.Object.ID, x.Object.ID, mine.Object.ID} {
		if _, err := env.objRepo.GetByID(env.ctx, id); err != nil {
			t.Errorf("object %s must survive a non-owner purge: %v", id, err)
		}
	}
	// The collaborator's shared states are gone, but ownership of their own
	// file and its quota accounting remain.
	if env.hasState(u2, f.Object.ID) || env.hasState(u2, x.Object.ID) {
		t.Errorf("collaborator's shared states must be gone")
	}
	if st := env.stateOn(t, u2, mine.Object.ID); st.Permission != models.PermissionOwner {
		t.Errorf("collaborator must keep ownership of their own file, got %s", st.Permission)
	}
	quota, err := env.quotaRepo.GetByUserID(env.ctx, u2)
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if quota.Used != 5_000 {
		t.Errorf("owned file must stay charged, used = %d", quota.Used)
	}
}

func TestPurgeRequiresTrashRoot(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	f := env.mustCreateFolder(t, u1, "F", nil)
	if err := env.trash.Purge(env.ctx, u1, f.Object.ID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("purge of untrashed object must fail validation, got %v", err)
	}
}

func TestListTrashShowsOnlyTrashRoots(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	f := env.mustCreateFolder(t, u1, "F", nil)
	env.mustCreateFile(t, u1, "X", &f.Object.ID, 10)
	loose := env.mustCreateFile(t, u1, "loose.txt", nil, 10)

	if err := env.trash.Trash(env.ctx, u1, f.Object.ID); err != nil {
		t.Fatalf("trash folder failed: %v", err)
	}
	if err := env.trash.Trash(env.ctx, u1, loose.Object.ID); err != nil {
		t.Fatalf("trash file failed: %v", err)
	}

	entries, err := env.trash.ListTrash(env.ctx, u1)
	if err != nil {
		t.Fatalf("ListTrash failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 trash roots, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Object.ID != f.Object.ID && entry.Object.ID != loose.Object.ID {
			t.Errorf("unexpected trash entry %s, swept children must not be listed", entry.Object.ID)
		}
	}
}
