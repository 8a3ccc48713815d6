package drive

import (
	"errors"
	"testing"

	"drivehub/internal/config"
	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveSvc "drivehub/internal/domain/services/drive"
)

func TestCreateFolderOwnerState(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	top := env.mustCreateFolder(t, u1, "Documents", nil)
	if top.State.Permission != models.PermissionOwner {
		t.Errorf("creator must own the folder, got %s", top.State.Permission)
	}
	if !top.State.Root {
		t.Errorf("root-level folder must carry a root state")
	}

	sub := env.mustCreateFolder(t, u1, "Reports", &top.Object.ID)
	if sub.State.Root {
		t.Errorf("nested folder must not carry a root state")
	}
}

func TestCreateFileChargesQuota(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	env.mustCreateFile(t, u1, "small.bin", nil, 20_000)

	q, err := env.quotaRepo.GetByUserID(env.ctx, u1)
	if err != nil {
		t.Fatalf("quota not provisioned: %v", err)
	}
	if q.Used != 20_000 {
		t.Errorf("expected 20000 bytes used, got %d", q.Used)
	}
	if q.Limit != config.DefaultQuotaLimitBytes {
		t.Errorf("expected default limit, got %d", q.Limit)
	}

	// A file the size of the whole allowance no longer fits.
	_, err = env.objects.CreateFile(env.ctx, u1, &driveSvc.CreateFileRequest{
		Name:        "huge.bin",
		LocationKey: "blob/huge.bin",
		Bucket:      "test-bucket",
		SizeBytes:   config.DefaultQuotaLimitBytes,
	})
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	var quotaErr *domain.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected *QuotaExceededError, got %T", err)
	}
	if quotaErr.Used != 20_000 {
		t.Errorf("error must carry current usage, got %d", quotaErr.Used)
	}

	// The failed create must not leave an object behind.
	views, err := env.objects.ListRoots(env.ctx, u1)
	if err != nil {
		t.Fatalf("ListRoots failed: %v", err)
	}
	if len(views) != 1 {
		t.Errorf("expected 1 root object after failed create, got %d", len(views))
	}
}

func TestSiblingNameConflict(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	top := env.mustCreateFolder(t, u1, "top", nil)
	env.mustCreateFile(t, u1, "doc.txt", &top.Object.ID, 10)

	_, err := env.objects.CreateFile(env.ctx, u1, &driveSvc.CreateFileRequest{
		Name:        "doc.txt",
		ParentID:    &top.Object.ID,
		LocationKey: "blob/dup",
		Bucket:      "test-bucket",
		SizeBytes:   10,
	})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError for duplicate sibling, got %v", err)
	}

	// Root level is a namespace too.
	env.mustCreateFolder(t, u1, "unique", nil)
	_, err = env.objects.CreateFolder(env.ctx, u1, &driveSvc.CreateFolderRequest{Name: "unique"})
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError for duplicate root name, got %v", err)
	}
}

func TestCreateInSharedFolderInheritsStates(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	shared := env.mustCreateFolder(t, u1, "shared", nil)
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(shared.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	// The collaborator creates a file inside; they own it, the folder owner
	// is capped at write.
	file := env.mustCreateFile(t, u2, "from-u2.txt", &shared.Object.ID, 64)
	if file.State.Permission != models.PermissionOwner || file.State.UserID != u2 {
		t.Fatalf("creator must own the new file")
	}

	ownerView := env.stateOn(t, u1, file.Object.ID)
	if ownerView.Permission != models.PermissionWrite {
		t.Errorf("folder owner must be capped at write on the child, got %s", ownerView.Permission)
	}
	if ownerView.Root {
		t.Errorf("inherited state must not be a root entry")
	}

	// The creator's quota carries the file, not the folder owner's.
	q, err := env.quotaRepo.GetByUserID(env.ctx, u2)
	if err != nil {
		t.Fatalf("creator quota missing: %v", err)
	}
	if q.Used != 64 {
		t.Errorf("expected 64 bytes on creator's quota, got %d", q.Used)
	}
}

func TestUpdateFileSizeAdjustsOwnerQuota(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	file := env.mustCreateFile(t, u1, "grow.bin", nil, 1_000)

	newSize := int64(5_000)
	if _, err := env.objects.UpdateFile(env.ctx, u1, file.Object.ID, &driveSvc.UpdateFileRequest{
		SizeBytes: &newSize,
	}); err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}

	q, _ := env.quotaRepo.GetByUserID(env.ctx, u1)
	if q.Used != 5_000 {
		t.Errorf("expected 5000 bytes used after growth, got %d", q.Used)
	}

	smaller := int64(500)
	if _, err := env.objects.UpdateFile(env.ctx, u1, file.Object.ID, &driveSvc.UpdateFileRequest{
		SizeBytes: &smaller,
	}); err != nil {
		t.Fatalf("UpdateFile shrink failed: %v", err)
	}
	q, _ = env.quotaRepo.GetByUserID(env.ctx, u1)
	if q.Used != 500 {
		t.Errorf("expected 500 bytes used after shrink, got %d", q.Used)
	}
}

func TestMoveFolderUnderOwnDescendantRejected(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	a := env.mustCreateFolder(t, u1, "a", nil)
	b := env.mustCreateFolder(t, u1, "b", &a.Object.ID)

	_, err := env.objects.UpdateFolder(env.ctx, u1, a.Object.ID, &driveSvc.UpdateFolderRequest{
		ParentID: driveSvc.OptionalParent{Present: true, Value: &b.Object.ID},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for cyclic move, got %v", err)
	}

	// Moving into itself is equally rejected.
	_, err = env.objects.UpdateFolder(env.ctx, u1, a.Object.ID, &driveSvc.UpdateFolderRequest{
		ParentID: driveSvc.OptionalParent{Present: true, Value: &a.Object.ID},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for self move, got %v", err)
	}
}

func TestMoveToRootUpdatesRootFlag(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	top := env.mustCreateFolder(t, u1, "top", nil)
	file := env.mustCreateFile(t, u1, "doc.txt", &top.Object.ID, 10)
	if file.State.Root {
		t.Fatalf("nested file must start non-root")
	}

	moved, err := env.objects.UpdateFile(env.ctx, u1, file.Object.ID, &driveSvc.UpdateFileRequest{
		ParentID: driveSvc.OptionalParent{Present: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("move to root failed: %v", err)
	}
	if moved.Object.ParentID != nil {
		t.Errorf("expected nil parent after move to root")
	}
	if st := env.stateOn(t, u1, file.Object.ID); !st.Root {
		t.Errorf("owner state must become root after moving to root level")
	}
}

func TestCreateShortcutDereferencesShortcutTarget(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	file := env.mustCreateFile(t, u1, "target.txt", nil, 10)

	first, err := env.objects.CreateShortcut(env.ctx, u1, &driveSvc.CreateShortcutRequest{
		Name:  "link",
		RefID: file.Object.ID,
	})
	if err != nil {
		t.Fatalf("CreateShortcut failed: %v", err)
	}

	// A shortcut to the shortcut must resolve to the file, never chain.
	second, err := env.objects.CreateShortcut(env.ctx, u1, &driveSvc.CreateShortcutRequest{
		Name:  "link-to-link",
		RefID: first.Object.ID,
	})
	if err != nil {
		t.Fatalf("CreateShortcut via shortcut failed: %v", err)
	}
	if second.Object.Shortcut.RefID != file.Object.ID {
		t.Errorf("shortcut must dereference to the file, got ref %s", second.Object.Shortcut.RefID)
	}
}

func TestAncestorsTrimmedToShareEntryPoint(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f1 := env.mustCreateFolder(t, u1, "F1", nil)
	f2 := env.mustCreateFolder(t, u1, "F2", &f1.Object.ID)
	file := env.mustCreateFile(t, u1, "doc.txt", &f2.Object.ID, 10)

	// Owner sees the full chain.
	ownerChain, err := env.objects.Ancestors(env.ctx, u1, file.Object.ID)
	if err != nil {
		t.Fatalf("Ancestors failed: %v", err)
	}
	if len(ownerChain) != 2 || ownerChain[0].ID != f1.Object.ID || ownerChain[1].ID != f2.Object.ID {
		t.Fatalf("owner chain wrong: %v", ownerChain)
	}

	// A user shared on F2 must not see F1 above their entry point.
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f2.Object.ID, u2, models.PermissionRead)); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	sharedChain, err := env.objects.Ancestors(env.ctx, u2, file.Object.ID)
	if err != nil {
		t.Fatalf("Ancestors for collaborator failed: %v", err)
	}
	if len(sharedChain) != 1 || sharedChain[0].ID != f2.Object.ID {
		t.Errorf("collaborator chain must stop at the shared folder, got %v", sharedChain)
	}
}

func TestListChildrenHidesInvisibleEntries(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	top := env.mustCreateFolder(t, u1, "top", nil)
	visible := env.mustCreateFile(t, u1, "visible.txt", &top.Object.ID, 10)
	hidden := env.mustCreateFile(t, u1, "hidden.txt", &top.Object.ID, 10)

	if _, err := env.sharing.Share(env.ctx, u1, shareReq(top.Object.ID, u2, models.PermissionRead)); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	// Revoke u2's access to one child only.
	if err := env.sharing.Unshare(env.ctx, u1, hidden.Object.ID, u2); err != nil {
		t.Fatalf("unshare child failed: %v", err)
	}

	children, err := env.objects.ListChildren(env.ctx, u2, top.Object.ID)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(children) != 1 || children[0].Object.ID != visible.Object.ID {
		t.Errorf("expected only the visible child, got %d entries", len(children))
	}
}

func TestSetFavoriteAndListFavorites(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	file := env.mustCreateFile(t, u1, "fav.txt", nil, 10)
	if _, err := env.objects.SetFavorite(env.ctx, u1, file.Object.ID, true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}

	favs, err := env.objects.ListFavorites(env.ctx, u1)
	if err != nil {
		t.Fatalf("ListFavorites failed: %v", err)
	}
	if len(favs) != 1 || favs[0].Object.ID != file.Object.ID {
		t.Fatalf("expected the favorited file, got %d entries", len(favs))
	}

	if _, err := env.objects.SetFavorite(env.ctx, u1, file.Object.ID, false); err != nil {
		t.Fatalf("unfavorite failed: %v", err)
	}
	favs, _ = env.objects.ListFavorites(env.ctx, u1)
	if len(favs) != 0 {
		t.Errorf("expected no favorites after clearing, got %d", len(favs))
	}
}
