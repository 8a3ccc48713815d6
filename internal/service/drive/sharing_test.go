package drive

import (
	"errors"
	"testing"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveSvc "drivehub/internal/domain/services/drive"
)

func TestShareFolderCascadesOverSubtree(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 20_000)

	granted, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionWrite))
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if granted.Permission != models.PermissionWrite || !granted.Root {
		t.Errorf("share target must get a root write state, got %+v", granted)
	}

	childState := env.stateOn(t, u2, x.Object.ID)
	if childState.Permission != models.PermissionWrite {
		t.Errorf("cascade must grant write on the child, got %s", childState.Permission)
	}
	if childState.Root {
		t.Errorf("cascaded child state must not be root")
	}
}

func TestShareNeverLowersExistingPermission(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 10)

	if _, err := env.sharing.Share(env.ctx, u1, shareReq(x.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share file failed: %v", err)
	}
	// Now share the folder at read: the file's existing write must survive.
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionRead)); err != nil {
		t.Fatalf("share folder failed: %v", err)
	}

	if st := env.stateOn(t, u2, x.Object.ID); st.Permission != models.PermissionWrite {
		t.Errorf("raise-only cascade lowered write to %s", st.Permission)
	}
}

func TestShareRequiresSufficientPermission(t *testing.T) {
	env := newTestEnv(t)
	u1, u2, u3 := "user-1", "user-2", "user-3"

	f := env.mustCreateFolder(t, u1, "F", nil)
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionRead)); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	// A reader cannot grant write.
	_, err := env.sharing.Share(env.ctx, u2, shareReq(f.Object.ID, u3, models.PermissionWrite))
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden for excessive grant, got %v", err)
	}

	// Granting ownership is never allowed.
	_, err = env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u3, models.PermissionOwner))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for owner grant, got %v", err)
	}

	// Sharing with yourself is rejected.
	_, err = env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u1, models.PermissionRead))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for self share, got %v", err)
	}
}

func TestShareShortcutSharesTarget(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	file := env.mustCreateFile(t, u1, "real.txt", nil, 10)
	link, err := env.objects.CreateShortcut(env.ctx, u1, &driveSvc.CreateShortcutRequest{
		Name:  "link",
		RefID: file.Object.ID,
	})
	if err != nil {
		t.Fatalf("CreateShortcut failed: %v", err)
	}

	granted, err := env.sharing.Share(env.ctx, u1, shareReq(link.Object.ID, u2, models.PermissionRead))
	if err != nil {
		t.Fatalf("share shortcut failed: %v", err)
	}
	if granted.FsObjectID != file.Object.ID {
		t.Errorf("sharing a shortcut must grant on its target, got state on %s", granted.FsObjectID)
	}
	if env.hasState(u2, link.Object.ID) {
		t.Errorf("target user must not get a state on the shortcut object itself")
	}
}

func TestChangePermissionCascadesReachableOnly(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 10)
	nested := env.mustCreateFolder(t, u1, "nested", &f.Object.ID)

	// nested is shared independently at write before the folder share.
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(nested.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share nested failed: %v", err)
	}
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share folder failed: %v", err)
	}

	if _, err := env.sharing.ChangePermission(env.ctx, u1, &driveSvc.ChangePermissionRequest{
		ObjectID:     f.Object.ID,
		TargetUserID: u2,
		Permission:   models.PermissionRead,
	}); err != nil {
		t.Fatalf("ChangePermission failed: %v", err)
	}

	if st := env.stateOn(t, u2, f.Object.ID); st.Permission != models.PermissionRead {
		t.Errorf("folder state must be lowered to read, got %s", st.Permission)
	}
	if st := env.stateOn(t, u2, x.Object.ID); st.Permission != models.PermissionRead {
		t.Errorf("reachable child must be lowered to read, got %s", st.Permission)
	}
	if st := env.stateOn(t, u2, nested.Object.ID); st.Permission != models.PermissionWrite {
		t.Errorf("independently shared subtree must keep write, got %s", st.Permission)
	}
}

func TestChangePermissionRequiresExistingShare(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	_, err := env.sharing.ChangePermission(env.ctx, u1, &driveSvc.ChangePermissionRequest{
		ObjectID:     f.Object.ID,
		TargetUserID: u2,
		Permission:   models.PermissionRead,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not-found for unshared target, got %v", err)
	}
}

func TestUnshareRemovesStatesAndTargetShortcuts(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	x := env.mustCreateFile(t, u1, "X", &f.Object.ID, 10)

	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	// The collaborator keeps a shortcut to the shared file at their root.
	link, err := env.objects.CreateShortcut(env.ctx, u2, &driveSvc.CreateShortcutRequest{
		Name:  "X (link)",
		RefID: x.Object.ID,
	})
	if err != nil {
		t.Fatalf("CreateShortcut failed: %v", err)
	}

	if err := env.sharing.Unshare(env.ctx, u1, f.Object.ID, u2); err != nil {
		t.Fatalf("unshare failed: %v", err)
	}

	if env.hasState(u2, f.Object.ID) || env.hasState(u2, x.Object.ID) {
		t.Errorf("unshare must remove the target's states over the subtree")
	}
	if _, err := env.objRepo.GetByID(env.ctx, link.Object.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("target's shortcut into the revoked set must be destroyed, got %v", err)
	}
	// The owner's view is untouched.
	if !env.hasState(u1, x.Object.ID) {
		t.Errorf("owner states must survive an unshare of another user")
	}
}

func TestUnshareRevokesTargetOwnedObjects(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	// The collaborator creates their own file inside the shared folder.
	x := env.mustCreateFile(t, u2, "X", &f.Object.ID, 5_000)

	if err := env.sharing.Unshare(env.ctx, u1, f.Object.ID, u2); err != nil {
		t.Fatalf("unshare failed: %v", err)
	}

	// Every state the target held goes, the owner state on X included.
	if env.hasState(u2, f.Object.ID) {
		t.Errorf("target's state on the folder must be removed")
	}
	if env.hasState(u2, x.Object.ID) {
		t.Errorf("target's owner state on their file must be removed")
	}

	// The file stays in the folder, now owned by the folder's owner, and its
	// bytes move ledgers with it.
	if _, err := env.objRepo.GetByID(env.ctx, x.Object.ID); err != nil {
		t.Fatalf("file must survive the unshare: %v", err)
	}
	if st := env.stateOn(t, u1, x.Object.ID); st.Permission != models.PermissionOwner {
		t.Errorf("ownership must pass to the folder owner, got %s", st.Permission)
	}
	targetQuota, err := env.quotaRepo.GetByUserID(env.ctx, u2)
	if err != nil {
		t.Fatalf("GetByUserID(u2) failed: %v", err)
	}
	if targetQuota.Used != 0 {
		t.Errorf("target must be released from the file's bytes, used = %d", targetQuota.Used)
	}
	ownerQuota, err := env.quotaRepo.GetByUserID(env.ctx, u1)
	if err != nil {
		t.Fatalf("GetByUserID(u1) failed: %v", err)
	}
	if ownerQuota.Used != 5_000 {
		t.Errorf("new owner must carry the file's bytes, used = %d", ownerQuota.Used)
	}
}

func TestUnshareRespectsIndependentShareBoundary(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	a := env.mustCreateFolder(t, u1, "A", nil)
	b := env.mustCreateFolder(t, u1, "B", &a.Object.ID)
	inner := env.mustCreateFile(t, u1, "inner.txt", &b.Object.ID, 10)

	if _, err := env.sharing.Share(env.ctx, u1, shareReq(b.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share B failed: %v", err)
	}
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(a.Object.ID, u2, models.PermissionRead)); err != nil {
		t.Fatalf("share A failed: %v", err)
	}

	if err := env.sharing.Unshare(env.ctx, u1, a.Object.ID, u2); err != nil {
		t.Fatalf("unshare A failed: %v", err)
	}

	if env.hasState(u2, a.Object.ID) {
		t.Errorf("A must be revoked")
	}
	if !env.hasState(u2, b.Object.ID) {
		t.Errorf("independently shared B must survive revoking A")
	}
	if !env.hasState(u2, inner.Object.ID) {
		t.Errorf("B's subtree must survive revoking A")
	}
}

func TestUnshareRequiresStrictlyHigherPermission(t *testing.T) {
	env := newTestEnv(t)
	u1, u2, u3 := "user-1", "user-2", "user-3"

	f := env.mustCreateFolder(t, u1, "F", nil)
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share u2 failed: %v", err)
	}
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u3, models.PermissionWrite)); err != nil {
		t.Fatalf("share u3 failed: %v", err)
	}

	// Equal permission is not enough.
	if err := env.sharing.Unshare(env.ctx, u2, f.Object.ID, u3); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden for equal-permission unshare, got %v", err)
	}
	// Nobody can unshare the owner.
	if err := env.sharing.Unshare(env.ctx, u2, f.Object.ID, u1); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden when targeting the owner, got %v", err)
	}
	// The owner can.
	if err := env.sharing.Unshare(env.ctx, u1, f.Object.ID, u3); err != nil {
		t.Errorf("owner unshare failed: %v", err)
	}
}

func TestListCollaborators(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	f := env.mustCreateFolder(t, u1, "F", nil)
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(f.Object.ID, u2, models.PermissionRead)); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	states, err := env.sharing.ListCollaborators(env.ctx, u2, f.Object.ID)
	if err != nil {
		t.Fatalf("ListCollaborators failed: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 collaborators, got %d", len(states))
	}
	// Sorted owner first.
	if states[0].Permission != models.PermissionOwner || states[0].UserID != u1 {
		t.Errorf("expected the owner first, got %+v", states[0])
	}

	// Invisible to outsiders.
	if _, err := env.sharing.ListCollaborators(env.ctx, "user-9", f.Object.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not-found for outsider, got %v", err)
	}
}
