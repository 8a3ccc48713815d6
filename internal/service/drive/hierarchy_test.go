package drive

import (
	"errors"
	"testing"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
)

func TestDescendantIDsExcludesRootAndFiltersType(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	top := env.mustCreateFolder(t, u1, "top", nil)
	sub := env.mustCreateFolder(t, u1, "sub", &top.Object.ID)
	file := env.mustCreateFile(t, u1, "doc.txt", &sub.Object.ID, 10)

	ids, err := env.hierarchy.DescendantIDs(env.ctx, top.Object.ID, "")
	if err != nil {
		t.Fatalf("DescendantIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 descendants, got %d: %v", len(ids), ids)
	}
	for _, id := range ids {
		if id == top.Object.ID {
			t.Errorf("descendant set must not contain the root folder")
		}
	}

	foldersOnly, err := env.hierarchy.DescendantIDs(env.ctx, top.Object.ID, models.TypeFile)
	if err != nil {
		t.Fatalf("DescendantIDs with exclusion failed: %v", err)
	}
	if len(foldersOnly) != 1 || foldersOnly[0] != sub.Object.ID {
		t.Errorf("expected only %s, got %v", sub.Object.ID, foldersOnly)
	}
	_ = file
}

func TestAncestorChainOrderedRootToLeaf(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	f1 := env.mustCreateFolder(t, u1, "F1", nil)
	f2 := env.mustCreateFolder(t, u1, "F2", &f1.Object.ID)
	file := env.mustCreateFile(t, u1, "doc.txt", &f2.Object.ID, 10)

	chain, err := env.hierarchy.AncestorChain(env.ctx, file.Object.ID)
	if err != nil {
		t.Fatalf("AncestorChain failed: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(chain))
	}
	if chain[0].ID != f1.Object.ID || chain[1].ID != f2.Object.ID {
		t.Errorf("expected [F1 F2], got [%s %s]", chain[0].Name, chain[1].Name)
	}

	rootChain, err := env.hierarchy.AncestorChain(env.ctx, f1.Object.ID)
	if err != nil {
		t.Fatalf("AncestorChain on root failed: %v", err)
	}
	if len(rootChain) != 0 {
		t.Errorf("root-level object must have an empty chain, got %d entries", len(rootChain))
	}
}

func TestReachableStopsAtIndependentShareBoundary(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := "user-1", "user-2"

	outer := env.mustCreateFolder(t, u1, "outer", nil)
	inner := env.mustCreateFolder(t, u1, "inner", &outer.Object.ID)
	deep := env.mustCreateFile(t, u1, "deep.txt", &inner.Object.ID, 10)

	// Share inner first so it becomes an independent entry point for u2,
	// then share outer on top of it.
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(inner.Object.ID, u2, models.PermissionWrite)); err != nil {
		t.Fatalf("share inner failed: %v", err)
	}
	if _, err := env.sharing.Share(env.ctx, u1, shareReq(outer.Object.ID, u2, models.PermissionRead)); err != nil {
		t.Fatalf("share outer failed: %v", err)
	}

	reachable, err := env.hierarchy.ReachableNonRootDescendants(env.ctx, u2, outer.Object.ID)
	if err != nil {
		t.Fatalf("ReachableNonRootDescendants failed: %v", err)
	}
	for _, id := range reachable {
		if id == inner.Object.ID {
			t.Errorf("independently shared folder must not be reachable through the outer share")
		}
		if id == deep.Object.ID {
			t.Errorf("descendants behind an independent share boundary must not be reachable")
		}
	}

	// From inner itself, the file is reachable.
	fromInner, err := env.hierarchy.ReachableNonRootDescendants(env.ctx, u2, inner.Object.ID)
	if err != nil {
		t.Fatalf("ReachableNonRootDescendants(inner) failed: %v", err)
	}
	if len(fromInner) != 1 || fromInner[0] != deep.Object.ID {
		t.Errorf("expected [%s], got %v", deep.Object.ID, fromInner)
	}
}

func TestAncestorChainBrokenParentPointer(t *testing.T) {
	env := newTestEnv(t)
	u1 := "user-1"

	folder := env.mustCreateFolder(t, u1, "folder", nil)
	file := env.mustCreateFile(t, u1, "doc.txt", &folder.Object.ID, 10)

	// Corrupt the graph: point the file at a parent that does not exist.
	obj, err := env.objRepo.GetByID(env.ctx, file.Object.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	ghost := "00000000-0000-4000-8000-00000000dead"
	obj.ParentID = &ghost
	if err := env.objRepo.Update(env.ctx, obj); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	_, err = env.hierarchy.AncestorChain(env.ctx, file.Object.ID)
	if !errors.Is(err, domain.ErrBrokenHierarchy) {
		t.Errorf("expected ErrBrokenHierarchy, got %v", err)
	}
}
