package drive

import (
	"context"
	"fmt"
	"sort"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveRepo "drivehub/internal/domain/repositories/drive"
)

// Hierarchy implements the read-side graph algorithms every cascading
// operation is built on: subtree enumeration, ancestor walks, and the
// per-user reachability that keeps cascades out of independently shared
// subtrees. All walks are depth-bounded and dedupe visited ids so a
// corrupted store surfaces domain.ErrBrokenHierarchy instead of looping.
type Hierarchy struct {
	objects  driveRepo.FsObjectRepository
	states   driveRepo.StateRepository
	maxDepth int
}

// NewHierarchy creates a hierarchy engine over the graph and state stores
func NewHierarchy(objects driveRepo.FsObjectRepository, states driveRepo.StateRepository, maxDepth int) *Hierarchy {
	return &Hierarchy{
		objects:  objects,
		states:   states,
		maxDepth: maxDepth,
	}
}

// DescendantEdges returns the flat edges of the folder's transitive children,
// the folder itself excluded.
func (h *Hierarchy) DescendantEdges(ctx context.Context, folderID string) ([]models.Edge, error) {
	edges, err := h.objects.ListSubtreeEdges(ctx, folderID, h.maxDepth)
	if err != nil {
		return nil, err
	}

	descendants := make([]models.Edge, 0, len(edges))
	for _, edge := range edges {
		if edge.ID == folderID {
			continue
		}
		descendants = append(descendants, edge)
	}
	return descendants, nil
}

// DescendantIDs returns the ids of the folder's transitive children, the
// folder itself excluded. When excludeType is non-empty, objects of that
// type are dropped from the result (their children are still visited - only
// folders have children, and folders are never excluded by callers).
// The result is sorted so it is deterministic regardless of store order.
func (h *Hierarchy) DescendantIDs(ctx context.Context, folderID string, excludeType models.ObjectType) ([]string, error) {
	edges, err := h.DescendantEdges(ctx, folderID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		if excludeType != "" && edge.Type == excludeType {
			continue
		}
		ids = append(ids, edge.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// AncestorChain returns the folder chain above an object, ordered
// root-to-leaf. A root-level object yields an empty chain. A parent pointer
// that cannot be resolved within the depth bound surfaces
// domain.ErrBrokenHierarchy.
func (h *Hierarchy) AncestorChain(ctx context.Context, objectID string) ([]models.FsObject, error) {
	obj, err := h.objects.GetByID(ctx, objectID)
	if err != nil {
		return nil, err
	}

	var chain []models.FsObject
	seen := map[string]bool{obj.ID: true}

	for depth := 0; obj.ParentID != nil; depth++ {
		if depth >= h.maxDepth {
			return nil, fmt.Errorf("ancestor walk from %s exceeds depth %d: %w", objectID, h.maxDepth, domain.ErrBrokenHierarchy)
		}

		parent, err := h.objects.GetByID(ctx, *obj.ParentID)
		if err != nil {
			// A dangling parent pointer is graph corruption, not a missing
			// resource: a concurrent delete mid-walk must not read as 404.
			return nil, fmt.Errorf("parent %s of %s unresolvable: %w", *obj.ParentID, obj.ID, domain.ErrBrokenHierarchy)
		}
		if seen[parent.ID] {
			return nil, fmt.Errorf("cycle at %s: %w", parent.ID, domain.ErrBrokenHierarchy)
		}
		seen[parent.ID] = true

		chain = append(chain, *parent)
		obj = parent
	}

	// Collected leaf-to-root; reverse into root-to-leaf order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// ReachableNonRootDescendants returns exactly the descendants of folderID
// whose root ancestor in the user's view is folderID. The walk goes outward
// from the folder through parent edges, but only through descendants where
// the user holds a non-root state: an independently shared subtree nested
// inside is root in the user's view, so the walk never enters it. This is
// the boundary every partial cascade (permission change, unshare, non-owner
// trash) respects.
//
// The result is a sorted, deduplicated id set, deterministic regardless of
// traversal order.
func (h *Hierarchy) ReachableNonRootDescendants(ctx context.Context, userID, folderID string) ([]string, error) {
	edges, err := h.DescendantEdges(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, len(edges))
	children := make(map[string][]string, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.ID)
		if edge.ParentID != nil {
			children[*edge.ParentID] = append(children[*edge.ParentID], edge.ID)
		}
	}

	nonRootFalse := false
	states, err := h.states.GetMany(ctx, driveRepo.StateFilter{
		UserID:      userID,
		FsObjectIDs: ids,
		Root:        &nonRootFalse,
	})
	if err != nil {
		return nil, fmt.Errorf("load non-root states: %w", err)
	}

	nonRoot := make(map[string]bool, len(states))
	for _, st := range states {
		nonRoot[st.FsObjectID] = true
	}

	reachable := []string{}
	visited := map[string]bool{folderID: true}
	frontier := []string{folderID}
	for len(frontier) > 0 {
		var next []string
		for _, id := range frontier {
			for _, childID := range children[id] {
				if visited[childID] || !nonRoot[childID] {
					continue
				}
				visited[childID] = true
				reachable = append(reachable, childID)
				next = append(next, childID)
			}
		}
		frontier = next
	}

	sort.Strings(reachable)
	return reachable, nil
}
