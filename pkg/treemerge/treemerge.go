// Package treemerge implements the Tree Merger of spec.md §4.3: recursive
// three-way reconciliation of directory trees, the largest single piece of
// the merge engine's core.
//
// Grounded on the shape of modules/zeta/object.Tree/TreeEntry for the data
// model, and on pkg/zeta/odb's worktree/merge_tree.go for the overall
// recurse-and-delegate-to-the-blob-merger structure; the path-by-path
// decision table itself (added-differently / delete-vs-modify /
// type-mismatch / converged / recurse) is spec.md's own, since the teacher
// resolves those cases through zeta's patch/diff machinery rather than a
// single explicit table.
package treemerge

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/oakmere/mergekit/modules/objstore"
	"github.com/oakmere/mergekit/modules/oid"
	"github.com/oakmere/mergekit/pkg/blobmerge"
)

// maxDepth guards against runaway recursion on a corrupted store with a
// tree that references itself; the teacher's object package carries the
// same style of guard as object.maxTreeDepth.
const maxDepth = 1024

// MergeTrees reconciles the trees named by base, left and right, returning
// the OID of the merged tree (already saved to store) and every conflict
// found. A non-nil Conflicts slice does not mean merged is unusable: a text
// file with overlapping edits (ReasonOverlap) stays in the merged tree with
// inline conflict markers, so a caller can inspect, edit and re-stage it.
// Paths with any other conflict reason are left out of the merged tree.
func MergeTrees(ctx context.Context, store objstore.Store, base, left, right oid.OID) (oid.OID, []Conflict, error) {
	baseTree, err := loadTreeOrEmpty(ctx, store, base)
	if err != nil {
		return oid.Zero, nil, &Error{Path: "/", Err: err}
	}
	leftTree, err := loadTreeOrEmpty(ctx, store, left)
	if err != nil {
		return oid.Zero, nil, &Error{Path: "/", Err: err}
	}
	rightTree, err := loadTreeOrEmpty(ctx, store, right)
	if err != nil {
		return oid.Zero, nil, &Error{Path: "/", Err: err}
	}

	var conflicts []Conflict
	merged, err := mergeTree(ctx, store, "", 0, baseTree, leftTree, rightTree, &conflicts)
	if err != nil {
		return oid.Zero, nil, err
	}
	id, err := store.SaveTree(ctx, merged)
	if err != nil {
		return oid.Zero, nil, &Error{Path: "/", Err: err}
	}
	return id, conflicts, nil
}

func loadTreeOrEmpty(ctx context.Context, store objstore.Store, id oid.OID) (*objstore.Tree, error) {
	if id.IsZero() {
		return objstore.NewTree(), nil
	}
	return store.LoadTree(ctx, id)
}

// mergeTree merges one directory level, recursing into subtrees as needed.
func mergeTree(ctx context.Context, store objstore.Store, dir string, depth int, base, left, right *objstore.Tree, conflicts *[]Conflict) (*objstore.Tree, error) {
	if depth > maxDepth {
		return nil, &Error{Path: dir, Err: fmt.Errorf("tree nesting exceeds %d levels", maxDepth)}
	}
	select {
	case <-ctx.Done():
		return nil, &Error{Path: dir, Err: ctx.Err()}
	default:
	}

	names := unionNames(base, left, right)
	out := objstore.NewTree()

	for _, name := range names {
		b := base.Entries[name]
		l := left.Entries[name]
		r := right.Entries[name]
		fullPath := path.Join(dir, name)

		rec, conflict, err := mergeEntry(ctx, store, fullPath, depth, b, l, r, conflicts)
		if err != nil {
			return nil, err
		}
		if conflict {
			continue
		}
		if rec != nil {
			out.Entries[name] = rec
		}
	}
	return out, nil
}

// mergeEntry resolves a single name present in at least one of base, left,
// right. A nil *objstore.TreeRecord argument means absent. Conflicts are
// appended to *conflicts here. It returns the resolved record (nil means
// "absent in the merge result") and whether the entry is dropped as
// conflicted; an overlap conflict is recorded but returns false, so its
// marker-bearing blob stays in the result tree.
func mergeEntry(ctx context.Context, store objstore.Store, fullPath string, depth int, b, l, r *objstore.TreeRecord, conflicts *[]Conflict) (*objstore.TreeRecord, bool, error) {
	switch {
	case b == nil && l == nil && r == nil:
		return nil, false, nil // unreachable: name came from the union of non-nil entries

	case b == nil && l == nil: // added on right only
		return r, false, nil
	case b == nil && r == nil: // added on left only
		return l, false, nil
	case l == nil && r == nil: // present only in base: deleted identically on both sides
		return nil, false, nil

	case b == nil: // added on both sides
		if l.Equal(r) {
			return l, false, nil
		}
		if l.Kind == r.Kind && l.Kind == objstore.KindTree {
			return mergeSubtree(ctx, store, fullPath, depth, nil, l, r, conflicts)
		}
		// Added independently with different content, or as different
		// kinds (blob vs tree): spec.md §4.3's decision table only defines
		// added-differently for this row, regardless of kind.
		recordConflict(conflicts, fullPath, ReasonAddedDifferently)
		return nil, true, nil

	case l == nil: // deleted on left
		if r.Equal(b) {
			return nil, false, nil // unchanged on right, delete wins
		}
		recordConflict(conflicts, fullPath, ReasonDeleteVsModify)
		return nil, true, nil

	case r == nil: // deleted on right
		if l.Equal(b) {
			return nil, false, nil // unchanged on left, delete wins
		}
		recordConflict(conflicts, fullPath, ReasonDeleteVsModify)
		return nil, true, nil

	default: // present everywhere
		if l.Equal(r) {
			return l, false, nil
		}
		if l.Equal(b) {
			return r, false, nil // only right changed it
		}
		if r.Equal(b) {
			return l, false, nil // only left changed it
		}
		// Both sides changed it, differently from each other and from base.
		if l.Kind != r.Kind {
			recordConflict(conflicts, fullPath, ReasonTypeMismatch)
			return nil, true, nil
		}
		if l.Kind == objstore.KindTree {
			return mergeSubtree(ctx, store, fullPath, depth, b, l, r, conflicts)
		}
		return mergeBlobEntry(ctx, store, fullPath, b, l, r, conflicts)
	}
}

// mergeSubtree recurses into a nested directory. base may be nil when both
// sides independently created a directory of the same name: the recursion
// then runs against an empty base, so files the two sides added without
// colliding still merge cleanly.
func mergeSubtree(ctx context.Context, store objstore.Store, fullPath string, depth int, base, left, right *objstore.TreeRecord, conflicts *[]Conflict) (*objstore.TreeRecord, bool, error) {
	baseSub, err := loadSubtree(ctx, store, base)
	if err != nil {
		return nil, false, &Error{Path: fullPath, Err: err}
	}
	leftSub, err := store.LoadTree(ctx, left.Target)
	if err != nil {
		return nil, false, &Error{Path: fullPath, Err: err}
	}
	rightSub, err := store.LoadTree(ctx, right.Target)
	if err != nil {
		return nil, false, &Error{Path: fullPath, Err: err}
	}

	before := len(*conflicts)
	merged, err := mergeTree(ctx, store, fullPath, depth+1, baseSub, leftSub, rightSub, conflicts)
	if err != nil {
		return nil, false, err
	}
	id, err := store.SaveTree(ctx, merged)
	if err != nil {
		return nil, false, &Error{Path: fullPath, Err: err}
	}
	// A subtree with conflicts inside it is still materialized (callers
	// need to see the partial result to resolve them); it isn't itself
	// counted as an additional conflicted path at this level.
	_ = before
	return &objstore.TreeRecord{Kind: objstore.KindTree, Target: id, Name: pathBase(fullPath)}, false, nil
}

func loadSubtree(ctx context.Context, store objstore.Store, rec *objstore.TreeRecord) (*objstore.Tree, error) {
	if rec == nil || rec.Kind != objstore.KindTree {
		return objstore.NewTree(), nil
	}
	return store.LoadTree(ctx, rec.Target)
}

// mergeBlobEntry delegates a concurrently-modified file to the Blob Text
// Merger. base may be nil's zero OID stand-in (empty content) when the
// entry didn't exist in the ancestor tree at this path under this kind —
// practically unreachable since the "present everywhere" branch guarantees
// b != nil, kept only for mergeSubtree's nil-base symmetry.
func mergeBlobEntry(ctx context.Context, store objstore.Store, fullPath string, b, l, r *objstore.TreeRecord, conflicts *[]Conflict) (*objstore.TreeRecord, bool, error) {
	baseBlob := oid.Zero
	if b != nil {
		baseBlob = b.Target
	}
	res, err := blobmerge.MergeBlobs(ctx, store, baseBlob, l.Target, r.Target)
	if err != nil {
		recordConflict(conflicts, fullPath, ReasonNotText)
		return nil, true, nil
	}
	mergedID, err := blobmerge.SaveMerged(ctx, store, res)
	if err != nil {
		return nil, false, &Error{Path: fullPath, Err: err}
	}
	if res.Conflicted {
		recordConflict(conflicts, fullPath, ReasonOverlap)
		// The merged content (with conflict markers) is still written to
		// the result tree per spec.md §4.4, so the entry isn't dropped
		// the way a tree-level conflict is; only the reported-conflict
		// bookkeeping differs, so we return conflict=false here and let
		// the caller keep this record.
		return &objstore.TreeRecord{Kind: objstore.KindBlob, Target: mergedID, Name: pathBase(fullPath)}, false, nil
	}
	return &objstore.TreeRecord{Kind: objstore.KindBlob, Target: mergedID, Name: pathBase(fullPath)}, false, nil
}

func recordConflict(conflicts *[]Conflict, fullPath string, reason ConflictReason) {
	*conflicts = append(*conflicts, Conflict{Path: fullPath, Reason: reason})
}

func pathBase(p string) string {
	return path.Base(p)
}

func unionNames(trees ...*objstore.Tree) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, t := range trees {
		for name := range t.Entries {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
