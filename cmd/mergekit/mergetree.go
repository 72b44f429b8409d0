package main

import (
	"context"
	"fmt"

	"github.com/oakmere/mergekit/modules/objstore"
	"github.com/oakmere/mergekit/modules/oid"
	"github.com/oakmere/mergekit/modules/refstore"
	"github.com/oakmere/mergekit/pkg/ancestry"
	"github.com/oakmere/mergekit/pkg/treemerge"
)

// mergeTreeCmd performs a merge entirely in the object store: it never
// touches a reference or a working directory, the same dry-run contract
// the teacher's `zeta merge-tree` command (pkg/zeta/merge_tree.go) offers
// for inspecting what a merge would produce before committing to it.
type mergeTreeCmd struct {
	Base  string `name:"base" help:"Common ancestor revision; auto-detected from Left/Right when omitted."`
	Left  string `arg:"" help:"Left-side revision (branch name or OID)."`
	Right string `arg:"" help:"Right-side revision (branch name or OID)."`
}

func (c *mergeTreeCmd) Run(a *app) error {
	ctx := context.Background()
	store, err := objstore.NewDiskStore(a.Store)
	if err != nil {
		return fmt.Errorf("merge-tree: %w", err)
	}
	defer store.Close()

	refs, err := refstore.LoadDisk(refsPath(a), "main")
	if err != nil {
		return fmt.Errorf("merge-tree: %w", err)
	}

	left, err := mustResolve(ctx, refs, c.Left)
	if err != nil {
		return fmt.Errorf("merge-tree: %w", err)
	}
	right, err := mustResolve(ctx, refs, c.Right)
	if err != nil {
		return fmt.Errorf("merge-tree: %w", err)
	}

	base := oid.Zero
	if c.Base != "" {
		base, err = mustResolve(ctx, refs, c.Base)
		if err != nil {
			return fmt.Errorf("merge-tree: %w", err)
		}
	} else if found, commonErr := commonAncestorOrZero(ctx, store, left, right); commonErr == nil {
		base = found
	} else {
		return fmt.Errorf("merge-tree: %w", commonErr)
	}

	leftTree, err := commitTree(ctx, store, left)
	if err != nil {
		return fmt.Errorf("merge-tree: %w", err)
	}
	rightTree, err := commitTree(ctx, store, right)
	if err != nil {
		return fmt.Errorf("merge-tree: %w", err)
	}
	var baseTree oid.OID
	if !base.IsZero() {
		baseTree, err = commitTree(ctx, store, base)
		if err != nil {
			return fmt.Errorf("merge-tree: %w", err)
		}
	}

	mergedTree, conflicts, err := treemerge.MergeTrees(ctx, store, baseTree, leftTree, rightTree)
	if err != nil {
		return fmt.Errorf("merge-tree: %w", err)
	}

	fmt.Println(mergedTree)
	for _, conflict := range conflicts {
		fmt.Printf("conflict: %s\n", conflict)
	}
	return nil
}

func commitTree(ctx context.Context, store objstore.Store, id oid.OID) (oid.OID, error) {
	c, err := store.LoadCommit(ctx, id)
	if err != nil {
		return oid.Zero, fmt.Errorf("loading commit %s: %w", id, err)
	}
	return c.Tree, nil
}

func commonAncestorOrZero(ctx context.Context, store objstore.Store, left, right oid.OID) (oid.OID, error) {
	base, found, err := ancestry.CommonAncestor(ctx, store, left, right)
	if err != nil {
		return oid.Zero, err
	}
	if !found {
		return oid.Zero, nil
	}
	return base, nil
}
