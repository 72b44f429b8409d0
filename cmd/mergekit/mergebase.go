package main

import (
	"context"
	"fmt"

	"github.com/oakmere/mergekit/modules/objstore"
	"github.com/oakmere/mergekit/modules/refstore"
	"github.com/oakmere/mergekit/pkg/ancestry"
)

type mergeBaseCmd struct {
	Left  string `arg:"" help:"First revision (branch name or OID)."`
	Right string `arg:"" help:"Second revision (branch name or OID)."`
}

func (c *mergeBaseCmd) Run(a *app) error {
	ctx := context.Background()
	store, err := objstore.NewDiskStore(a.Store)
	if err != nil {
		return fmt.Errorf("merge-base: %w", err)
	}
	defer store.Close()

	refs, err := refstore.LoadDisk(refsPath(a), "main")
	if err != nil {
		return fmt.Errorf("merge-base: %w", err)
	}

	left, err := mustResolve(ctx, refs, c.Left)
	if err != nil {
		return fmt.Errorf("merge-base: %w", err)
	}
	right, err := mustResolve(ctx, refs, c.Right)
	if err != nil {
		return fmt.Errorf("merge-base: %w", err)
	}

	base, found, err := ancestry.CommonAncestor(ctx, store, left, right)
	if err != nil {
		return fmt.Errorf("merge-base: %w", err)
	}
	if !found {
		return fmt.Errorf("merge-base: %s and %s share no common ancestor", c.Left, c.Right)
	}
	fmt.Println(base)
	return nil
}
