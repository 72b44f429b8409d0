package main

import (
	"context"
	"fmt"

	"github.com/oakmere/mergekit/modules/objstore"
	"github.com/oakmere/mergekit/modules/refstore"
	"github.com/oakmere/mergekit/pkg/merge"
)

type mergeCmd struct {
	Target                  string `arg:"" help:"Revision (branch name or OID) to merge into HEAD."`
	Author                  string `name:"author" help:"Author recorded on the merge commit; defaults to the configured user."`
	Message                 string `name:"message" short:"m" default:"Merge" help:"Merge commit message."`
	AllowUnrelatedHistories bool   `name:"allow-unrelated-histories" help:"Permit merging branches with no common ancestor."`
	WorkDir                 string `name:"work-dir" help:"Working directory to materialize the result into."`
}

func (c *mergeCmd) Run(a *app) error {
	ctx := context.Background()
	store, err := objstore.NewDiskStore(a.Store)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	defer store.Close()

	cfg := a.config()
	author := c.Author
	if author == "" {
		author = cfg.User.Name
	}
	if author == "" {
		author = "mergekit"
	}
	allowUnrelated := c.AllowUnrelatedHistories || cfg.Merge.AllowUnrelatedHistories

	refs, err := refstore.LoadDisk(refsPath(a), "main")
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	// An unresolved HEAD (oid.Zero) is valid here: it means an empty
	// repository, and merge.Run initializes it to target per spec.md §4.5.
	head, _, err := refs.Resolve(ctx, "HEAD")
	if err != nil {
		return fmt.Errorf("merge: resolving HEAD: %w", err)
	}
	target, ok, err := refs.Resolve(ctx, c.Target)
	if err != nil {
		return fmt.Errorf("merge: resolving %q: %w", c.Target, err)
	}
	if !ok {
		return fmt.Errorf("merge: %q does not resolve to a commit", c.Target)
	}

	res, err := merge.Run(ctx, store, refs, head, target, merge.Options{
		Author:                  author,
		Message:                 c.Message,
		AllowUnrelatedHistories: allowUnrelated,
		WorkDir:                 c.WorkDir,
	})
	if saveErr := refstore.SaveDisk(refsPath(a), refs); saveErr != nil && err == nil {
		err = fmt.Errorf("merge: saving references: %w", saveErr)
	}

	fmt.Printf("%s %s\n", res.Kind, res.CommitID)
	for _, c := range res.Conflicts {
		fmt.Printf("conflict: %s\n", c)
	}
	if res.CheckoutErr != nil {
		fmt.Printf("checkout failed after reference update: %v\n", res.CheckoutErr)
	}
	return err
}
