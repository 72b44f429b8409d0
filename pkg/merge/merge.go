// Package merge implements the Merge Driver of spec.md §4.5: the top-level
// orchestration that classifies a merge, dispatches to the fast path or the
// Tree Merger, advances the current reference, and materializes the result.
//
// Grounded on the teacher's pkg/zeta/merge_tree.go (MergeTreeOptions,
// ErrUnrelatedHistories/ErrHasConflicts naming) and worktree_merge.go's
// classify-then-dispatch control flow, adapted to this engine's narrower
// commit/tree/blob model and its own Ancestry Oracle/Classifier/Tree
// Merger rather than zeta's odb-based merge machinery.
package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oakmere/mergekit/modules/objstore"
	"github.com/oakmere/mergekit/modules/oid"
	"github.com/oakmere/mergekit/modules/refstore"
	"github.com/oakmere/mergekit/modules/trace"
	"github.com/oakmere/mergekit/pkg/checkout"
	"github.com/oakmere/mergekit/pkg/classify"
	"github.com/oakmere/mergekit/pkg/treemerge"
)

// ErrUnrelatedHistories is returned when head and target share no common
// ancestor and Options.AllowUnrelatedHistories is false.
var ErrUnrelatedHistories = errors.New("merge: refusing to merge unrelated histories")

// ErrHasConflicts is returned when a three-way merge leaves unresolved
// conflicts: the merge commit is still created (per spec.md §4.5, content
// with conflict markers is valid tree content) but the reference is not
// advanced and the working directory is not touched.
var ErrHasConflicts = errors.New("merge: there are conflicting files")

// Options configures a single merge operation.
type Options struct {
	Author                  string
	Message                 string
	AllowUnrelatedHistories bool
	// WorkDir, when non-empty, is materialized to match the merge result
	// on success. Left empty, Run skips checkout entirely (e.g. for a
	// dry-run `merge-tree` style call).
	WorkDir string
}

// Result reports what Run did.
type Result struct {
	Kind        classify.Kind
	CommitID    oid.OID
	Conflicts   []treemerge.Conflict
	// CheckoutErr surfaces a failure to materialize the result after the
	// reference was already advanced. spec.md §9 calls this out as a
	// deliberate atomicity gap: the reference update and the working
	// directory materialize step are not one atomic transaction, so a
	// caller must check this field even when Run returns a nil error.
	CheckoutErr error
}

// Run merges target into head (the branch refs currently points HEAD's
// target reference, or whatever moving ref the caller names) per the
// classify -> dispatch -> advance -> materialize pipeline of spec.md §4.5.
func Run(ctx context.Context, store objstore.Store, refs *refstore.Store, head, target oid.OID, opts Options) (Result, error) {
	if head.IsZero() {
		// spec.md §4.5 step 2: merging into an empty repository (HEAD
		// unresolved) just sets HEAD to target_commit and reports it as a
		// fast-forward — there's no history to classify against yet.
		trace.Dbg("merge: initializing empty repository to %s", target)
		if err := refs.UpdateHead(ctx, target); err != nil {
			return Result{}, fmt.Errorf("merge: advancing reference: %w", err)
		}
		res := Result{Kind: classify.FastForward, CommitID: target}
		res.CheckoutErr = maybeCheckout(ctx, store, opts.WorkDir, target)
		return res, nil
	}

	cls, err := classify.Classify(ctx, store, head, target)
	if err != nil {
		return Result{}, fmt.Errorf("merge: %w", err)
	}

	switch cls.Kind {
	case classify.UpToDate:
		trace.Dbg("merge: target is already up to date with head")
		return Result{Kind: cls.Kind, CommitID: head}, nil

	case classify.FastForward:
		trace.Dbg("merge: fast-forwarding to %s", target)
		if err := refs.UpdateHead(ctx, target); err != nil {
			return Result{}, fmt.Errorf("merge: advancing reference: %w", err)
		}
		res := Result{Kind: cls.Kind, CommitID: target}
		res.CheckoutErr = maybeCheckout(ctx, store, opts.WorkDir, target)
		return res, nil

	case classify.Disjoint:
		if !opts.AllowUnrelatedHistories {
			return Result{Kind: cls.Kind}, ErrUnrelatedHistories
		}
		trace.Conflict("merge: merging unrelated histories (head=%s target=%s)", head, target)
		return runThreeWay(ctx, store, refs, head, target, oid.Zero, opts)

	case classify.ThreeWay:
		return runThreeWay(ctx, store, refs, head, target, cls.Base, opts)

	default:
		return Result{}, fmt.Errorf("merge: unknown classification %v", cls.Kind)
	}
}

func runThreeWay(ctx context.Context, store objstore.Store, refs *refstore.Store, head, target, base oid.OID, opts Options) (Result, error) {
	headCommit, err := store.LoadCommit(ctx, head)
	if err != nil {
		return Result{}, fmt.Errorf("merge: loading head commit: %w", err)
	}
	targetCommit, err := store.LoadCommit(ctx, target)
	if err != nil {
		return Result{}, fmt.Errorf("merge: loading target commit: %w", err)
	}
	var baseTree oid.OID
	if !base.IsZero() {
		baseCommit, err := store.LoadCommit(ctx, base)
		if err != nil {
			return Result{}, fmt.Errorf("merge: loading base commit: %w", err)
		}
		baseTree = baseCommit.Tree
	}

	mergedTree, conflicts, err := treemerge.MergeTrees(ctx, store, baseTree, headCommit.Tree, targetCommit.Tree)
	if err != nil {
		return Result{}, fmt.Errorf("merge: %w", err)
	}

	commit := &objstore.Commit{
		Tree:         mergedTree,
		Author:       opts.Author,
		Message:      opts.Message,
		Timestamp:    time.Now(),
		Parent:       head,
		SecondParent: target,
	}
	commitID, err := store.SaveCommit(ctx, commit)
	if err != nil {
		return Result{}, fmt.Errorf("merge: saving merge commit: %w", err)
	}

	result := Result{Kind: classify.ThreeWay, CommitID: commitID, Conflicts: conflicts}
	if len(conflicts) > 0 {
		trace.Conflict("merge: %d conflicting path(s) in merge commit %s", len(conflicts), commitID)
		// The reference is deliberately left untouched per spec.md §4.5:
		// a conflicted merge must be resolved and committed explicitly by
		// the caller, exactly as a failed `git merge` leaves HEAD alone.
		return result, ErrHasConflicts
	}

	if err := refs.UpdateHead(ctx, commitID); err != nil {
		return result, fmt.Errorf("merge: advancing reference: %w", err)
	}
	result.CheckoutErr = maybeCheckout(ctx, store, opts.WorkDir, commitID)
	return result, nil
}

func maybeCheckout(ctx context.Context, store objstore.Store, workDir string, commitID oid.OID) error {
	if workDir == "" {
		return nil
	}
	c, err := store.LoadCommit(ctx, commitID)
	if err != nil {
		return fmt.Errorf("merge: loading commit to materialize: %w", err)
	}
	if err := checkout.Materialize(ctx, store, workDir, c.Tree, checkout.Options{Quiet: true}); err != nil {
		return fmt.Errorf("merge: materialize: %w", err)
	}
	return nil
}
