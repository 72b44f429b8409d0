// Package ancestry implements the Ancestry Oracle of spec.md §4.1: a single
// operation, CommonAncestor, that walks first-parent history to decide
// whether one commit is reachable from another.
//
// This is a deliberate simplification, not an oversight: spec.md §9 calls
// out that a full-DAG merge-base search (breadth-first over all parents,
// as a real merge implementation needs once octopus and criss-cross merges
// exist) is out of scope. The teacher's own Repository.PickAncestor
// (pkg/zeta/revision.go) walks exactly one parent per step for the same
// reason — ancestor resolution for `~N`/`^N` revisions never needs more.
package ancestry

import (
	"context"
	"fmt"

	"github.com/oakmere/mergekit/modules/objstore"
	"github.com/oakmere/mergekit/modules/oid"
)

// maxWalk bounds the first-parent walk so a corrupted store with a parent
// cycle fails loudly instead of looping forever.
const maxWalk = 1 << 20

// CommonAncestor walks a's and b's first-parent chains and reports the
// first commit shared between them.
//
// Per spec.md §4.1 this oracle walks b's chain, checking each commit for
// membership in a's ancestor set, and returns the first hit — the
// equivalent of intersecting the two chains. This covers both the
// one-is-an-ancestor-of-the-other case (the walk hits b itself at once, or
// reaches a further up b's chain) and the diverged-branch case, where a and b share a
// common base further up both chains. It does not attempt to find the
// deepest common ancestor of an arbitrary pair of diverged histories with
// more than one shared parent line; Classify (pkg/classify) only ever
// needs this narrower answer.
//
// The return value is the ancestor commit's OID and true when a and b
// share a commit on their first-parent chains (including either being
// equal to or an ancestor of the other). When no shared commit is found,
// the returned bool is false and the OID is oid.Zero: the histories are
// disjoint as far as first-parent reachability can tell.
func CommonAncestor(ctx context.Context, store objstore.Store, a, b oid.OID) (oid.OID, bool, error) {
	if a == b {
		return a, true, nil
	}
	aAncestors, err := firstParentChain(ctx, store, a)
	if err != nil {
		return oid.Zero, false, err
	}
	return walkUntilMember(ctx, store, b, aAncestors)
}

// walkUntilMember walks start's first-parent chain, returning the first
// commit found in set.
func walkUntilMember(ctx context.Context, store objstore.Store, start oid.OID, set map[oid.OID]struct{}) (oid.OID, bool, error) {
	visited := make(map[oid.OID]struct{})
	cur := start
	for i := 0; ; i++ {
		if i > maxWalk {
			return oid.Zero, false, fmt.Errorf("ancestry: first-parent walk from %s exceeded %d steps, store may contain a cycle", start, maxWalk)
		}
		select {
		case <-ctx.Done():
			return oid.Zero, false, ctx.Err()
		default:
		}
		if _, seen := visited[cur]; seen {
			return oid.Zero, false, fmt.Errorf("ancestry: first-parent cycle detected at %s", cur)
		}
		visited[cur] = struct{}{}
		if _, ok := set[cur]; ok {
			return cur, true, nil
		}
		c, err := store.LoadCommit(ctx, cur)
		if err != nil {
			return oid.Zero, false, fmt.Errorf("ancestry: loading %s: %w", cur, err)
		}
		if !c.HasParent() {
			return oid.Zero, false, nil
		}
		cur = c.Parent
	}
}

// firstParentChain returns the set of OIDs visited walking from start along
// first parents, start included.
func firstParentChain(ctx context.Context, store objstore.Store, start oid.OID) (map[oid.OID]struct{}, error) {
	visited := make(map[oid.OID]struct{})
	cur := start
	for i := 0; ; i++ {
		if i > maxWalk {
			return nil, fmt.Errorf("ancestry: first-parent walk from %s exceeded %d steps, store may contain a cycle", start, maxWalk)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if _, seen := visited[cur]; seen {
			return nil, fmt.Errorf("ancestry: first-parent cycle detected at %s", cur)
		}
		visited[cur] = struct{}{}
		c, err := store.LoadCommit(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("ancestry: loading %s: %w", cur, err)
		}
		if !c.HasParent() {
			return visited, nil
		}
		cur = c.Parent
	}
}

// IsAncestor reports whether maybeAncestor is reachable from descendant via
// first parents (including the equal case).
func IsAncestor(ctx context.Context, store objstore.Store, maybeAncestor, descendant oid.OID) (bool, error) {
	if maybeAncestor == descendant {
		return true, nil
	}
	chain, err := firstParentChain(ctx, store, descendant)
	if err != nil {
		return false, err
	}
	_, ok := chain[maybeAncestor]
	return ok, nil
}
