// Package classify implements the Merge Classifier of spec.md §4.2: given
// head and target commits, decide which of the four merge shapes applies
// before any tree work happens.
package classify

import (
	"context"
	"fmt"

	"github.com/oakmere/mergekit/modules/objstore"
	"github.com/oakmere/mergekit/modules/oid"
	"github.com/oakmere/mergekit/pkg/ancestry"
)

// Kind is one of the four merge shapes spec.md §4.2 enumerates.
type Kind int

const (
	// Disjoint means head and target share no common ancestor reachable by
	// first-parent walk: an unrelated-histories merge.
	Disjoint Kind = iota
	// UpToDate means target is already an ancestor of (or equal to) head:
	// merging it is a no-op.
	UpToDate
	// FastForward means head is an ancestor of target: head's reference can
	// simply be advanced to target without a merge commit.
	FastForward
	// ThreeWay means neither is an ancestor of the other: a genuine
	// three-way tree merge against their common ancestor is required.
	ThreeWay
)

func (k Kind) String() string {
	switch k {
	case Disjoint:
		return "disjoint"
	case UpToDate:
		return "up-to-date"
	case FastForward:
		return "fast-forward"
	case ThreeWay:
		return "three-way"
	default:
		return fmt.Sprintf("classify.Kind(%d)", int(k))
	}
}

// Result is the outcome of Classify: the shape plus, for ThreeWay, the
// common ancestor the Tree Merger needs as its base.
type Result struct {
	Kind Kind
	// Base is the common ancestor OID when Kind == ThreeWay, and oid.Zero
	// otherwise (the other three kinds have no use for it).
	Base oid.OID
}

// Classify decides the merge shape for merging target into head, per the
// decision table in spec.md §4.2: target-equality to the ancestor is
// checked before head-equality, so merging a branch into itself reports
// UpToDate rather than FastForward.
func Classify(ctx context.Context, store objstore.Store, head, target oid.OID) (Result, error) {
	base, found, err := ancestry.CommonAncestor(ctx, store, head, target)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	if !found {
		return Result{Kind: Disjoint}, nil
	}
	switch {
	case base == target:
		return Result{Kind: UpToDate}, nil
	case base == head:
		return Result{Kind: FastForward}, nil
	default:
		return Result{Kind: ThreeWay, Base: base}, nil
	}
}
