package treemerge

import "fmt"

// ConflictReason tags why a path could not be reconciled automatically, a
// closed set per spec.md §7's error taxonomy. It's a defined string type
// rather than an int enum so conflict reports (CLI output, logs) never need
// a lookup table to be readable.
type ConflictReason string

const (
	// ReasonAddedDifferently: the path didn't exist in the common ancestor
	// and both sides created it with different content.
	ReasonAddedDifferently ConflictReason = "added-differently"
	// ReasonDeleteVsModify: one side deleted the path while the other
	// modified it.
	ReasonDeleteVsModify ConflictReason = "delete-vs-modify"
	// ReasonTypeMismatch: the two sides turned the same path into
	// different kinds of object (one a blob, the other a tree).
	ReasonTypeMismatch ConflictReason = "type-mismatch"
	// ReasonNotText: both sides modified the same blob, but its content
	// (in at least one of base, left or right) isn't valid UTF-8 text, so
	// no line-level merge can be attempted.
	ReasonNotText ConflictReason = "not-text"
	// ReasonOverlap: both sides modified overlapping regions of the same
	// text file differently.
	ReasonOverlap ConflictReason = "overlap"
)

// Conflict is one path the Tree Merger could not reconcile on its own.
type Conflict struct {
	Path   string
	Reason ConflictReason
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s", c.Path, c.Reason)
}

// Error is returned by MergeTrees only for failures unrelated to merge
// conflicts (a missing object, a corrupt tree) — conflicts themselves are
// reported via the Conflicts return value, per the "collect every conflict
// in one pass" choice recorded in DESIGN.md, rather than aborting at the
// first one found.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("treemerge: %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
