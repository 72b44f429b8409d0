// Package objstore implements the object store collaborator described in
// spec.md §6: commits, trees and blobs, content-addressed by modules/oid.
//
// It is grounded on github.com/antgroup/hugescm's modules/zeta/object (the
// Commit/Tree/TreeEntry shapes) and modules/zeta/backend (the read/write
// storage split and its ristretto cache), simplified to the narrow contract
// the merge engine actually needs: load/save trees and blobs, load commits,
// open a blob for streaming reads.
package objstore

import (
	"fmt"
	"sort"
	"time"

	"github.com/oakmere/mergekit/modules/oid"
)

// Commit is a snapshot plus metadata plus zero, one or two parents. A merge
// commit has two parents; every other commit has zero or one.
type Commit struct {
	Tree         oid.OID   `json:"tree"`
	Author       string    `json:"author"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Parent       oid.OID   `json:"parent,omitempty"`
	SecondParent oid.OID   `json:"second_parent,omitempty"`
}

// HasParent reports whether the commit has a first parent.
func (c *Commit) HasParent() bool { return !c.Parent.IsZero() }

// IsMerge reports whether the commit has two parents.
func (c *Commit) IsMerge() bool { return !c.SecondParent.IsZero() }

// Parents returns the commit's parent OIDs in order, zero, one or two of them.
func (c *Commit) Parents() []oid.OID {
	if !c.HasParent() {
		return nil
	}
	if !c.IsMerge() {
		return []oid.OID{c.Parent}
	}
	return []oid.OID{c.Parent, c.SecondParent}
}

// EntryKind is the two-valued tag of a TreeRecord: a sum type with payload
// OID, per spec.md §9 ("polymorphism over tree entries").
type EntryKind uint8

const (
	// KindBlob marks a TreeRecord whose target is a file's content.
	KindBlob EntryKind = iota
	// KindTree marks a TreeRecord whose target is a nested directory snapshot.
	KindTree
)

func (k EntryKind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindTree:
		return "tree"
	default:
		return fmt.Sprintf("invalid-kind(%d)", uint8(k))
	}
}

// TreeRecord is one entry of a Tree: a directory entry naming either a blob
// or a nested tree. Name duplicates the owning Tree's map key so records
// stay self-describing once serialized, per spec.md §3.
type TreeRecord struct {
	Kind   EntryKind `json:"kind"`
	Target oid.OID   `json:"target"`
	Name   string    `json:"name"`
}

// Equal reports whether two TreeRecords are equal: both Kind and Target
// must match. A type change (blob<->tree) at the same name is never equal.
func (r *TreeRecord) Equal(other *TreeRecord) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Kind == other.Kind && r.Target == other.Target
}

// Tree is a mapping from entry name to TreeRecord, representing a directory
// snapshot. Entry order is immaterial to equality; Sorted() imposes the
// canonical lexicographic order used when hashing and serializing.
type Tree struct {
	Entries map[string]*TreeRecord
}

// NewTree returns an empty, ready-to-use Tree.
func NewTree() *Tree {
	return &Tree{Entries: make(map[string]*TreeRecord)}
}

// Sorted returns the tree's records ordered lexicographically by name, the
// deterministic order spec.md §3 requires so identical contents hash
// identically.
func (t *Tree) Sorted() []*TreeRecord {
	names := make([]string, 0, len(t.Entries))
	for name := range t.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*TreeRecord, 0, len(names))
	for _, name := range names {
		out = append(out, t.Entries[name])
	}
	return out
}

// Equal reports whether two trees have identical entry sets (structural
// equality, used by the Tree Merger's idempotence shortcuts).
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.Entries) != len(other.Entries) {
		return false
	}
	for name, rec := range t.Entries {
		o, ok := other.Entries[name]
		if !ok || !rec.Equal(o) {
			return false
		}
	}
	return true
}
