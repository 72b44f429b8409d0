package objstore

import (
	"testing"
	"time"

	"github.com/oakmere/mergekit/modules/oid"
	"github.com/stretchr/testify/assert"
)

func TestCommitParentsReportsZeroOneOrTwo(t *testing.T) {
	var c Commit
	assert.Nil(t, c.Parents())
	assert.False(t, c.HasParent())
	assert.False(t, c.IsMerge())

	c.Parent = oid.Of([]byte("p1"))
	assert.Equal(t, []oid.OID{c.Parent}, c.Parents())
	assert.True(t, c.HasParent())
	assert.False(t, c.IsMerge())

	c.SecondParent = oid.Of([]byte("p2"))
	assert.Equal(t, []oid.OID{c.Parent, c.SecondParent}, c.Parents())
	assert.True(t, c.IsMerge())
}

func TestTreeRecordEqual(t *testing.T) {
	a := &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("a")), Name: "f.txt"}
	b := &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("a")), Name: "f.txt"}
	c := &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("c")), Name: "f.txt"}
	d := &TreeRecord{Kind: KindTree, Target: oid.Of([]byte("a")), Name: "f.txt"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(nil))

	var nilRec *TreeRecord
	assert.True(t, nilRec.Equal(nil))
}

func TestTreeSortedOrdersByName(t *testing.T) {
	tr := NewTree()
	tr.Entries["zebra.txt"] = &TreeRecord{Kind: KindBlob, Name: "zebra.txt"}
	tr.Entries["apple.txt"] = &TreeRecord{Kind: KindBlob, Name: "apple.txt"}
	tr.Entries["mango.txt"] = &TreeRecord{Kind: KindBlob, Name: "mango.txt"}

	sorted := tr.Sorted()
	names := make([]string, len(sorted))
	for i, rec := range sorted {
		names[i] = rec.Name
	}
	assert.Equal(t, []string{"apple.txt", "mango.txt", "zebra.txt"}, names)
}

func TestTreeEqual(t *testing.T) {
	a := NewTree()
	a.Entries["f.txt"] = &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("1")), Name: "f.txt"}
	b := NewTree()
	b.Entries["f.txt"] = &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("1")), Name: "f.txt"}
	assert.True(t, a.Equal(b))

	b.Entries["g.txt"] = &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("2")), Name: "g.txt"}
	assert.False(t, a.Equal(b))

	assert.False(t, a.Equal(nil))
}

func TestEntryKindString(t *testing.T) {
	assert.Equal(t, "blob", KindBlob.String())
	assert.Equal(t, "tree", KindTree.String())
	assert.Contains(t, EntryKind(99).String(), "invalid-kind")
}

func TestCommitTimestampSurvivesAssignment(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := Commit{Timestamp: ts}
	assert.True(t, c.Timestamp.Equal(ts))
}
