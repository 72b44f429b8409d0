package objstore

import (
	"testing"
	"time"

	"github.com/oakmere/mergekit/modules/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTreeRoundTrips(t *testing.T) {
	tr := NewTree()
	tr.Entries["a.txt"] = &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("a")), Name: "a.txt"}
	tr.Entries["dir"] = &TreeRecord{Kind: KindTree, Target: oid.Of([]byte("dir")), Name: "dir"}

	encoded := EncodeTree(tr)
	decoded, err := DecodeTree(encoded)
	require.NoError(t, err)
	assert.True(t, tr.Equal(decoded))
}

func TestEncodeTreeIsDeterministicRegardlessOfInsertionOrder(t *testing.T) {
	a := NewTree()
	a.Entries["z.txt"] = &TreeRecord{Kind: KindBlob, Name: "z.txt"}
	a.Entries["a.txt"] = &TreeRecord{Kind: KindBlob, Name: "a.txt"}

	b := NewTree()
	b.Entries["a.txt"] = &TreeRecord{Kind: KindBlob, Name: "a.txt"}
	b.Entries["z.txt"] = &TreeRecord{Kind: KindBlob, Name: "z.txt"}

	assert.Equal(t, EncodeTree(a), EncodeTree(b))
	assert.Equal(t, HashTree(a), HashTree(b))
}

func TestHashTreeChangesWithContent(t *testing.T) {
	a := NewTree()
	a.Entries["a.txt"] = &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("1")), Name: "a.txt"}
	b := NewTree()
	b.Entries["a.txt"] = &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("2")), Name: "a.txt"}
	assert.NotEqual(t, HashTree(a), HashTree(b))
}

func TestDecodeTreeRejectsMalformedLine(t *testing.T) {
	_, err := DecodeTree([]byte("not a valid line\n"))
	assert.Error(t, err)
}

func TestEncodeDecodeCommitRoundTrips(t *testing.T) {
	c := &Commit{
		Tree:      oid.Of([]byte("tree")),
		Author:    "ada@example.com",
		Message:   "initial commit",
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}
	decoded, err := DecodeCommit(EncodeCommit(c))
	require.NoError(t, err)
	assert.Equal(t, c.Tree, decoded.Tree)
	assert.Equal(t, c.Author, decoded.Author)
	assert.Equal(t, c.Message, decoded.Message)
	assert.True(t, c.Timestamp.Equal(decoded.Timestamp))
	assert.False(t, decoded.IsMerge())
}

func TestEncodeDecodeMergeCommitKeepsBothParents(t *testing.T) {
	c := &Commit{
		Tree:         oid.Of([]byte("tree")),
		Parent:       oid.Of([]byte("p1")),
		SecondParent: oid.Of([]byte("p2")),
		Author:       "ada@example.com",
		Message:      "merge branch",
		Timestamp:    time.Unix(1700000000, 0).UTC(),
	}
	decoded, err := DecodeCommit(EncodeCommit(c))
	require.NoError(t, err)
	assert.Equal(t, c.Parent, decoded.Parent)
	assert.Equal(t, c.SecondParent, decoded.SecondParent)
	assert.True(t, decoded.IsMerge())
}

func TestEncodeCommitMultilineMessageSurvives(t *testing.T) {
	c := &Commit{
		Tree:      oid.Of([]byte("tree")),
		Author:    "ada@example.com",
		Message:   "subject line\n\nbody paragraph with detail",
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}
	decoded, err := DecodeCommit(EncodeCommit(c))
	require.NoError(t, err)
	assert.Equal(t, c.Message, decoded.Message)
}
