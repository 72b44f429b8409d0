package objstore

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/oakmere/mergekit/modules/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreSaveLoadBlobRoundTrips(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	id, err := s.SaveBlob(ctx, bytes.NewReader([]byte("hello disk")), 10)
	require.NoError(t, err)

	r, size, err := s.OpenBlob(ctx, id)
	require.NoError(t, err)
	defer r.Close()
	assert.EqualValues(t, 10, size)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello disk", string(got))
}

func TestDiskStoreSaveBlobIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	id1, err := s.SaveBlob(ctx, bytes.NewReader([]byte("same content")), 12)
	require.NoError(t, err)
	id2, err := s.SaveBlob(ctx, bytes.NewReader([]byte("same content")), 12)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestDiskStoreLoadMissingBlobReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, _, err = s.OpenBlob(ctx, oid.Of([]byte("nope")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiskStoreSaveLoadTreeRoundTrips(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	tr := NewTree()
	tr.Entries["a.txt"] = &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("a")), Name: "a.txt"}

	id, err := s.SaveTree(ctx, tr)
	require.NoError(t, err)

	loaded, err := s.LoadTree(ctx, id)
	require.NoError(t, err)
	assert.True(t, tr.Equal(loaded))
}

func TestDiskStoreLoadTreeServesFromCacheOnSecondCall(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	tr := NewTree()
	tr.Entries["a.txt"] = &TreeRecord{Kind: KindBlob, Target: oid.Of([]byte("a")), Name: "a.txt"}
	id, err := s.SaveTree(ctx, tr)
	require.NoError(t, err)

	first, err := s.LoadTree(ctx, id)
	require.NoError(t, err)
	second, err := s.LoadTree(ctx, id)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestDiskStoreSaveLoadCommitRoundTrips(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	c := &Commit{
		Tree:      oid.Of([]byte("tree")),
		Author:    "ada@example.com",
		Message:   "initial",
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}
	id, err := s.SaveCommit(ctx, c)
	require.NoError(t, err)

	loaded, err := s.LoadCommit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, c.Tree, loaded.Tree)
	assert.Equal(t, c.Message, loaded.Message)
}

func TestDiskStoreReopenReadsPreviouslyWrittenObjects(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewDiskStore(dir)
	require.NoError(t, err)
	id, err := s1.SaveBlob(ctx, bytes.NewReader([]byte("persisted")), 9)
	require.NoError(t, err)
	s1.Close()

	s2, err := NewDiskStore(dir)
	require.NoError(t, err)
	defer s2.Close()

	r, _, err := s2.OpenBlob(ctx, id)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}

func TestDiskStoreRejectsWrongTypeTag(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	id, err := s.SaveBlob(ctx, bytes.NewReader([]byte("blob not a tree")), 15)
	require.NoError(t, err)

	_, err = s.LoadTree(ctx, id)
	assert.Error(t, err)
}

var _ Store = (*DiskStore)(nil)
