package merge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmere/mergekit/modules/objstore"
	"github.com/oakmere/mergekit/modules/oid"
	"github.com/oakmere/mergekit/modules/refstore"
	"github.com/oakmere/mergekit/pkg/classify"
)

func blob(t *testing.T, store objstore.Store, content string) oid.OID {
	t.Helper()
	id, err := store.SaveBlob(context.Background(), strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)
	return id
}

func treeWith(t *testing.T, store objstore.Store, files map[string]string) oid.OID {
	t.Helper()
	tree := objstore.NewTree()
	for name, content := range files {
		tree.Entries[name] = &objstore.TreeRecord{Kind: objstore.KindBlob, Target: blob(t, store, content), Name: name}
	}
	id, err := store.SaveTree(context.Background(), tree)
	require.NoError(t, err)
	return id
}

func commitWith(t *testing.T, store objstore.Store, treeID, parent oid.OID) oid.OID {
	t.Helper()
	id, err := store.SaveCommit(context.Background(), &objstore.Commit{
		Tree: treeID, Author: "tester", Message: "m", Timestamp: time.Unix(0, 0), Parent: parent,
	})
	require.NoError(t, err)
	return id
}

func TestRunFastForward(t *testing.T) {
	store := objstore.NewMemStore()
	refs := refstore.New("main")
	ctx := context.Background()

	base := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "1\n"}), oid.Zero)
	ahead := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "2\n"}), base)
	require.NoError(t, refs.UpdateHead(ctx, base))

	res, err := Run(ctx, store, refs, base, ahead, Options{})
	require.NoError(t, err)
	assert.Equal(t, classify.FastForward, res.Kind)
	assert.Equal(t, ahead, res.CommitID)

	head, ok, err := refs.Resolve(ctx, "HEAD")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ahead, head)
}

func TestRunUpToDate(t *testing.T) {
	store := objstore.NewMemStore()
	refs := refstore.New("main")
	ctx := context.Background()

	base := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "1\n"}), oid.Zero)
	ahead := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "2\n"}), base)

	res, err := Run(ctx, store, refs, ahead, base, Options{})
	require.NoError(t, err)
	assert.Equal(t, classify.UpToDate, res.Kind)
}

func TestRunThreeWayClean(t *testing.T) {
	store := objstore.NewMemStore()
	refs := refstore.New("main")
	ctx := context.Background()

	base := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "1\n", "b.txt": "1\n"}), oid.Zero)
	head := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "head\n", "b.txt": "1\n"}), base)
	target := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "1\n", "b.txt": "target\n"}), base)
	require.NoError(t, refs.UpdateHead(ctx, head))

	res, err := Run(ctx, store, refs, head, target, Options{Author: "tester", Message: "merge"})
	require.NoError(t, err)
	assert.Equal(t, classify.ThreeWay, res.Kind)
	assert.Empty(t, res.Conflicts)

	headID, _, err := refs.Resolve(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, res.CommitID, headID)

	mergedCommit, err := store.LoadCommit(ctx, res.CommitID)
	require.NoError(t, err)
	mergedTree, err := store.LoadTree(ctx, mergedCommit.Tree)
	require.NoError(t, err)
	assert.Len(t, mergedTree.Entries, 2)
}

func TestRunThreeWayConflictDoesNotAdvanceRef(t *testing.T) {
	store := objstore.NewMemStore()
	refs := refstore.New("main")
	ctx := context.Background()

	base := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "1\n"}), oid.Zero)
	head := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "head\n"}), base)
	target := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "target\n"}), base)
	require.NoError(t, refs.UpdateHead(ctx, head))

	res, err := Run(ctx, store, refs, head, target, Options{Author: "tester", Message: "merge"})
	require.True(t, errors.Is(err, ErrHasConflicts))
	require.NotEmpty(t, res.Conflicts)

	headID, _, err := refs.Resolve(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, head, headID, "reference must not advance when conflicts remain")
}

func TestRunIntoEmptyRepositoryInitializesHead(t *testing.T) {
	store := objstore.NewMemStore()
	refs := refstore.New("main")
	ctx := context.Background()

	target := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "1\n"}), oid.Zero)

	res, err := Run(ctx, store, refs, oid.Zero, target, Options{})
	require.NoError(t, err)
	assert.Equal(t, classify.FastForward, res.Kind)
	assert.Equal(t, target, res.CommitID)

	head, ok, err := refs.Resolve(ctx, "HEAD")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, target, head)
}

func TestRunDisjointRefusesByDefault(t *testing.T) {
	store := objstore.NewMemStore()
	refs := refstore.New("main")
	ctx := context.Background()

	head := commitWith(t, store, treeWith(t, store, map[string]string{"a.txt": "1\n"}), oid.Zero)
	target := commitWith(t, store, treeWith(t, store, map[string]string{"b.txt": "1\n"}), oid.Zero)

	_, err := Run(ctx, store, refs, head, target, Options{})
	assert.ErrorIs(t, err, ErrUnrelatedHistories)
}
