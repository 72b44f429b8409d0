package refstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmere/mergekit/modules/oid"
)

func TestResolveEmptyBranchHasNoTarget(t *testing.T) {
	s := New("main")
	ctx := context.Background()

	id, ok, err := s.Resolve(ctx, "HEAD")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, id.IsZero())
}

func TestUpdateHeadAdvancesSymbolicTarget(t *testing.T) {
	s := New("main")
	ctx := context.Background()
	c1 := oid.Of([]byte("commit one"))

	require.NoError(t, s.UpdateHead(ctx, c1))

	headID, ok, err := s.Resolve(ctx, "HEAD")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, c1, headID)

	branchID, ok, err := s.Resolve(ctx, string(Branch("main")))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, c1, branchID)
}

func TestDetachedHeadDoesNotAdvanceBranch(t *testing.T) {
	s := New("main")
	ctx := context.Background()
	onBranch := oid.Of([]byte("on branch"))
	require.NoError(t, s.UpdateRef(ctx, Branch("main"), onBranch))

	detached := oid.Of([]byte("detached target"))
	s.Detach(detached)
	require.NoError(t, s.UpdateHead(ctx, oid.Of([]byte("new detached"))))

	branchID, ok, err := s.Resolve(ctx, string(Branch("main")))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, onBranch, branchID, "detached HEAD updates must not touch the branch it was detached from")

	name, symbolic := s.HeadRef()
	assert.False(t, symbolic)
	assert.Empty(t, name)
}

func TestResolveLiteralOID(t *testing.T) {
	s := New("main")
	ctx := context.Background()
	id := oid.Of([]byte("some object"))

	got, ok, err := s.Resolve(ctx, id.String())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestResolveUnknownRefIsNotFound(t *testing.T) {
	s := New("main")
	_, _, err := s.Resolve(context.Background(), "heads/does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCurrentBranchShort(t *testing.T) {
	s := New("release")
	assert.Equal(t, "release", s.CurrentBranchShort())
	s.Detach(oid.Of([]byte("x")))
	assert.Equal(t, "", s.CurrentBranchShort())
}
