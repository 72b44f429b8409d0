package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/oakmere/mergekit/modules/oid"
)

// MemStore is an in-memory Store, used by the merge engine's own tests and
// by any caller that doesn't need durability. It implements the same
// idempotent-by-OID contract as DiskStore without touching the filesystem.
type MemStore struct {
	mu      sync.RWMutex
	commits map[oid.OID]*Commit
	trees   map[oid.OID]*Tree
	blobs   map[oid.OID][]byte
}

// NewMemStore returns an empty, ready-to-use MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		commits: make(map[oid.OID]*Commit),
		trees:   make(map[oid.OID]*Tree),
		blobs:   make(map[oid.OID][]byte),
	}
}

func (s *MemStore) LoadCommit(_ context.Context, id oid.OID) (*Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commits[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c, nil
}

func (s *MemStore) LoadTree(_ context.Context, id oid.OID) (*Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trees[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

func (s *MemStore) OpenBlob(_ context.Context, id oid.OID) (io.ReadCloser, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(b)), int64(len(b)), nil
}

func (s *MemStore) SaveTree(_ context.Context, t *Tree) (oid.OID, error) {
	id := HashTree(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trees[id]; !ok {
		// Clone so later mutation of the caller's map can't corrupt the store.
		clone := NewTree()
		for name, rec := range t.Entries {
			r := *rec
			clone.Entries[name] = &r
		}
		s.trees[id] = clone
	}
	return id, nil
}

func (s *MemStore) SaveBlob(_ context.Context, r io.Reader, size int64) (oid.OID, error) {
	raw, err := io.ReadAll(io.LimitReader(r, size+1))
	if err != nil {
		return oid.Zero, err
	}
	if int64(len(raw)) != size {
		return oid.Zero, fmt.Errorf("objstore: blob short read: got %d bytes, want %d", len(raw), size)
	}
	id := oid.Of(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		s.blobs[id] = raw
	}
	return id, nil
}

func (s *MemStore) SaveCommit(_ context.Context, c *Commit) (oid.OID, error) {
	id := oid.Of(EncodeCommit(c))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.commits[id]; !ok {
		cc := *c
		s.commits[id] = &cc
	}
	return id, nil
}

var _ Store = (*MemStore)(nil)
