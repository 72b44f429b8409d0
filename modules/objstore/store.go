package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/oakmere/mergekit/modules/oid"
)

// ErrNotFound is returned when an OID has no corresponding object in the
// store. Per spec.md §7 this is fatal to the caller: a missing object along
// a chain the merge engine expects to be complete indicates store corruption.
var ErrNotFound = errors.New("objstore: object not found")

// Store is the object store collaborator described in spec.md §6. All
// operations are safe for concurrent use; writes are idempotent by OID.
type Store interface {
	LoadCommit(ctx context.Context, id oid.OID) (*Commit, error)
	LoadTree(ctx context.Context, id oid.OID) (*Tree, error)
	// OpenBlob returns a reader over the blob's raw bytes and its size. The
	// caller must Close the reader to release underlying resources.
	OpenBlob(ctx context.Context, id oid.OID) (io.ReadCloser, int64, error)
	SaveTree(ctx context.Context, t *Tree) (oid.OID, error)
	SaveBlob(ctx context.Context, r io.Reader, size int64) (oid.OID, error)
	SaveCommit(ctx context.Context, c *Commit) (oid.OID, error)
}

const (
	tagCommit byte = 'C'
	tagTree   byte = 'T'
	tagBlob   byte = 'B'
)

var zstdEncoders = sync.Pool{
	New: func() any {
		e, _ := zstd.NewWriter(nil)
		return e
	},
}

var zstdDecoders = sync.Pool{
	New: func() any {
		d, _ := zstd.NewReader(nil)
		return d
	},
}

func compress(raw []byte) []byte {
	e := zstdEncoders.Get().(*zstd.Encoder)
	defer zstdEncoders.Put(e)
	return e.EncodeAll(raw, nil)
}

func decompress(compressed []byte) ([]byte, error) {
	d := zstdDecoders.Get().(*zstd.Decoder)
	defer zstdDecoders.Put(d)
	return d.DecodeAll(compressed, nil)
}

// DiskStore is an append-only, content-addressed object store rooted at a
// directory on disk. Objects are stored loose, one file per OID, using the
// same two-level fan-out directory layout as the teacher's backend.Database,
// with each payload zstd-compressed (github.com/klauspost/compress/zstd) and
// a small in-process ristretto cache (github.com/dgraph-io/ristretto/v2) in
// front of decode, mirroring backend.Database.metaLRU.
type DiskStore struct {
	root  string
	cache *ristretto.Cache[string, any]
}

// NewDiskStore creates (if needed) root and returns a Store backed by it.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "objects"), 0o755); err != nil {
		return nil, fmt.Errorf("objstore: create root: %w", err)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: 100_000,
		MaxCost:     100_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("objstore: create cache: %w", err)
	}
	return &DiskStore{root: root, cache: cache}, nil
}

// Close releases the store's cache resources.
func (s *DiskStore) Close() {
	s.cache.Close()
}

func (s *DiskStore) path(id oid.OID) string {
	hex := id.String()
	return filepath.Join(s.root, "objects", hex[:2], hex[2:])
}

func (s *DiskStore) writeObject(tag byte, raw []byte) (oid.OID, error) {
	id := oid.Of(raw)
	p := s.path(id)
	if _, err := os.Stat(p); err == nil {
		// Idempotent write: an object with this OID is byte-identical by
		// construction (invariant 5), so there's nothing to do.
		return id, nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return oid.Zero, err
	}
	payload := append([]byte{tag}, compress(raw)...)
	tmp := p + fmt.Sprintf(".tmp-%d", os.Getpid())
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		_ = os.Remove(tmp)
		return oid.Zero, err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return oid.Zero, err
	}
	return id, nil
}

func (s *DiskStore) readObject(wantTag byte, id oid.OID) ([]byte, error) {
	p := s.path(id)
	payload, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	if len(payload) == 0 || payload[0] != wantTag {
		return nil, fmt.Errorf("objstore: object %s has unexpected type tag", id)
	}
	return decompress(payload[1:])
}

func (s *DiskStore) LoadCommit(_ context.Context, id oid.OID) (*Commit, error) {
	if v, ok := s.cache.Get("c:" + id.String()); ok {
		return v.(*Commit), nil
	}
	raw, err := s.readObject(tagCommit, id)
	if err != nil {
		return nil, err
	}
	c, err := DecodeCommit(raw)
	if err != nil {
		return nil, err
	}
	s.cache.Set("c:"+id.String(), c, 1)
	return c, nil
}

func (s *DiskStore) LoadTree(_ context.Context, id oid.OID) (*Tree, error) {
	if v, ok := s.cache.Get("t:" + id.String()); ok {
		return v.(*Tree), nil
	}
	raw, err := s.readObject(tagTree, id)
	if err != nil {
		return nil, err
	}
	t, err := DecodeTree(raw)
	if err != nil {
		return nil, err
	}
	s.cache.Set("t:"+id.String(), t, 1)
	return t, nil
}

func (s *DiskStore) OpenBlob(_ context.Context, id oid.OID) (io.ReadCloser, int64, error) {
	raw, err := s.readObject(tagBlob, id)
	if err != nil {
		return nil, 0, err
	}
	return io.NopCloser(bytes.NewReader(raw)), int64(len(raw)), nil
}

func (s *DiskStore) SaveTree(_ context.Context, t *Tree) (oid.OID, error) {
	return s.writeObject(tagTree, EncodeTree(t))
}

func (s *DiskStore) SaveBlob(_ context.Context, r io.Reader, size int64) (oid.OID, error) {
	raw, err := io.ReadAll(io.LimitReader(r, size+1))
	if err != nil {
		return oid.Zero, err
	}
	if int64(len(raw)) != size {
		return oid.Zero, fmt.Errorf("objstore: blob short read: got %d bytes, want %d", len(raw), size)
	}
	return s.writeObject(tagBlob, raw)
}

func (s *DiskStore) SaveCommit(_ context.Context, c *Commit) (oid.OID, error) {
	return s.writeObject(tagCommit, EncodeCommit(c))
}

var _ Store = (*DiskStore)(nil)
