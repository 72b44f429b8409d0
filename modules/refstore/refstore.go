// Package refstore implements the reference collaborator of spec.md §6: a
// named, mutable pointer to an OID, plus the distinguished HEAD reference
// which may be symbolic (pointing at a branch) or detached (pointing
// directly at a commit).
//
// Grounded on the teacher's modules/plumbing/reference.go naming rules
// (refs/heads/<branch>) and its ReferenceType{Hash,Symbolic} split, simplified
// to the in-process store the merge engine's Driver needs. LoadDisk and
// SaveDisk (disk.go) persist a Store to a single file, written via a temp
// file plus atomic rename the way the teacher's zeta/refs package does.
package refstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/oakmere/mergekit/modules/oid"
)

// HeadsPrefix is prepended to a branch's short name to form its full
// reference name, matching the teacher's refs/heads/ convention.
const HeadsPrefix = "heads/"

// Name is a reference name such as "heads/main", without the HEAD alias.
type Name string

// Branch returns the full reference name for a branch short name.
func Branch(short string) Name {
	return Name(HeadsPrefix + short)
}

// ErrNotFound is returned when a reference does not exist.
var ErrNotFound = errors.New("refstore: reference does not exist")

// Store is the in-process reference collaborator. All methods are safe for
// concurrent use and each exposed mutation is atomic per spec.md §5: a
// reader never observes a partially-updated reference.
type Store struct {
	mu sync.RWMutex
	// refs holds every named reference except HEAD itself.
	refs map[Name]oid.OID
	// headTarget is the branch HEAD points at when HEAD is symbolic; empty
	// when HEAD is detached.
	headTarget Name
	// headDetached is HEAD's OID when headTarget is empty. Zero means the
	// repository is empty (no commits yet).
	headDetached oid.OID
}

// New returns a Store whose HEAD is symbolic, pointing at the given branch,
// which does not yet need to exist (an empty repository's HEAD commonly
// points at a branch with no commits).
func New(initialBranch string) *Store {
	return &Store{
		refs:       make(map[Name]oid.OID),
		headTarget: Branch(initialBranch),
	}
}

// Resolve looks up ref, which may be the literal string "HEAD", a reference
// name ("heads/<branch>"), or a literal OID hex string, per spec.md §6.
// The bool result is false (with a nil error) when the reference exists but
// has no target yet, e.g. HEAD on a branch with no commits.
func (s *Store) Resolve(_ context.Context, ref string) (oid.OID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case ref == "HEAD":
		return s.resolveHeadLocked()
	case len(ref) == oid.Size*2:
		if id, err := oid.Parse(ref); err == nil {
			return id, true, nil
		}
	}
	id, ok := s.refs[Name(ref)]
	if !ok {
		return oid.Zero, false, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return id, !id.IsZero(), nil
}

func (s *Store) resolveHeadLocked() (oid.OID, bool, error) {
	if s.headTarget == "" {
		return s.headDetached, !s.headDetached.IsZero(), nil
	}
	id, ok := s.refs[s.headTarget]
	return id, ok && !id.IsZero(), nil
}

// HeadRef returns the reference name HEAD currently targets, and whether
// HEAD is symbolic. When detached, name is empty.
func (s *Store) HeadRef() (name Name, symbolic bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.headTarget == "" {
		return "", false
	}
	return s.headTarget, true
}

// UpdateRef atomically points name at id.
func (s *Store) UpdateRef(_ context.Context, name Name, id oid.OID) error {
	if name == "" {
		return errors.New("refstore: empty reference name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[name] = id
	return nil
}

// UpdateHead atomically advances whatever HEAD currently points at: the
// branch it's symbolic to, or the detached OID itself. This is "the current
// reference" spec.md §4.5 refers to throughout the Merge Driver.
func (s *Store) UpdateHead(_ context.Context, id oid.OID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.headTarget == "" {
		s.headDetached = id
		return nil
	}
	s.refs[s.headTarget] = id
	return nil
}

// Detach points HEAD directly at id, discarding any symbolic target.
func (s *Store) Detach(id oid.OID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headTarget = ""
	s.headDetached = id
}

// CurrentBranchShort returns the short branch name HEAD is symbolic to, or
// "" when detached.
func (s *Store) CurrentBranchShort() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimPrefix(string(s.headTarget), HeadsPrefix)
}
