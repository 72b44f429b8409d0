// Package oid implements the content hash identifying an immutable object
// in the store.
package oid

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"sort"

	"github.com/zeebo/blake3"
)

// Size is the digest size, in bytes, of an OID.
const Size = 32

// ErrInvalidHex is returned when a string cannot be parsed as an OID.
var ErrInvalidHex = errors.New("oid: invalid hex representation")

// OID is the content hash that identifies an immutable object in the store.
type OID [Size]byte

// Zero is the OID with all-zero bytes; it never names a real object.
var Zero OID

// IsZero reports whether o is the zero OID.
func (o OID) IsZero() bool {
	return o == Zero
}

// String renders o as lowercase hex.
func (o OID) String() string {
	return hex.EncodeToString(o[:])
}

// Short renders the first n hex characters of o, clamped to the full length.
func (o OID) Short(n int) string {
	s := o.String()
	if n >= len(s) {
		return s
	}
	return s[:n]
}

func (o OID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *OID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Parse decodes a hex string into an OID.
func Parse(s string) (OID, error) {
	if len(s) != Size*2 {
		return Zero, fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidHex, s, len(s), Size*2)
	}
	var o OID
	if _, err := hex.Decode(o[:], []byte(s)); err != nil {
		return Zero, fmt.Errorf("%w: %s", ErrInvalidHex, err)
	}
	return o, nil
}

// MustParse is like Parse but panics on error; intended for tests and
// compile-time constants.
func MustParse(s string) OID {
	o, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return o
}

// Hasher incrementally computes an OID using BLAKE3, the same algorithm the
// teacher's object store uses for its Hash type.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns a ready-to-use Hasher.
func NewHasher() Hasher {
	return Hasher{h: blake3.New()}
}

func (h Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum finalizes the hash and returns the resulting OID.
func (h Hasher) Sum() OID {
	var o OID
	copy(o[:], h.h.Sum(nil))
	return o
}

// Of hashes a single byte slice in one call.
func Of(b []byte) OID {
	h := NewHasher()
	_, _ = h.Write(b)
	return h.Sum()
}

// Slice attaches sort.Interface to []OID in byte order, giving a
// deterministic ordering of OIDs. Tree serialization does not use it: trees
// are ordered by entry name (objstore.Tree.Sorted).
type Slice []OID

func (s Slice) Len() int           { return len(s) }
func (s Slice) Less(i, j int) bool { return bytes.Compare(s[i][:], s[j][:]) < 0 }
func (s Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

var _ sort.Interface = Slice(nil)
