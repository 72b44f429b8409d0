package oid

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfIsDeterministic(t *testing.T) {
	a := Of([]byte("hello world"))
	b := Of([]byte("hello world"))
	assert.Equal(t, a, b)
}

func TestOfDistinguishesContent(t *testing.T) {
	a := Of([]byte("hello"))
	b := Of([]byte("world"))
	assert.NotEqual(t, a, b)
}

func TestParseRoundTripsString(t *testing.T) {
	want := Of([]byte("round trip"))
	got, err := Parse(want.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseRejectsWrongLength(t *testing.T) {
	_, err := Parse("deadbeef")
	assert.ErrorIs(t, err, ErrInvalidHex)
}

func TestParseRejectsNonHex(t *testing.T) {
	bad := make([]byte, Size*2)
	for i := range bad {
		bad[i] = 'z'
	}
	_, err := Parse(string(bad))
	assert.ErrorIs(t, err, ErrInvalidHex)
}

func TestMustParsePanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		MustParse("not-an-oid")
	})
}

func TestIsZero(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, Of([]byte("x")).IsZero())
}

func TestShortClampsToFullLength(t *testing.T) {
	id := Of([]byte("clamp me"))
	assert.Equal(t, id.String(), id.Short(1000))
	assert.Equal(t, id.String()[:8], id.Short(8))
}

func TestHasherMatchesOf(t *testing.T) {
	h := NewHasher()
	_, err := h.Write([]byte("streamed"))
	require.NoError(t, err)
	assert.Equal(t, Of([]byte("streamed")), h.Sum())
}

func TestHasherAcceptsMultipleWrites(t *testing.T) {
	h := NewHasher()
	_, _ = h.Write([]byte("hello "))
	_, _ = h.Write([]byte("world"))
	assert.Equal(t, Of([]byte("hello world")), h.Sum())
}

func TestMarshalUnmarshalText(t *testing.T) {
	id := Of([]byte("marshal me"))
	text, err := id.MarshalText()
	require.NoError(t, err)

	var got OID
	require.NoError(t, got.UnmarshalText(text))
	assert.Equal(t, id, got)
}

func TestSliceSortsInByteOrder(t *testing.T) {
	s := Slice{
		Of([]byte("c")),
		Of([]byte("a")),
		Of([]byte("b")),
	}
	sort.Sort(s)
	assert.True(t, sort.IsSorted(s))
}
