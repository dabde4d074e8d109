package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	A uint8
	B uint64
	C int32
}

func TestAllocateAlignment(t *testing.T) {
	a := New(256)

	p1 := a.Allocate(1, 1)
	require.NotNil(t, p1)

	for _, align := range []uintptr{2, 4, 8, 16} {
		p := a.Allocate(3, align)
		require.NotNil(t, p, "align %d", align)
		assert.Zero(t, uintptr(p)%align, "align %d", align)
		assert.True(t, a.Owns(p))
	}
	assert.Equal(t, 5, a.Allocations())
}

func TestAllocateExhaustion(t *testing.T) {
	a := New(16)

	require.NotNil(t, a.Allocate(12, 1))
	assert.Nil(t, a.Allocate(8, 1))
	assert.Equal(t, 12, a.Len())
	assert.Equal(t, 4, a.Remaining())

	require.NotNil(t, a.Allocate(4, 1))
	assert.Nil(t, a.Allocate(1, 1))
	assert.Equal(t, 0, a.Remaining())
}

func TestAllocatePaddingCountsAgainstCapacity(t *testing.T) {
	a := New(16)
	require.NotNil(t, a.Allocate(1, 1))

	// 15 bytes remain, but an 8-aligned block first pays 7 bytes of padding.
	assert.Nil(t, a.Allocate(12, 8))
	assert.Equal(t, 1, a.Allocations())
	assert.NotNil(t, a.Allocate(12, 1))
}

func TestAllocateHugeSizeFails(t *testing.T) {
	a := New(64)
	first := a.Allocate(8, 1)
	require.NotNil(t, first)

	assert.Nil(t, a.Allocate(^uintptr(0), 1))
	assert.Nil(t, a.Allocate(^uintptr(0)-4, 8))
	assert.Equal(t, 8, a.Len(), "cursor must not move on failure")
	assert.Equal(t, 56, a.Remaining())

	next := a.Allocate(8, 1)
	require.NotNil(t, next)
	assert.Equal(t, uintptr(first)+8, uintptr(next))
}

func TestZeroCapacity(t *testing.T) {
	a := New(0)
	assert.Nil(t, a.Allocate(1, 1))
	assert.NotNil(t, a.Allocate(0, 1))
}

func TestMakeAndClear(t *testing.T) {
	a := New(128)

	s := Make[sample](a)
	require.NotNil(t, s)
	assert.Zero(t, uintptr(unsafe.Pointer(s))%unsafe.Alignof(*s))
	s.A, s.B, s.C = 1, 2, 3

	a.Clear()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, a.Allocations())

	again := Make[sample](a)
	require.NotNil(t, again)
	assert.Equal(t, sample{}, *again)
}

func TestMakeExhaustion(t *testing.T) {
	a := New(int(unsafe.Sizeof(sample{})))
	require.NotNil(t, Make[sample](a))
	assert.Nil(t, Make[sample](a))
}

func TestFreeIsMisuse(t *testing.T) {
	if !AssertionsEnabled() {
		t.Skip("assertions disabled in release builds")
	}
	a := New(8)
	p := a.Allocate(4, 1)
	assert.Panics(t, func() { a.Free(p) })
}

func TestBadAlignmentIsMisuse(t *testing.T) {
	if !AssertionsEnabled() {
		t.Skip("assertions disabled in release builds")
	}
	a := New(8)
	assert.Panics(t, func() { a.Allocate(4, 3) })
}
