package arena

import "unsafe"

// zerobase backs zero-sized allocations so they never touch the region.
var zerobase uintptr

// Arena is a fixed-capacity linear region with bump allocation and bulk reset.
// Individual allocations are never released; Clear invalidates all of them at
// once. Single-goroutine access only (game loop).
type Arena struct {
	buf    []byte
	offset uintptr
	count  int
}

// New creates an arena backed by capacity bytes. The region never grows.
func New(capacity int) *Arena {
	if capacity < 0 {
		capacity = 0
	}
	return &Arena{buf: make([]byte, capacity)}
}

// Allocate reserves size bytes aligned to align (a power of two, 0 means 1).
// It returns nil when size plus alignment padding does not fit in the
// remaining capacity; callers treat nil as "buffer exhausted".
func (a *Arena) Allocate(size, align uintptr) unsafe.Pointer {
	if align == 0 {
		align = 1
	}
	Assert(align&(align-1) == 0, "arena: alignment %d is not a power of two", align)

	if size == 0 {
		a.count++
		return unsafe.Pointer(&zerobase)
	}
	if len(a.buf) == 0 {
		return nil
	}

	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
	capacity := uintptr(len(a.buf))
	if align-1 > ^uintptr(0)-(base+a.offset) {
		return nil
	}
	start := alignUp(base+a.offset, align) - base
	// start+size may wrap, so compare against the space left instead.
	if start > capacity || size > capacity-start {
		return nil
	}
	a.offset = start + size
	a.count++
	return unsafe.Pointer(&a.buf[start])
}

// Make allocates a zeroed T inside the arena, or returns nil when exhausted.
// T must not contain Go pointers: the region is not scanned by the collector.
func Make[T any](a *Arena) *T {
	var zero T
	p := a.Allocate(unsafe.Sizeof(zero), unsafe.Alignof(zero))
	if p == nil {
		return nil
	}
	return (*T)(p)
}

// Clear resets the cursor to zero and zeroes the used part of the region.
// Every pointer previously returned by Allocate is invalid afterwards.
func (a *Arena) Clear() {
	clear(a.buf[:a.offset])
	a.offset = 0
	a.count = 0
}

// Free is not supported by a linear allocator. Calling it is a programming
// error: it panics unless built with the release tag, where it is ignored.
func (a *Arena) Free(p unsafe.Pointer) {
	Assert(false, "arena: Free(%p) is not supported, use Clear", p)
}

// Owns reports whether p points inside the allocated part of the region.
func (a *Arena) Owns(p unsafe.Pointer) bool {
	if p == nil || len(a.buf) == 0 {
		return false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
	addr := uintptr(p)
	return addr >= base && addr < base+a.offset
}

// Len returns the number of bytes consumed, padding included.
func (a *Arena) Len() int { return int(a.offset) }

// Cap returns the fixed capacity in bytes.
func (a *Arena) Cap() int { return len(a.buf) }

// Remaining returns the unused capacity in bytes, ignoring future padding.
func (a *Arena) Remaining() int { return len(a.buf) - int(a.offset) }

// Allocations returns how many allocations succeeded since the last Clear.
func (a *Arena) Allocations() int { return a.count }

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}
