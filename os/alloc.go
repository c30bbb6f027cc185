package os

import (
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/ribbanya/dolsdk2001/debug"
)

const (
	alignment  = 32 // all cells and allocations are 32 byte aligned
	headerSize = 32 // charged against every allocation
	minObjSize = 64 // smallest cell worth splitting off
)

func roundUp[T constraints.Integer](v T) T   { return (v + alignment - 1) &^ (alignment - 1) }
func roundDown[T constraints.Integer](v T) T { return v &^ (alignment - 1) }

// A cell describes a contiguous run of the arena, including the header
// charged against it. Free cells are kept sorted by offset so neighbours
// can be joined again when freed.
type cell struct {
	prev, next *cell
	offset     int // of the cell's start in the arena
	size       int // including the header

	// Only maintained under debug builds.
	hd        *heapDesc
	requested int
}

type heapDesc struct {
	size      int // total bytes owned by the heap, -1 if the slot is unused
	free      *cell
	allocated *cell

	// Only maintained under debug builds.
	paddingBytes int
	headerBytes  int
	payloadBytes int
}

// HeapHandle identifies a heap created by CreateHeap. Valid handles are
// non-negative.
type HeapHandle int

// Alloc carves heaps out of a fixed arena. It mirrors the console's low
// level allocator rather than Go's: no growth, first fit, explicit heap
// handles and no error returns. Failed allocations return nil.
//
// Alloc is not safe for concurrent use. The console's libraries bracket
// allocator calls with the interrupt critical section; callers that share
// an allocator between goroutines must do their own locking.
type Alloc struct {
	arena []byte
	heaps []heapDesc
	curr  HeapHandle
}

// InitAlloc returns an allocator managing the given arena, with slots for
// up to maxHeaps concurrently existing heaps. No heap is current until
// SetCurrentHeap selects one.
func InitAlloc(arena []byte, maxHeaps int) *Alloc {
	debug.Assert(maxHeaps > 0, "allocator without heap slots")
	a := &Alloc{arena: arena, heaps: make([]heapDesc, maxHeaps), curr: -1}
	for i := range a.heaps {
		a.heaps[i].size = -1
	}
	return a
}

// CreateHeap creates a heap spanning arena[start:end) and returns its
// handle, or -1 if no heap slot is left or the range is too small. The
// bounds are aligned inwards.
func (a *Alloc) CreateHeap(start, end int) HeapHandle {
	start, end = roundUp(start), roundDown(end)
	if start < 0 || end > len(a.arena) || end-start < minObjSize {
		return -1
	}
	for i := range a.heaps {
		hd := &a.heaps[i]
		if hd.size < 0 {
			*hd = heapDesc{
				size: end - start,
				free: &cell{offset: start, size: end - start},
			}
			return HeapHandle(i)
		}
	}
	return -1
}

// DestroyHeap releases the heap's slot for reuse by CreateHeap. The memory
// it covered is not returned to any other heap.
func (a *Alloc) DestroyHeap(heap HeapHandle) {
	if !a.valid(heap) {
		return
	}
	if debug.Enabled {
		debug.Assert(a.heaps[heap].allocated == nil, "destroyed heap leaks allocations")
	}
	a.heaps[heap].size = -1
}

// AddToHeap donates arena[start:end) to the heap. The range must not
// overlap any range the heap already owns.
func (a *Alloc) AddToHeap(heap HeapHandle, start, end int) {
	start, end = roundUp(start), roundDown(end)
	if !a.valid(heap) || start < 0 || end > len(a.arena) || end-start < minObjSize {
		return
	}
	hd := &a.heaps[heap]
	hd.size += end - start
	hd.free = dlInsert(hd.free, &cell{offset: start, size: end - start})
}

// SetCurrentHeap selects the heap used by Alloc and Free and returns the
// previous selection.
func (a *Alloc) SetCurrentHeap(heap HeapHandle) (prev HeapHandle) {
	prev = a.curr
	a.curr = heap
	return prev
}

// Alloc allocates from the current heap.
func (a *Alloc) Alloc(size int) []byte { return a.AllocFromHeap(a.curr, size) }

// Free returns an allocation to the current heap.
func (a *Alloc) Free(p []byte) { a.FreeToHeap(a.curr, p) }

// AllocFromHeap returns a 32 byte aligned allocation of the given size, or
// nil if no free cell of the heap fits it. First fit; every allocation is
// charged an additional 32 byte header.
func (a *Alloc) AllocFromHeap(heap HeapHandle, size int) []byte {
	if !a.valid(heap) || size <= 0 {
		return nil
	}
	hd := &a.heaps[heap]
	need := roundUp(size + headerSize)

	var c *cell
	for c = hd.free; c != nil; c = c.next {
		if c.size >= need {
			break
		}
	}
	if c == nil {
		return nil
	}

	if c.size-need < minObjSize {
		// Too small to split, hand out the whole cell.
		hd.free = dlExtract(hd.free, c)
	} else {
		rest := &cell{
			offset: c.offset + need,
			size:   c.size - need,
			prev:   c.prev,
			next:   c.next,
		}
		if rest.next != nil {
			rest.next.prev = rest
		}
		if rest.prev != nil {
			rest.prev.next = rest
		} else {
			hd.free = rest
		}
		c.size = need
	}
	hd.allocated = dlAddFront(hd.allocated, c)

	if debug.Enabled {
		c.hd = hd
		c.requested = size
		hd.headerBytes += headerSize
		hd.paddingBytes += c.size - size - headerSize
		hd.payloadBytes += size
	}

	return a.arena[c.offset+headerSize : c.offset+headerSize+size : c.offset+c.size]
}

// FreeToHeap returns an allocation to the heap it came from, joining it
// with adjacent free cells. p must be a slice returned by AllocFromHeap on
// the same heap; freeing anything else is ignored in release builds.
func (a *Alloc) FreeToHeap(heap HeapHandle, p []byte) {
	if !a.valid(heap) || p == nil {
		return
	}
	hd := &a.heaps[heap]
	c := dlLookup(hd.allocated, a.offsetOf(p)-headerSize)
	debug.Assert(c != nil, "free of unallocated cell")
	if c == nil {
		return
	}
	hd.allocated = dlExtract(hd.allocated, c)

	if debug.Enabled {
		hd.headerBytes -= headerSize
		hd.paddingBytes -= c.size - c.requested - headerSize
		hd.payloadBytes -= c.requested
		c.hd, c.requested = nil, 0
	}
	hd.free = dlInsert(hd.free, c)
}

// ReferentSize returns the usable size of an allocation, which may exceed
// the requested size by the padding up to the cell boundary. The owning
// heap is found from the allocation itself; anything not live on some heap
// reports zero.
func (a *Alloc) ReferentSize(p []byte) int {
	if p == nil {
		return 0
	}
	offset := a.offsetOf(p) - headerSize
	for i := range a.heaps {
		hd := &a.heaps[i]
		if hd.size < 0 {
			continue
		}
		if c := dlLookup(hd.allocated, offset); c != nil {
			return c.size - headerSize
		}
	}
	return 0
}

// CheckHeap validates the heap's cell lists and returns the total number of
// usable free bytes, or -1 if an inconsistency is found.
func (a *Alloc) CheckHeap(heap HeapHandle) int64 {
	if !a.valid(heap) {
		return -1
	}
	hd := &a.heaps[heap]

	covered := 0
	if hd.allocated != nil && hd.allocated.prev != nil {
		return -1
	}
	for c := hd.allocated; c != nil; c = c.next {
		if !a.validCell(c) || (c.next != nil && c.next.prev != c) {
			return -1
		}
		covered += c.size
	}

	total := int64(0)
	if hd.free != nil && hd.free.prev != nil {
		return -1
	}
	for c := hd.free; c != nil; c = c.next {
		if !a.validCell(c) || (c.next != nil && c.next.prev != c) {
			return -1
		}
		if c.next != nil && c.offset+c.size > c.next.offset {
			return -1
		}
		covered += c.size
		total += int64(c.size - headerSize)
	}

	// The cells must partition exactly the ranges the heap owns.
	if covered != hd.size {
		return -1
	}
	return total
}

// VisitAllocated calls visitor with every live allocation of every heap.
func (a *Alloc) VisitAllocated(visitor func(heap HeapHandle, p []byte)) {
	for i := range a.heaps {
		hd := &a.heaps[i]
		if hd.size < 0 {
			continue
		}
		for c := hd.allocated; c != nil; c = c.next {
			visitor(HeapHandle(i), a.arena[c.offset+headerSize:c.offset+c.size])
		}
	}
}

func (a *Alloc) valid(heap HeapHandle) bool {
	return heap >= 0 && int(heap) < len(a.heaps) && a.heaps[heap].size >= 0
}

func (a *Alloc) validCell(c *cell) bool {
	return c.offset >= 0 && c.offset+c.size <= len(a.arena) &&
		c.offset == roundDown(c.offset) &&
		c.size == roundDown(c.size) && c.size >= minObjSize
}

// offsetOf returns the offset of p's first byte inside the arena.
func (a *Alloc) offsetOf(p []byte) int {
	return int(uintptr(unsafe.Pointer(unsafe.SliceData(p))) -
		uintptr(unsafe.Pointer(unsafe.SliceData(a.arena))))
}

func dlAddFront(list, c *cell) *cell {
	c.prev, c.next = nil, list
	if list != nil {
		list.prev = c
	}
	return c
}

func dlExtract(list, c *cell) *cell {
	if c.next != nil {
		c.next.prev = c.prev
	}
	if c.prev == nil {
		return c.next
	}
	c.prev.next = c.next
	return list
}

func dlLookup(list *cell, offset int) *cell {
	for c := list; c != nil; c = c.next {
		if c.offset == offset {
			return c
		}
	}
	return nil
}

// dlInsert inserts c into the offset-sorted free list and joins it with
// adjacent cells. Returns the new head of the list.
func dlInsert(list, c *cell) *cell {
	var prev *cell
	next := list
	for next != nil && next.offset < c.offset {
		prev, next = next, next.next
	}

	c.prev, c.next = prev, next
	if next != nil {
		next.prev = c
		if c.offset+c.size == next.offset {
			c.size += next.size
			c.next = next.next
			if next.next != nil {
				next.next.prev = c
			}
		}
	}
	if prev == nil {
		return c
	}
	prev.next = c
	if prev.offset+prev.size == c.offset {
		prev.size += c.size
		prev.next = c.next
		if c.next != nil {
			c.next.prev = prev
		}
	}
	return list
}
