package storage

import "math"

// chunk is one contiguous, 8-byte-aligned region of the stack frame,
// addressed by a base-pointer-relative offset and its size in bytes.
type chunk struct {
	offset int32
	size   int32
}

// stackAllocator is the free-list stack allocator of spec.md §4.1: it owns
// stackSize (the running frame size) and a sorted, maximally-coalesced list
// of reclaimable chunks.
type stackAllocator struct {
	stackSize int32
	freeList  []chunk // sorted ascending by offset; no two entries abut
}

func (a *stackAllocator) reset() {
	a.stackSize = 0
	a.freeList = a.freeList[:0]
}

func align8(n int32) int32 {
	if n%8 != 0 {
		n += 8 - n%8
	}
	return n
}

// claim rounds amount up to a multiple of 8 and returns a base-pointer
// relative offset for a chunk of that size, reusing a free chunk via
// best-fit (tie-broken by earliest position in the free list) or else
// growing the frame.
func (a *stackAllocator) claim(amount int32) int32 {
	if amount <= 0 {
		internalError(ErrUnsupportedLayout, "claim_stack_size: amount must be positive, got %d", amount)
	}
	amount = align8(amount)

	best := -1
	for i, c := range a.freeList {
		if c.size >= amount && (best == -1 || c.size < a.freeList[best].size) {
			best = i
		}
	}
	if best != -1 {
		c := a.freeList[best]
		if c.size == amount {
			a.freeList = append(a.freeList[:best], a.freeList[best+1:]...)
		} else {
			a.freeList[best] = chunk{offset: c.offset + amount, size: c.size - amount}
		}
		return c.offset
	}

	if a.stackSize > math.MaxInt32-amount {
		internalError(ErrOutOfStack, "stack frame would exceed i32::MAX (current=%d, requested=%d)", a.stackSize, amount)
	}
	a.stackSize += amount
	return -a.stackSize
}

// free returns (offset, size) to the free list, coalescing with whichever
// immediate neighbors abut it. A neighbor that overlaps rather than abuts
// indicates a double-free and is fatal.
func (a *stackAllocator) free(offset, size int32) {
	pos := 0
	for pos < len(a.freeList) && a.freeList[pos].offset < offset {
		pos++
	}

	mergePrev := false
	if pos > 0 {
		prev := a.freeList[pos-1]
		prevEnd := prev.offset + prev.size
		if prevEnd > offset {
			internalError(ErrDoubleFree, "freed chunk (offset=%d,size=%d) overlaps previously-freed chunk (offset=%d,size=%d)", offset, size, prev.offset, prev.size)
		}
		mergePrev = prevEnd == offset
	}
	mergeNext := false
	if pos < len(a.freeList) {
		next := a.freeList[pos]
		end := offset + size
		if end > next.offset {
			internalError(ErrDoubleFree, "freed chunk (offset=%d,size=%d) overlaps previously-freed chunk (offset=%d,size=%d)", offset, size, next.offset, next.size)
		}
		mergeNext = end == next.offset
	}

	switch {
	case mergePrev && mergeNext:
		a.freeList[pos-1].size += size + a.freeList[pos].size
		a.freeList = append(a.freeList[:pos], a.freeList[pos+1:]...)
	case mergePrev:
		a.freeList[pos-1].size += size
	case mergeNext:
		a.freeList[pos].offset = offset
		a.freeList[pos].size += size
	default:
		a.freeList = append(a.freeList, chunk{})
		copy(a.freeList[pos+1:], a.freeList[pos:])
		a.freeList[pos] = chunk{offset: offset, size: size}
	}
}
