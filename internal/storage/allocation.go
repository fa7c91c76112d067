package storage

// allocation is the owning record for one stack chunk shared by one or more
// symbols: the struct itself plus every ReferencedPrimitive/Complex symbol
// projected from it. refs counts live symbols pointing into the chunk; the
// chunk returns to the free list only when the last one is freed.
//
// Symbols pointing into the same chunk share a single *allocation value, so
// incrementing/decrementing refs on any of them is visible to all — this is
// the local, obviously-correct substitute for the source's Rc<(offset,size)>
// noted in spec.md §9.
type allocation struct {
	offset int32
	size   int32
	refs   int
}
