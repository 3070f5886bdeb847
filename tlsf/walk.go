package tlsf

// Walk visits every physical block in the pool from the lowest address to
// the sentinel, in order, reporting its payload size and whether it is
// currently free. It takes no lock — callers driving it concurrently with
// Allocate/Deallocate must hold their own external synchronization, the same
// caveat the reference allocator's debug walker carries.
func (p *Pool) Walk(visit func(offset int64, size int64, free bool)) {
	offset := int64(firstBlockOffset)
	h := p.a.blockAt(offset)
	for !h.isLast() {
		visit(offset, h.size(), h.isFree())
		offset, h = p.a.next(offset, h)
	}
}
