package tlsf

// Check walks both the free-list matrix and the physical block chain,
// verifying every invariant the allocator depends on, and returns the number
// of violations found (zero means the pool is internally consistent). It
// never panics and never mutates the pool; it exists for tests and for
// embedders who want to assert correctness after a batch of operations,
// mirroring the reference allocator's own debug checker.
func (p *Pool) Check() int {
	violations := 0

	for fl := 0; fl < flCount; fl++ {
		for sl := 0; sl < slCount; sl++ {
			flSet := p.a.control.flBitmap&(1<<uint(fl)) != 0
			slSet := p.a.control.slBitmap[fl]&(1<<uint(sl)) != 0
			head := p.a.control.heads[fl][sl]

			if (head != nullOffset) != slSet {
				violations++
			}
			if slSet && !flSet {
				violations++
			}

			prevOffset := int64(nullOffset)
			for off := head; off != nullOffset; {
				h := p.a.blockAt(off)
				if !h.isFree() {
					violations++
				}
				if gotFL, gotSL := mapInsert(h.size()); gotFL != fl || gotSL != sl {
					violations++
				}
				if h.prevFree != prevOffset {
					violations++
				}
				prevOffset = off
				off = h.nextFree
			}
		}
	}

	offset := int64(firstBlockOffset)
	h := p.a.blockAt(offset)
	if h.isPrevFree() {
		violations++
	}
	for !h.isLast() {
		nextOffset, next := p.a.next(offset, h)
		if h.size()%alignSize != 0 {
			violations++
		}
		if next.isPrevFree() != h.isFree() {
			violations++
		}
		if h.isFree() && next.isFree() {
			violations++
		}
		if next.isPrevFree() {
			if backOffset, _, ok := p.a.prev(nextOffset, next); !ok || backOffset != offset {
				violations++
			}
		}
		offset, h = nextOffset, next
	}

	return violations
}
