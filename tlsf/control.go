package tlsf

import (
	"unsafe"

	"github.com/tlsf-go/tlsfpool/pshared"
)

// controlMagic identifies a region that has been through Init, distinguishing
// it from raw, never-initialized memory for Attach.
const controlMagic uint64 = 0x544c5346504f4f4c

// Control is the fixed-size, position-independent head of a pool: the
// two-level bitmap, the (fl, sl) free-list matrix storing pool-relative
// offsets, running statistics, and the process-shared synchronization state.
// Every field here is safe to place directly inside a region shared between
// processes — no pointers, only integers and offsets relative to the pool
// that follows this struct in memory.
type Control struct {
	magic    uint64
	flBitmap uint32
	slBitmap [flCount]uint32
	heads    [flCount][slCount]int64

	usedSize int64
	maxSize  int64

	shared pshared.State
}

const controlSize = int64(unsafe.Sizeof(Control{}))

// firstBlockOffset is the pool-relative offset of the very first block's
// header. It is negative: the header's prevPhys word physically falls
// inside Control's own last bytes and must never be read or written, which
// is guaranteed because the first block never has a physically preceding
// neighbor and so its prevFreeBit is never set.
const firstBlockOffset = -overhead

// arena holds the process-local handles needed to resolve pool-relative
// offsets into real addresses: a pointer into this process's mapping of the
// region, and the pool's usable byte count. Two arenas in different
// processes, constructed over different mappings of the same bytes, agree on
// every offset they exchange even though poolBase differs between them.
type arena struct {
	control  *Control
	poolBase unsafe.Pointer
	poolSize int64
}

func (a *arena) blockAt(offset int64) *blockHeader {
	return (*blockHeader)(unsafe.Add(a.poolBase, offset))
}

func (a *arena) offsetOf(h *blockHeader) int64 {
	return int64(uintptr(unsafe.Pointer(h)) - uintptr(a.poolBase))
}

// next returns the physically following block: its offset is determined
// purely by this block's own offset and size, never by stored linkage.
func (a *arena) next(offset int64, h *blockHeader) (int64, *blockHeader) {
	off := offset + payloadOffset - overhead + h.size()
	return off, a.blockAt(off)
}

// prev returns the physically preceding block, valid only when h reports it
// as free (the only time prevPhys is a meaningful self-relative delta rather
// than borrowed payload bytes).
func (a *arena) prev(offset int64, h *blockHeader) (int64, *blockHeader, bool) {
	if !h.isPrevFree() {
		return 0, nil, false
	}
	off := offset - h.prevPhys
	return off, a.blockAt(off), true
}

// linkNext recomputes the physically following block from h's current
// offset and size, and stamps that neighbor's prevPhys so its own future
// prev() calls recover this block's offset. It must be called whenever a
// block's size changes.
func (a *arena) linkNext(offset int64, h *blockHeader) (int64, *blockHeader) {
	off, next := a.next(offset, h)
	next.prevPhys = off - offset
	return off, next
}

func (a *arena) markAsFree(offset int64, h *blockHeader) {
	_, next := a.linkNext(offset, h)
	next.setPrevFree()
	h.setFree()
}

func (a *arena) markAsUsed(offset int64, h *blockHeader) {
	_, next := a.next(offset, h)
	next.setPrevUsed()
	h.setUsed()
}

// insertBlock threads a free block into the head of its (fl, sl) list and
// marks the class present in both bitmaps. The block is assumed already
// sized and flagged as free; insertBlock only touches linkage and stats.
func (a *arena) insertBlock(offset int64, h *blockHeader) {
	fl, sl := mapInsert(h.size())
	headOffset := a.control.heads[fl][sl]
	h.nextFree = headOffset
	h.prevFree = nullOffset
	if headOffset != nullOffset {
		a.blockAt(headOffset).prevFree = offset
	}
	a.control.heads[fl][sl] = offset
	a.control.flBitmap |= 1 << uint(fl)
	a.control.slBitmap[fl] |= 1 << uint(sl)
	a.control.usedSize -= h.size()
}

// removeFreeBlock unthreads a free block from wherever it sits in its (fl,
// sl) list, clearing the class from the bitmaps if it was the last member.
func (a *arena) removeFreeBlock(offset int64, h *blockHeader) {
	fl, sl := mapInsert(h.size())
	next, prev := h.nextFree, h.prevFree
	if next != nullOffset {
		a.blockAt(next).prevFree = prev
	}
	if prev != nullOffset {
		a.blockAt(prev).nextFree = next
	} else {
		a.control.heads[fl][sl] = next
		if next == nullOffset {
			a.control.slBitmap[fl] &^= 1 << uint(sl)
			if a.control.slBitmap[fl] == 0 {
				a.control.flBitmap &^= 1 << uint(fl)
			}
		}
	}
	a.control.usedSize += h.size()
}

// searchSuitableBlock walks the bitmaps upward from (fl, sl) to find the
// smallest non-empty class able to hold a request mapped to that class.
func (a *arena) searchSuitableBlock(fl, sl int) (int, int, bool) {
	slMap := a.control.slBitmap[fl] & (^uint32(0) << uint(sl))
	if slMap == 0 {
		flMap := a.control.flBitmap & (^uint32(0) << uint(fl+1))
		if flMap == 0 {
			return 0, 0, false
		}
		fl = ffs(flMap)
		slMap = a.control.slBitmap[fl]
	}
	sl = ffs(slMap)
	return fl, sl, true
}

// locateFreeBlock finds and removes the best-fit free block for size, or
// reports false if the pool has nothing large enough.
func (a *arena) locateFreeBlock(size int64) (int64, *blockHeader, bool) {
	fl, sl := mapSearch(size)
	if fl >= flCount {
		// mapSearch rounds size up to the next class boundary before mapping
		// it, which can push fl one past the last valid row for requests
		// near maxBlockSize(); no pool is ever large enough to satisfy one.
		return 0, nil, false
	}
	fl, sl, ok := a.searchSuitableBlock(fl, sl)
	if !ok {
		return 0, nil, false
	}
	offset := a.control.heads[fl][sl]
	h := a.blockAt(offset)
	a.removeFreeBlock(offset, h)
	return offset, h, true
}

// split carves `size` payload bytes off the front of a free block, leaving a
// new free remainder block physically after it, and relinks both neighbors'
// prevPhys so backward traversal stays correct. The caller is responsible
// for flagging and inserting the remainder.
func (a *arena) split(offset int64, h *blockHeader, size int64) (int64, *blockHeader) {
	oldSize := h.size()
	remSize := oldSize - size - overhead
	h.setSize(size)
	remOffset, rem := a.linkNext(offset, h)
	rem.sizeAndFlags = 0
	rem.setSize(remSize)
	a.linkNext(remOffset, rem)
	return remOffset, rem
}

// prepareUsed finalizes a located free block for handing to a caller: if it
// is large enough to split, the remainder is carved off and reinserted as
// free; in either case the (possibly trimmed) block is marked used.
func (a *arena) prepareUsed(offset int64, h *blockHeader, size int64) {
	if canSplit(h.size(), size) {
		remOffset, rem := a.split(offset, h, size)
		rem.setFree()
		_, afterRem := a.next(remOffset, rem)
		afterRem.setPrevFree()
		a.insertBlock(remOffset, rem)
	}
	a.markAsUsed(offset, h)
	if a.control.usedSize > a.control.maxSize {
		a.control.maxSize = a.control.usedSize
	}
}

// absorb folds other's entire physical span into h: h grows by other's size
// plus the one header word that overlapped between them, and the block
// physically after other is relinked to point back at h.
func (a *arena) absorb(offset int64, h *blockHeader, other *blockHeader) {
	h.setSize(h.size() + other.size() + overhead)
	a.linkNext(offset, h)
}

// mergePrev folds h into its physically preceding block if that block is
// free, returning the (possibly new) offset/header of the surviving block.
func (a *arena) mergePrev(offset int64, h *blockHeader) (int64, *blockHeader) {
	prevOffset, prevH, ok := a.prev(offset, h)
	if !ok {
		return offset, h
	}
	a.removeFreeBlock(prevOffset, prevH)
	a.absorb(prevOffset, prevH, h)
	return prevOffset, prevH
}

// mergeNext folds the block physically after h into h, if that neighbor is
// free and not the sentinel.
func (a *arena) mergeNext(offset int64, h *blockHeader) {
	nextOffset, next := a.next(offset, h)
	if next.isLast() || !next.isFree() {
		return
	}
	a.removeFreeBlock(nextOffset, next)
	a.absorb(offset, h, next)
}

// free returns the block at offset to the pool, coalescing with free
// physical neighbors before threading the (possibly larger) result into the
// free-list matrix.
func (a *arena) free(offset int64) {
	h := a.blockAt(offset)
	if h.isFree() {
		panic("tlsf: double free or invalid block")
	}
	offset, h = a.mergePrev(offset, h)
	a.mergeNext(offset, h)
	a.markAsFree(offset, h)
	a.insertBlock(offset, h)
}

// initPool lays out the single free block spanning the whole pool plus the
// zero-size sentinel capping it, and clears the free-list matrix.
func (a *arena) initPool() {
	a.control.flBitmap = 0
	for fl := 0; fl < flCount; fl++ {
		a.control.slBitmap[fl] = 0
		for sl := 0; sl < slCount; sl++ {
			a.control.heads[fl][sl] = nullOffset
		}
	}
	// insertBlock below subtracts the block's size from usedSize to account
	// for it becoming free; seeding usedSize at poolSize first makes that
	// land on the correct starting point of zero bytes used.
	a.control.usedSize = a.poolSize
	a.control.maxSize = 0

	first := a.blockAt(firstBlockOffset)
	first.sizeAndFlags = 0
	first.setSize(a.poolSize)
	first.setPrevUsed()
	_, sentinel := a.next(firstBlockOffset, first)
	sentinel.sizeAndFlags = 0
	a.markAsFree(firstBlockOffset, first)
	a.insertBlock(firstBlockOffset, first)
}
