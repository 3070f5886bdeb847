// Package tlsf implements a two-level segregated fit allocator over a single
// caller-supplied region of memory. It never allocates its own backing
// storage: callers pass a []byte (heap-allocated, or a view over a shared
// mapping) and the package turns it into a pool supporting O(1) allocation,
// deallocation, splitting and coalescing.
package tlsf

import (
	"sync"
	"unsafe"

	"github.com/tlsf-go/tlsfpool/pshared"
)

// Mode selects the concurrency discipline a Pool enforces around its
// Control.
type Mode int

const (
	// ModeSingleThreaded performs no locking at all; callers must serialize
	// their own access.
	ModeSingleThreaded Mode = iota
	// ModeMultiThreaded guards Control with an ordinary in-process
	// sync.Mutex, suitable for a region that never leaves this process.
	ModeMultiThreaded
	// ModeMultiProcess guards Control with a pshared.Mutex living inside the
	// region itself, suitable for a region mapped into more than one
	// process's address space.
	ModeMultiProcess
)

// Options configures a Pool at Init/Attach time.
type Options struct {
	Mode Mode

	// BlockOnExhaustion makes Allocate block until a concurrent Deallocate
	// frees enough space, instead of returning ErrExhausted immediately.
	// Invalid combined with ModeSingleThreaded.
	BlockOnExhaustion bool

	// Statistics enables UsageRate/PeakUsage; when false they report
	// (0, false) without touching Control's counters under the lock.
	Statistics bool
}

// Pool is a handle to an initialized region. Pool is itself not safe to
// share across goroutines/processes by copying; construct one handle per
// attacher via Init/Attach, all pointing at the same underlying region.
type Pool struct {
	region []byte
	a      *arena

	mode              Mode
	blockOnExhaustion bool
	statsEnabled      bool
	closed            bool

	mu   sync.Mutex
	cond *sync.Cond

	pmu   *pshared.Mutex
	pcond *pshared.Cond
}

func poolSizeFor(regionLen int) (int64, error) {
	if int64(regionLen) < controlSize+2*overhead+minBlockSize {
		return 0, ErrInvalidPoolSize
	}
	poolAvail := int64(regionLen) - controlSize
	poolSize := alignDown(poolAvail - 2*overhead)
	if poolSize < minBlockSize || poolSize >= maxBlockSize() {
		return 0, ErrInvalidPoolSize
	}
	return poolSize, nil
}

func newPool(region []byte, control *Control, poolSize int64, opts *Options) *Pool {
	p := &Pool{
		region:            region,
		mode:              opts.Mode,
		blockOnExhaustion: opts.BlockOnExhaustion,
		statsEnabled:      opts.Statistics,
	}
	p.a = &arena{
		control:  control,
		poolBase: unsafe.Add(unsafe.Pointer(&region[0]), controlSize),
		poolSize: poolSize,
	}
	switch p.mode {
	case ModeMultiProcess:
		p.pmu = pshared.NewMutex(&control.shared)
		p.pcond = pshared.NewCond(&control.shared, p.pmu)
	case ModeMultiThreaded:
		p.cond = sync.NewCond(&p.mu)
	}
	return p
}

// Init formats region as a fresh pool and returns a handle to it. region
// must be large enough to hold a Control header plus at least one
// minimum-size block; Init zeroes and rewrites the whole header area.
//
// When opts.Mode is ModeMultiProcess, Init must be called by exactly one of
// the processes that will attach to region — the others must call Attach,
// which skips re-running pool setup and would otherwise race Init's writes.
func Init(region []byte, opts *Options) (*Pool, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.BlockOnExhaustion && opts.Mode == ModeSingleThreaded {
		return nil, ErrInvalidOptions
	}
	poolSize, err := poolSizeFor(len(region))
	if err != nil {
		return nil, err
	}

	control := (*Control)(unsafe.Pointer(&region[0]))
	*control = Control{}
	control.magic = controlMagic

	p := newPool(region, control, poolSize, opts)
	p.a.initPool()
	return p, nil
}

// Attach opens a region previously formatted by Init, without touching its
// free-list state. Every process other than the one that called Init must
// use Attach.
func Attach(region []byte, opts *Options) (*Pool, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.BlockOnExhaustion && opts.Mode == ModeSingleThreaded {
		return nil, ErrInvalidOptions
	}
	if int64(len(region)) < controlSize {
		return nil, ErrInvalidPoolSize
	}
	control := (*Control)(unsafe.Pointer(&region[0]))
	if control.magic != controlMagic {
		return nil, ErrNotInitialized
	}
	poolSize, err := poolSizeFor(len(region))
	if err != nil {
		return nil, err
	}
	return newPool(region, control, poolSize, opts), nil
}

func (p *Pool) lock() {
	switch p.mode {
	case ModeMultiProcess:
		p.pmu.Lock()
	case ModeMultiThreaded:
		p.mu.Lock()
	}
}

func (p *Pool) unlock() {
	switch p.mode {
	case ModeMultiProcess:
		p.pmu.Unlock()
	case ModeMultiThreaded:
		p.mu.Unlock()
	}
}

func (p *Pool) wait() {
	switch p.mode {
	case ModeMultiProcess:
		p.pcond.Wait()
	case ModeMultiThreaded:
		p.cond.Wait()
	}
}

func (p *Pool) broadcast() {
	switch p.mode {
	case ModeMultiProcess:
		p.pcond.Broadcast()
	case ModeMultiThreaded:
		p.cond.Broadcast()
	}
}

// Allocate returns a byte slice of at least size bytes carved out of the
// pool, or an error: its length is size rounded up to the 8-byte alignment
// and to the minimum block size. In ModeSingleThreaded/ModeMultiThreaded without
// BlockOnExhaustion, a request that cannot currently be satisfied returns
// ErrExhausted immediately; with BlockOnExhaustion set, Allocate instead
// blocks until a concurrent Deallocate (or Close) wakes it.
func (p *Pool) Allocate(size int) ([]byte, error) {
	want := adjustRequestSize(int64(size))
	p.lock()
	defer p.unlock()
	for {
		if p.closed {
			return nil, ErrClosed
		}
		if want == 0 {
			return nil, ErrExhausted
		}
		if offset, h, ok := p.a.locateFreeBlock(want); ok {
			p.a.prepareUsed(offset, h, want)
			ptr := unsafe.Add(p.a.poolBase, offset+payloadOffset)
			return unsafe.Slice((*byte)(ptr), int(want)), nil
		}
		if !p.blockOnExhaustion {
			return nil, ErrExhausted
		}
		p.wait()
	}
}

// Deallocate returns a slice previously returned by Allocate to the pool. It
// is the caller's responsibility to pass back exactly a slice Allocate
// returned (or a re-slice of its full extent). Deallocate panics when the
// block's header already reads as free (a double free); it does not
// otherwise validate b, and any other slice corrupts the pool.
func (p *Pool) Deallocate(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	offset := int64(uintptr(unsafe.Pointer(&b[0]))-uintptr(p.a.poolBase)) - payloadOffset
	p.lock()
	defer p.unlock()
	if p.closed {
		return ErrClosed
	}
	p.a.free(offset)
	if p.blockOnExhaustion {
		p.broadcast()
	}
	return nil
}

// Close marks the pool closed and wakes every Allocate call currently
// blocked waiting for space; they return ErrClosed. Close does not release
// the backing region — that remains the caller's responsibility.
func (p *Pool) Close() {
	p.lock()
	p.closed = true
	p.broadcast()
	p.unlock()
}

// ToOffset converts a slice previously returned by Allocate into a
// pool-relative offset suitable for sharing with another attacher of the
// same region (over a pipe, a shared header field, etc.). It reports false
// if b does not point inside this pool.
func (p *Pool) ToOffset(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	off := int64(uintptr(unsafe.Pointer(&b[0])) - uintptr(p.a.poolBase))
	if off < 0 || off >= p.a.poolSize {
		return 0, false
	}
	return off, true
}

// FromOffset is the inverse of ToOffset: given an offset and the length the
// original allocation had, it reconstructs the slice view in this process's
// mapping of the region.
func (p *Pool) FromOffset(off int64, size int) ([]byte, error) {
	if off < 0 || off >= p.a.poolSize || size < 0 {
		return nil, ErrInvalidPoolSize
	}
	ptr := unsafe.Add(p.a.poolBase, off)
	return unsafe.Slice((*byte)(ptr), size), nil
}

// UsageRate reports the fraction of the pool currently allocated, as a
// percentage, when Options.Statistics was set; otherwise it reports
// (0, false) without taking the lock.
func (p *Pool) UsageRate() (float64, bool) {
	if !p.statsEnabled {
		return 0, false
	}
	p.lock()
	defer p.unlock()
	if p.a.poolSize == 0 {
		return 0, true
	}
	return float64(p.a.control.usedSize) / float64(p.a.poolSize) * 100, true
}

// PeakUsage reports the high-water mark of bytes allocated at once, when
// Options.Statistics was set.
func (p *Pool) PeakUsage() (int64, bool) {
	if !p.statsEnabled {
		return 0, false
	}
	p.lock()
	defer p.unlock()
	return p.a.control.maxSize, true
}

// PoolSize reports the total number of payload bytes the pool can ever hand
// out across all live allocations combined.
func (p *Pool) PoolSize() int64 { return p.a.poolSize }

// MinRegionSize reports the smallest region length Init/Attach will ever
// accept: a Control header, the two edge words bracketing the pool, and one
// minimum-size block.
func MinRegionSize() int64 { return controlSize + 2*overhead + minBlockSize }

// RegionOverhead reports the fixed number of region bytes Init consumes
// before any of it becomes usable pool payload: the Control header plus the
// two edge words bracketing the pool. Callers sizing a region for a target
// usable pool size (e.g. regionpool.ForPool) add this to the payload size
// they actually want.
func RegionOverhead() int64 { return controlSize + 2*overhead }
