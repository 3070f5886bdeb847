//go:build !linux

package pshared

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Non-Linux targets have no portable cross-process futex equivalent exposed
// via golang.org/x/sys/unix, so this fallback spins with a bounded sleep.
// It is correct (Lock/Unlock/Wait/Broadcast all still observe the right
// happens-before edges through the shared int32 words) but busier than the
// Linux path; cross-process mode is a niche enough use case on these
// platforms that this tradeoff is acceptable rather than pulling in cgo for
// a named semaphore.
const spinSleep = 200 * time.Microsecond

func lock(addr *int32) {
	for !atomic.CompareAndSwapInt32(addr, 0, 1) {
		runtime.Gosched()
	}
}

func unlock(addr *int32) {
	atomic.StoreInt32(addr, 0)
}

func futexWait(addr *int32, expected int32) {
	for atomic.LoadInt32(addr) == expected {
		time.Sleep(spinSleep)
	}
}

func futexWake(addr *int32, n int32) {}
