//go:build linux

package pshared

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Raw futex(2) operation numbers. The FUTEX_PRIVATE_FLAG optimization
// (FUTEX_WAIT_PRIVATE / FUTEX_WAKE_PRIVATE) is deliberately not used here:
// that flag tells the kernel the futex word is only ever touched by threads
// of a single process, which is exactly the assumption this package exists
// to violate.
const (
	futexWaitOp = 0
	futexWakeOp = 1
)

// futexWait blocks while *addr == expected. A spurious return (EAGAIN because
// the value already changed, EINTR, or a stale wakeup) is handled by the
// caller re-checking its own condition, mirroring sync.Cond's contract.
func futexWait(addr *int32, expected int32) {
	if atomic.LoadInt32(addr) != expected {
		return
	}
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), uintptr(futexWaitOp), uintptr(uint32(expected)), 0, 0, 0)
}

func futexWake(addr *int32, n int32) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), uintptr(futexWakeOp), uintptr(uint32(n)), 0, 0, 0)
}

func lock(addr *int32) {
	if atomic.CompareAndSwapInt32(addr, 0, 1) {
		return
	}
	for {
		old := atomic.SwapInt32(addr, 2)
		if old == 0 {
			return
		}
		futexWait(addr, 2)
	}
}

func unlock(addr *int32) {
	if atomic.SwapInt32(addr, 0) == 2 {
		futexWake(addr, 1)
	}
}
