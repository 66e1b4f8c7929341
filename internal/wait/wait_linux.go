//go:build linux

package wait

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux futex(2) operation numbers, from uapi/linux/futex.h. Not exported by
// golang.org/x/sys/unix as named constants, so mirrored here.
//
// Deliberately plain FUTEX_WAIT/FUTEX_WAKE, not the FUTEX_PRIVATE_FLAG
// variants: private futexes are hashed by (mm, vaddr) and assume every
// waiter and waker shares the same virtual address space. shmchan's futex
// words live in a region mapped independently by two different processes,
// each at whatever address its own mmap happens to choose, so a private
// futex wait in one process and a private futex wake in the other would
// hash to different buckets and never meet. original_source/core/kaze.h
// uses plain FUTEX_WAIT/FUTEX_WAKE for the same reason.
const (
	futexWait = 0
	futexWake = 1
)

type linuxAdapter struct{}

func newPlatformAdapter() Adapter {
	return linuxAdapter{}
}

func (linuxAdapter) Wait(addr *uint32, expected uint32, timeout time.Duration) (Outcome, error) {
	var tsPtr unsafe.Pointer
	if timeout > 0 {
		ts := unix.NsecToTimespec(timeout.Nanoseconds())
		tsPtr = unsafe.Pointer(&ts)
	}

	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWait),
		uintptr(expected),
		uintptr(tsPtr),
		0, 0,
	)
	switch errno {
	case 0:
		return Woken, nil
	case unix.EAGAIN:
		return Mismatch, nil
	case unix.ETIMEDOUT:
		return TimedOut, nil
	case unix.EINTR:
		return Woken, nil
	default:
		return Woken, errno
	}
}

func (linuxAdapter) Wake(addr *uint32, all bool) error {
	count := uint32(1)
	if all {
		count = ^uint32(0) >> 1 // INT_MAX
	}
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWake),
		uintptr(count),
		0, 0, 0,
	)
	if errno != 0 {
		return errno
	}
	return nil
}
