//go:build darwin && cgo

package wait

/*
#include <stdint.h>
#include <stddef.h>
#include <errno.h>

// os_sync_wait_on_address is public API but only since macOS 14.4; weak
// import so the binary still loads on older systems, falling back to the
// private __ulock_wait/__ulock_wake pair (see <bsd/sys/ulock.h>, not a
// public header) at runtime.
#define OS_CLOCK_MACH_ABSOLUTE_TIME    32
#define OS_SYNC_WAIT_ON_ADDRESS_SHARED 1
#define OS_SYNC_WAKE_BY_ADDRESS_SHARED 1

__attribute__((weak_import)) extern int os_sync_wait_on_address(
    void *addr, uint64_t value, size_t size, uint32_t flags);
__attribute__((weak_import)) extern int os_sync_wait_on_address_with_timeout(
    void *addr, uint64_t value, size_t size, uint32_t flags, uint32_t clockid,
    uint64_t timeout_ns);
__attribute__((weak_import)) extern int os_sync_wake_by_address_any(
    void *addr, size_t size, uint32_t flags);
__attribute__((weak_import)) extern int os_sync_wake_by_address_all(
    void *addr, size_t size, uint32_t flags);

#define UL_COMPARE_AND_WAIT_SHARED 3
#define ULF_WAKE_ALL               0x00000100

__attribute__((weak_import)) extern int __ulock_wait(
    uint32_t operation, void *addr, uint64_t value, uint32_t timeout);
__attribute__((weak_import)) extern int __ulock_wake(
    uint32_t operation, void *addr, uint64_t wake_value);

static int shmchan_wait(void *addr, uint32_t expected, uint64_t timeout_ns, int has_timeout, int *timed_out) {
    int ret;
    *timed_out = 0;
    if (os_sync_wait_on_address_with_timeout) {
        if (!has_timeout) {
            ret = os_sync_wait_on_address(addr, (uint64_t)expected, 4,
                                           OS_SYNC_WAIT_ON_ADDRESS_SHARED);
        } else {
            ret = os_sync_wait_on_address_with_timeout(
                addr, (uint64_t)expected, 4, OS_SYNC_WAIT_ON_ADDRESS_SHARED,
                OS_CLOCK_MACH_ABSOLUTE_TIME, timeout_ns);
        }
    } else if (__ulock_wait) {
        uint32_t micros = has_timeout ? (uint32_t)(timeout_ns / 1000) : 0;
        ret = __ulock_wait(UL_COMPARE_AND_WAIT_SHARED, addr, (uint64_t)expected, micros);
    } else {
        errno = ENOTSUP;
        return -1;
    }

    if (ret >= 0) {
        return 0;
    }
    if (errno == ETIMEDOUT) {
        *timed_out = 1;
        return -1;
    }
    if (errno == EAGAIN) {
        return 0;
    }
    return -1;
}

static int shmchan_wake(void *addr, int wake_all) {
    int ret;
    if (wake_all) {
        if (os_sync_wake_by_address_all) {
            ret = os_sync_wake_by_address_all(addr, 4, OS_SYNC_WAKE_BY_ADDRESS_SHARED);
        } else if (__ulock_wake) {
            ret = __ulock_wake(UL_COMPARE_AND_WAIT_SHARED | ULF_WAKE_ALL, addr, 0);
        } else {
            errno = ENOTSUP;
            return -1;
        }
    } else {
        if (os_sync_wake_by_address_any) {
            ret = os_sync_wake_by_address_any(addr, 4, OS_SYNC_WAKE_BY_ADDRESS_SHARED);
        } else if (__ulock_wake) {
            ret = __ulock_wake(UL_COMPARE_AND_WAIT_SHARED, addr, 0);
        } else {
            errno = ENOTSUP;
            return -1;
        }
    }
    if (ret >= 0 || errno == ENOENT) {
        return 0;
    }
    return -1;
}
*/
import "C"

import (
	"errors"
	"syscall"
	"time"
	"unsafe"
)

var errUnsupported = errors.New("wait: operation not supported on this platform")

type darwinAdapter struct{}

func newPlatformAdapter() Adapter {
	return darwinAdapter{}
}

func (darwinAdapter) Wait(addr *uint32, expected uint32, timeout time.Duration) (Outcome, error) {
	var timedOut C.int
	hasTimeout := C.int(0)
	var timeoutNs C.uint64_t
	if timeout > 0 {
		hasTimeout = 1
		timeoutNs = C.uint64_t(timeout.Nanoseconds())
	}

	ret, errno := C.shmchan_wait(unsafe.Pointer(addr), C.uint32_t(expected), timeoutNs, hasTimeout, &timedOut)
	if ret == 0 {
		return Woken, nil
	}
	if timedOut != 0 {
		return TimedOut, nil
	}
	if errno == syscall.ENOTSUP {
		return Woken, errUnsupported
	}
	return Woken, nil
}

func (darwinAdapter) Wake(addr *uint32, all bool) error {
	wakeAll := C.int(0)
	if all {
		wakeAll = 1
	}
	C.shmchan_wake(unsafe.Pointer(addr), wakeAll)
	return nil
}
