//go:build windows

package wait

import (
	"errors"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// WaitOnAddress, WakeByAddressSingle and WakeByAddressAll ship in
// kernelbase.dll starting with Windows 8; resolved lazily on first use the
// same way kz_futex_init loads them from KernelBase.dll, since
// golang.org/x/sys/windows has no static bindings for them.
var (
	modKernelBase        = windows.NewLazySystemDLL("kernelbase.dll")
	procWaitOnAddress     = modKernelBase.NewProc("WaitOnAddress")
	procWakeByAddrSingle  = modKernelBase.NewProc("WakeByAddressSingle")
	procWakeByAddrAll     = modKernelBase.NewProc("WakeByAddressAll")
)

const errorTimeout = 1460 // ERROR_TIMEOUT

type windowsAdapter struct{}

func newPlatformAdapter() Adapter {
	return windowsAdapter{}
}

func (windowsAdapter) Wait(addr *uint32, expected uint32, timeout time.Duration) (Outcome, error) {
	if err := procWaitOnAddress.Find(); err != nil {
		return Woken, errors.New("wait: WaitOnAddress unavailable: " + err.Error())
	}

	millis := uint32(0xFFFFFFFF) // INFINITE
	if timeout > 0 {
		millis = uint32(timeout.Milliseconds())
	}

	compare := expected
	ret, _, callErr := procWaitOnAddress.Call(
		uintptr(unsafe.Pointer(addr)),
		uintptr(unsafe.Pointer(&compare)),
		uintptr(4),
		uintptr(millis),
	)
	if ret != 0 {
		return Woken, nil
	}
	if errno, ok := callErr.(windows.Errno); ok && uintptr(errno) == errorTimeout {
		return TimedOut, nil
	}
	return Woken, callErr
}

func (windowsAdapter) Wake(addr *uint32, all bool) error {
	proc := procWakeByAddrSingle
	if all {
		proc = procWakeByAddrAll
	}
	if err := proc.Find(); err != nil {
		return errors.New("wait: WakeByAddress unavailable: " + err.Error())
	}
	proc.Call(uintptr(unsafe.Pointer(addr)))
	return nil
}
