//go:build darwin && !cgo

package wait

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("wait: built without cgo, wait-on-address unavailable on darwin")

type unsupportedAdapter struct{}

func newPlatformAdapter() Adapter {
	return unsupportedAdapter{}
}

func (unsupportedAdapter) Wait(addr *uint32, expected uint32, timeout time.Duration) (Outcome, error) {
	return Woken, errUnsupported
}

func (unsupportedAdapter) Wake(addr *uint32, all bool) error {
	return errUnsupported
}
