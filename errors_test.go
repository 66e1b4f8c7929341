package shmchan

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/behrlich/shmchan/internal/codes"
)

func TestNewError(t *testing.T) {
	err := NewError("Push", BUSY, "ring full")
	if err.Code != BUSY {
		t.Errorf("Code = %v, want BUSY", err.Code)
	}
	if err.Error() == "" {
		t.Error("Error() returned empty string")
	}
}

func TestNewErrorWithErrno(t *testing.T) {
	err := NewErrorWithErrno("Open", syscall.ENOENT)
	if err.Code != CLOSED {
		t.Errorf("Code = %v, want CLOSED", err.Code)
	}
	if err.Errno != syscall.ENOENT {
		t.Errorf("Errno = %v, want ENOENT", err.Errno)
	}
}

func TestNewChannelError(t *testing.T) {
	err := NewChannelError("Push", "chan0", TOOBIG, "frame exceeds capacity")
	if err.Channel != "chan0" {
		t.Errorf("Channel = %q, want chan0", err.Channel)
	}
	if got := err.Error(); got == "" {
		t.Error("Error() returned empty string")
	}
}

func TestWrapErrorFromInternalCode(t *testing.T) {
	inner := codes.New("ring.TryPush", codes.BUSY, "ring full")
	wrapped := WrapError("Push", "chan0", inner)
	if wrapped.Code != BUSY {
		t.Errorf("Code = %v, want BUSY", wrapped.Code)
	}
	if wrapped.Channel != "chan0" {
		t.Errorf("Channel = %q, want chan0", wrapped.Channel)
	}
}

func TestWrapErrorFromErrno(t *testing.T) {
	wrapped := WrapError("Open", "chan0", syscall.EBUSY)
	if wrapped.Code != BUSY {
		t.Errorf("Code = %v, want BUSY", wrapped.Code)
	}
	if wrapped.Errno != syscall.EBUSY {
		t.Errorf("Errno = %v, want EBUSY", wrapped.Errno)
	}
}

func TestWrapErrorNilIsNil(t *testing.T) {
	if WrapError("Push", "chan0", nil) != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestWrapErrorGeneric(t *testing.T) {
	wrapped := WrapError("Push", "chan0", fmt.Errorf("boom"))
	if wrapped.Code != FAIL {
		t.Errorf("Code = %v, want FAIL", wrapped.Code)
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("Pop", TIMEOUT, "deadline exceeded")
	if !IsCode(err, TIMEOUT) {
		t.Error("IsCode should match TIMEOUT")
	}
	if IsCode(err, BUSY) {
		t.Error("IsCode should not match BUSY")
	}
	if IsCode(errors.New("plain error"), TIMEOUT) {
		t.Error("IsCode should not match a non-*Error")
	}
}

func TestIsErrno(t *testing.T) {
	err := NewErrorWithErrno("Open", syscall.EEXIST)
	if !IsErrno(err, syscall.EEXIST) {
		t.Error("IsErrno should match EEXIST")
	}
	if IsErrno(err, syscall.ENOENT) {
		t.Error("IsErrno should not match ENOENT")
	}
}

func TestErrorIsBySameCode(t *testing.T) {
	a := NewError("Push", BUSY, "one")
	b := NewError("Pop", BUSY, "two")
	if !errors.Is(a, b) {
		t.Error("errors with the same Code should satisfy errors.Is")
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("underlying cause")
	wrapped := WrapError("Push", "chan0", inner)
	if !errors.Is(wrapped, inner) {
		t.Error("Unwrap chain should reach the original inner error")
	}
}
