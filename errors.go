package shmchan

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/behrlich/shmchan/internal/codes"
)

// Code classifies what went wrong, independent of the platform errno (if
// any) that caused it.
type Code = codes.Code

const (
	OK          = codes.OK
	FAIL        = codes.FAIL
	CLOSED      = codes.CLOSED
	INVALID     = codes.INVALID
	TOOBIG      = codes.TOOBIG
	BUSY        = codes.BUSY
	TIMEOUT     = codes.TIMEOUT
	UNSUPPORTED = codes.UNSUPPORTED
)

// Error represents a structured shmchan error with context and errno
// mapping, returned by every exported operation that can fail.
type Error struct {
	Op      string        // operation that failed, e.g. "Push", "Open"
	Channel string        // channel name, "" if not applicable
	Code    Code          // high-level error category
	Errno   syscall.Errno // OS errno, 0 if not applicable
	Msg     string        // human-readable detail
	Inner   error         // wrapped cause, if any
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Channel != "" {
		parts = append(parts, fmt.Sprintf("channel=%s", e.Channel))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = e.Code.String()
	}
	if len(parts) > 0 {
		return fmt.Sprintf("shmchan: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("shmchan: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is reports whether target is an *Error with the same Code, so callers
// can write errors.Is(err, shmchan.NewError("", shmchan.BUSY, "")) against
// a sentinel built with the same code.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError constructs an *Error with no channel or errno context.
func NewError(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewErrorWithErrno constructs an *Error carrying an OS errno, deriving Code
// from it and using the errno's own text as the message.
func NewErrorWithErrno(op string, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: mapErrnoToCode(errno), Errno: errno, Msg: errno.Error()}
}

// NewChannelError constructs an *Error scoped to a named channel.
func NewChannelError(op, channel string, code Code, msg string) *Error {
	return &Error{Op: op, Channel: channel, Code: code, Msg: msg}
}

// WrapError wraps inner with shmchan context for the given operation,
// recognizing *Error, *codes.Err (returned by the internal ring/wait/shm
// packages), and syscall.Errno specially; anything else becomes a plain
// FAIL.
func WrapError(op, channel string, inner error) *Error {
	if inner == nil {
		return nil
	}

	var se *Error
	if errors.As(inner, &se) {
		return &Error{Op: op, Channel: channel, Code: se.Code, Errno: se.Errno, Msg: se.Msg, Inner: se.Inner}
	}

	var ie *codes.Err
	if errors.As(inner, &ie) {
		return &Error{Op: op, Channel: channel, Code: ie.Code, Msg: ie.Msg, Inner: inner}
	}

	var errno syscall.Errno
	if errors.As(inner, &errno) {
		return &Error{Op: op, Channel: channel, Code: mapErrnoToCode(errno), Errno: errno, Msg: errno.Error(), Inner: inner}
	}

	return &Error{Op: op, Channel: channel, Code: FAIL, Msg: inner.Error(), Inner: inner}
}

func mapErrnoToCode(errno syscall.Errno) Code {
	switch errno {
	case syscall.ENOENT:
		return CLOSED
	case syscall.EEXIST, syscall.EBUSY:
		return BUSY
	case syscall.EINVAL, syscall.E2BIG:
		return INVALID
	case syscall.ENOSYS, syscall.EOPNOTSUPP:
		return UNSUPPORTED
	case syscall.ETIMEDOUT:
		return TIMEOUT
	default:
		return FAIL
	}
}

// IsCode reports whether err is (or wraps) a *shmchan.Error with the given
// Code.
func IsCode(err error, code Code) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsErrno reports whether err is (or wraps) a *shmchan.Error carrying the
// given OS errno.
func IsErrno(err error, errno syscall.Errno) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Errno == errno
	}
	return false
}
