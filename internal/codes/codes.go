// Package codes defines the small, shared vocabulary of outcome codes used
// by internal/ring and the root package's push, pop and error code, and
// re-exported by the public errors package. Keeping the enum here, instead
// of in the root package, lets internal packages return a typed failure
// without importing the root package and creating an import cycle.
package codes

// Code is a coarse-grained outcome classification, modeled after the status
// codes a syscall-backed IPC primitive returns: most callers only need to
// distinguish "worked", "would block", "not allowed anymore", and "caller
// error", not a full errno.
type Code int

const (
	// OK indicates success. Rarely constructed directly; it exists so Code
	// has a meaningful zero value distinct from an error.
	OK Code = iota
	// FAIL is an unclassified failure, usually wrapping an OS errno that
	// doesn't map to a more specific code below.
	FAIL
	// CLOSED indicates the channel (or the ring within it) has been torn
	// down by its creator and can no longer be used.
	CLOSED
	// INVALID indicates a caller error: a bad argument, an out-of-order
	// call, or a reservation commit that doesn't fit what was reserved.
	INVALID
	// TOOBIG indicates a payload that can never fit the ring regardless of
	// its current occupancy, because its frame size exceeds capacity.
	TOOBIG
	// BUSY indicates a transient condition: the ring is full (push) or
	// empty (pop) right now, but may not be a moment later.
	BUSY
	// TIMEOUT indicates a bounded blocking call returned without its
	// condition becoming true.
	TIMEOUT
	// UNSUPPORTED indicates the current platform has no implementation of
	// a required primitive (e.g. wait-on-address without cgo on Darwin).
	UNSUPPORTED
)

// String renders the code the way it appears in log output and Error
// messages.
func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case FAIL:
		return "FAIL"
	case CLOSED:
		return "CLOSED"
	case INVALID:
		return "INVALID"
	case TOOBIG:
		return "TOOBIG"
	case BUSY:
		return "BUSY"
	case TIMEOUT:
		return "TIMEOUT"
	case UNSUPPORTED:
		return "UNSUPPORTED"
	default:
		return "UNKNOWN"
	}
}

// Err is a minimal error carrying a Code and an operation name, returned by
// internal packages that have no business constructing the richer public
// *shmchan.Error type. The root errors package recognizes values of this
// type via errors.As and re-wraps them with channel-level context.
type Err struct {
	Op   string
	Code Code
	Msg  string
}

func (e *Err) Error() string {
	if e.Msg == "" {
		return e.Op + ": " + e.Code.String()
	}
	return e.Op + ": " + e.Code.String() + ": " + e.Msg
}

// New constructs an *Err for the given operation and code.
func New(op string, code Code, msg string) *Err {
	return &Err{Op: op, Code: code, Msg: msg}
}
