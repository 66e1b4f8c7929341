// Package shm provides named, cross-process shared-memory regions: create
// one with a fresh name and a fixed size, or open one a peer already
// created. The platform-specific files in this package (shm_unix.go,
// shm_windows.go) supply the syscalls; Segment itself is just the mapped
// byte view plus the teardown calls a channel needs when it exits.
package shm

import "errors"

// ErrAlreadyExists is returned by Create when a region of that name is
// already present; the spec's one-creator rule means this is always a
// caller error, not a condition to retry past.
var ErrAlreadyExists = errors.New("shm: region already exists")

// ErrNotFound is returned by Open when no region of that name exists.
var ErrNotFound = errors.New("shm: region not found")

// Segment is a mapped shared-memory region.
type Segment interface {
	// Bytes returns the mapped region. Valid until Close.
	Bytes() []byte
	// Close unmaps the region and releases the OS handle, but does not
	// remove the underlying name; see Unlink.
	Close() error
}

// Create allocates a new named region of the given size and maps it,
// failing with ErrAlreadyExists if the name is taken. The caller created
// this region and is responsible for eventually calling Unlink(name).
func Create(name string, size uint32) (Segment, error) {
	return createNamed(name, size)
}

// Open maps an existing named region, failing with ErrNotFound if none
// exists. The mapped size matches whatever Create originally sized it to.
func Open(name string) (Segment, error) {
	return openNamed(name)
}

// Unlink removes a region's name so no further Open can find it. Mapped
// Segments already holding it remain valid until their own Close.
func Unlink(name string) error {
	return unlinkNamed(name)
}
