package shmchan

import "github.com/behrlich/shmchan/internal/ring"

// Reservation is a pending, uncommitted send obtained from TryReserve,
// Reserve, or ReserveUntil. Write up to MaxLen bytes across the slices
// Spans returns, then call Commit with however many bytes were actually
// written; calling Abandon instead discards the reservation without
// sending anything.
type Reservation struct {
	inner *ring.Reservation
}

// Spans returns up to two byte slices covering the reserved payload
// region, in order; a second slice is present only when the reservation
// wraps around the end of the ring. Writing a total of n <= MaxLen bytes
// across these slices and calling Commit(n) publishes the frame.
func (r *Reservation) Spans() [][]byte {
	return r.inner.Spans()
}

// MaxLen returns the number of payload bytes this reservation can hold.
func (r *Reservation) MaxLen() uint32 {
	return r.inner.MaxLen()
}

// Commit publishes the reservation with an actual length n <= MaxLen,
// waking the peer if it was blocked waiting for data.
func (r *Reservation) Commit(n uint32) error {
	return r.inner.Commit(n)
}

// Abandon releases the reservation without sending anything.
func (r *Reservation) Abandon() {
	r.inner.Abandon()
}

// Received is a popped, uncommitted frame obtained from TryPop, Pop, or
// PopUntil. Read its Spans (or call Bytes for a single copied slice), then
// call Commit to release the frame's space back to the ring.
type Received struct {
	inner *ring.Received
}

// Len returns the number of payload bytes in this frame.
func (r *Received) Len() uint32 {
	return r.inner.Len()
}

// Spans returns up to two byte slices covering the frame's payload bytes,
// in order. The slices alias the shared region directly; do not retain
// them past Commit.
func (r *Received) Spans() [][]byte {
	return r.inner.Spans()
}

// Bytes returns the frame's payload as a single freshly allocated slice,
// joining Spans if the frame wrapped around the ring. Convenient when
// zero-copy access isn't worth the bookkeeping.
func (r *Received) Bytes() []byte {
	spans := r.inner.Spans()
	if len(spans) == 1 {
		out := make([]byte, len(spans[0]))
		copy(out, spans[0])
		return out
	}
	out := make([]byte, 0, r.inner.Len())
	for _, s := range spans {
		out = append(out, s...)
	}
	return out
}

// Commit releases the frame's space back to the ring, waking the peer if
// it was blocked on this ring filling up.
func (r *Received) Commit() error {
	return r.inner.Commit()
}
