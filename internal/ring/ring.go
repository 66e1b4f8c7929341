// Package ring implements the single-producer/single-consumer byte ring
// that backs one direction of a shmchan channel: a length-prefixed,
// 4-byte-aligned frame stream over a fixed-size byte region, with a
// futex-style deficit counter so a blocked producer can be woken the
// instant enough space frees up instead of polling.
//
// A Ring never allocates or maps memory itself; it is handed a header plus
// payload slice that already lives in a region internal/shm mapped (or, for
// tests, a plain Go byte slice), and it is safe to use from at most one
// producer goroutine and one consumer goroutine concurrently - never two of
// either.
package ring

import (
	"sync/atomic"
	"time"

	"github.com/behrlich/shmchan/internal/codes"
	"github.com/behrlich/shmchan/internal/layout"
	"github.com/behrlich/shmchan/internal/wait"
)

// Ring is a view over one ring's header and payload bytes.
type Ring struct {
	hdr    *layout.RingHeader
	data   []byte // payload region, hdr.Size bytes long
	waiter wait.Adapter

	reserved bool // true between TryPush and the matching Reservation.Commit
}

// New wraps an existing ring region (header immediately followed by
// hdr.Size payload bytes) that some creator has already initialized via
// Init. Used by an attacher, or by a creator re-opening its own region.
func New(region []byte, waiter wait.Adapter) *Ring {
	hdr := layout.RingHeaderView(region)
	return &Ring{
		hdr:    hdr,
		data:   region[layout.RingHeaderSize : layout.RingHeaderSize+hdr.Size],
		waiter: waiter,
	}
}

// Init zeroes and stamps a fresh ring header over region, which must be at
// least layout.RingHeaderSize+capacity bytes, then returns a Ring wrapping
// it. Called exactly once, by whichever side creates the channel.
func Init(region []byte, capacity uint32, waiter wait.Adapter) *Ring {
	hdr := layout.RingHeaderView(region)
	hdr.Size = capacity
	hdr.Head = 0
	hdr.Tail = 0
	atomic.StoreUint32(&hdr.Used, 0)
	atomic.StoreUint32(&hdr.Need, 0)
	return &Ring{
		hdr:    hdr,
		data:   region[layout.RingHeaderSize : layout.RingHeaderSize+capacity],
		waiter: waiter,
	}
}

// Capacity returns the ring's fixed payload capacity in bytes.
func (r *Ring) Capacity() uint32 {
	return r.hdr.Size
}

// Used returns the number of payload bytes currently occupied (including
// frame overhead), read with acquire semantics.
func (r *Ring) Used() uint32 {
	return atomic.LoadUint32(&r.hdr.Used)
}

// Need returns the producer's deficit counter: the number of additional
// bytes that must free up before the last-rejected push would fit. Every
// pop subtracts its frame size, so once enough space has freed (or after
// pops with no rejected push outstanding) the counter is zero or negative
// when read as an int32; Need returns the raw uint32.
func (r *Ring) Need() uint32 {
	return atomic.LoadUint32(&r.hdr.Need)
}

func (r *Ring) freeSpace() uint32 {
	return r.hdr.Size - r.Used()
}

// Reservation is a pending, uncommitted push obtained from TryPush. The
// caller writes up to the reserved length into the slices returned by
// Spans, then calls Commit with however many bytes it actually wrote.
// Exactly one Reservation may be outstanding on a Ring at a time; this is
// the producer's own responsibility to uphold; Commit panics if called
// twice.
type Reservation struct {
	r         *Ring
	tail      uint32 // tail offset at reservation time
	maxLen    uint32 // payload bytes requested
	committed bool
}

// Spans returns up to two byte slices covering the reserved payload region,
// in order. A second slice is present only when the reservation wraps
// around the end of the ring.
func (res *Reservation) Spans() [][]byte {
	return payloadSpans(res.r.data, res.tail, res.maxLen)
}

// MaxLen returns the number of payload bytes this reservation can hold.
func (res *Reservation) MaxLen() uint32 {
	return res.maxLen
}

// Commit publishes the reservation with an actual length n <= MaxLen(),
// writing the length prefix, advancing the tail, and waking a blocked
// consumer if the ring was previously empty.
func (res *Reservation) Commit(n uint32) error {
	if res.committed {
		panic("ring: Reservation committed twice")
	}
	if n > res.maxLen {
		return codes.New("ring.Commit", codes.INVALID, "committed length exceeds reservation")
	}
	res.committed = true
	res.r.reserved = false

	hdr := res.r.hdr
	frameSize := layout.FrameSize(n)

	prefixOff := res.tail
	layout.PutLengthPrefix(res.r.data[prefixOff:prefixOff+4], n)

	hdr.Tail = (res.tail + frameSize) % hdr.Size

	oldUsed := atomic.AddUint32(&hdr.Used, frameSize) - frameSize
	if oldUsed == 0 {
		return res.r.waiter.Wake(&hdr.Used, false)
	}
	return nil
}

// Abandon releases a reservation without publishing any bytes, for callers
// that decide not to send after all. The space is returned to the free
// pool; nothing is written to the wire.
func (res *Reservation) Abandon() {
	if res.committed {
		panic("ring: Reservation committed twice")
	}
	res.committed = true
	res.r.reserved = false
}

// TryPush reserves room for a frame carrying up to payloadLen bytes and
// returns a Reservation to fill and commit. It never blocks: if the frame
// could never fit the ring regardless of occupancy, it returns a TOOBIG
// error; if the ring is merely full right now, it records the deficit in
// Need (so a matching Wait on Need wakes promptly once enough space frees)
// and returns a BUSY error.
func (r *Ring) TryPush(payloadLen uint32) (*Reservation, error) {
	if r.reserved {
		panic("ring: TryPush called with a reservation already outstanding")
	}

	needSize := layout.FrameSize(payloadLen)
	if needSize > r.hdr.Size {
		return nil, codes.New("ring.TryPush", codes.TOOBIG, "payload frame exceeds ring capacity")
	}

	free := r.freeSpace()
	if free < needSize {
		atomic.StoreUint32(&r.hdr.Need, needSize-free)
		return nil, codes.New("ring.TryPush", codes.BUSY, "ring full")
	}

	r.reserved = true
	return &Reservation{r: r, tail: r.hdr.Tail, maxLen: payloadLen}, nil
}

// WaitForSpace blocks until a subsequent TryPush for the same payloadLen
// would plausibly succeed, until timeout elapses (timeout <= 0 waits
// indefinitely), or until woken spuriously. Callers must always retry
// TryPush after it returns, even on a reported timeout.
func (r *Ring) WaitForSpace(payloadLen uint32, timeout time.Duration) error {
	needSize := layout.FrameSize(payloadLen)
	need := atomic.LoadUint32(&r.hdr.Need)
	if int32(need) <= 0 || need > needSize {
		return nil // deficit already met (or not from this push): retry TryPush
	}
	outcome, err := r.waiter.Wait(&r.hdr.Need, need, timeout)
	if err != nil {
		return codes.New("ring.WaitForSpace", codes.FAIL, err.Error())
	}
	if outcome == wait.TimedOut {
		return codes.New("ring.WaitForSpace", codes.TIMEOUT, "")
	}
	return nil
}

// Received is a popped, uncommitted frame obtained from TryPop. Spans
// exposes the payload bytes to read; Commit releases the frame's space
// back to the ring and wakes a producer waiting on Need if appropriate.
type Received struct {
	r         *Ring
	head      uint32
	length    uint32
	committed bool
}

// Len returns the number of payload bytes in this frame.
func (rcv *Received) Len() uint32 {
	return rcv.length
}

// Spans returns up to two byte slices covering the frame's payload bytes,
// in order.
func (rcv *Received) Spans() [][]byte {
	return payloadSpans(rcv.r.data, rcv.head, rcv.length)
}

// Commit releases the frame's space, advancing head and decrementing Used
// and Need, waking a blocked producer whose deficit this satisfies.
func (rcv *Received) Commit() error {
	if rcv.committed {
		panic("ring: Received committed twice")
	}
	rcv.committed = true

	hdr := rcv.r.hdr
	frameSize := layout.FrameSize(rcv.length)

	hdr.Head = (rcv.head + frameSize) % hdr.Size
	atomic.AddUint32(&hdr.Used, ^uint32(frameSize-1)) // atomic subtract

	newNeed := atomic.AddUint32(&hdr.Need, ^uint32(frameSize-1)) // atomic subtract
	if int32(newNeed) <= 0 {
		return rcv.r.waiter.Wake(&hdr.Need, true)
	}
	return nil
}

// TryPop returns the oldest unread frame without blocking, or a BUSY error
// if the ring is currently empty.
func (r *Ring) TryPop() (*Received, error) {
	used := r.Used()
	if used == 0 {
		return nil, codes.New("ring.TryPop", codes.BUSY, "ring empty")
	}

	head := r.hdr.Head
	prefix := r.data[head : head+4]
	length := layout.LengthPrefix(prefix)

	return &Received{r: r, head: head, length: length}, nil
}

// WaitForData blocks until the ring plausibly has a frame to pop, until
// timeout elapses (timeout <= 0 waits indefinitely), or until woken
// spuriously. Callers must always retry TryPop after it returns.
func (r *Ring) WaitForData(timeout time.Duration) error {
	outcome, err := r.waiter.Wait(&r.hdr.Used, 0, timeout)
	if err != nil {
		return codes.New("ring.WaitForData", codes.FAIL, err.Error())
	}
	if outcome == wait.TimedOut {
		return codes.New("ring.WaitForData", codes.TIMEOUT, "")
	}
	return nil
}

// WakeAll wakes every waiter blocked on this ring's Used or Need
// addresses, used when the channel is torn down so a blocked peer does not
// wait forever on a ring that will never change again.
func (r *Ring) WakeAll() {
	r.waiter.Wake(&r.hdr.Used, true)
	r.waiter.Wake(&r.hdr.Need, true)
}

// payloadSpans computes the (at most two) byte slices covering length
// payload bytes starting 4 bytes after frame offset start, wrapping around
// the end of data as needed. The length prefix itself never wraps, since
// tail and head are always kept 4-byte aligned and data's length is a
// multiple of 4.
func payloadSpans(data []byte, start uint32, length uint32) [][]byte {
	capacity := uint32(len(data))
	payloadStart := (start + 4) % capacity

	if length == 0 {
		return nil
	}
	if payloadStart+length <= capacity {
		return [][]byte{data[payloadStart : payloadStart+length]}
	}
	firstLen := capacity - payloadStart
	return [][]byte{
		data[payloadStart:capacity],
		data[0 : length-firstLen],
	}
}
