package shmchan

import (
	"time"

	"github.com/behrlich/shmchan/internal/codes"
	"github.com/behrlich/shmchan/internal/constants"
)

// TryReserve reserves room for a frame carrying up to payloadLen bytes on
// this end's send ring without blocking. It fails with Code TOOBIG if the
// frame could never fit the ring regardless of occupancy, Code BUSY if the
// ring is merely full right now, or Code CLOSED if the channel has been
// deleted.
func (c *Channel) TryReserve(payloadLen uint32) (*Reservation, error) {
	if c.Closed() {
		return nil, NewChannelError("TryReserve", c.name, CLOSED, "channel is closed")
	}
	res, err := c.txRing().TryPush(payloadLen)
	if err != nil {
		return nil, WrapError("TryReserve", c.name, err)
	}
	return &Reservation{inner: res}, nil
}

// Reserve reserves room for a frame carrying up to payloadLen bytes,
// blocking indefinitely until there is room or the channel is closed.
func (c *Channel) Reserve(payloadLen uint32) (*Reservation, error) {
	return c.reserveUntil(payloadLen, 0)
}

// ReserveUntil is like Reserve but gives up after timeout, returning a
// Code TIMEOUT error.
func (c *Channel) ReserveUntil(payloadLen uint32, timeout time.Duration) (*Reservation, error) {
	return c.reserveUntil(payloadLen, timeout)
}

func (c *Channel) reserveUntil(payloadLen uint32, timeout time.Duration) (*Reservation, error) {
	res, _, err := c.reserveUntilTracked(payloadLen, timeout)
	return res, err
}

// reserveUntilTracked is reserveUntil plus whether the call actually had to
// block at least once, for metrics.
func (c *Channel) reserveUntilTracked(payloadLen uint32, timeout time.Duration) (*Reservation, bool, error) {
	deadline := deadlineFor(timeout)
	blocked := false

	for {
		res, err := c.TryReserve(payloadLen)
		if err == nil {
			return res, blocked, nil
		}
		if !IsCode(err, BUSY) {
			return nil, blocked, err
		}

		blocked = true
		waitFor, expired := nextWaitSlice(deadline)
		if expired {
			return nil, blocked, NewChannelError("Reserve", c.name, TIMEOUT, "timed out waiting for send space")
		}

		if werr := c.txRing().WaitForSpace(payloadLen, waitFor); werr != nil {
			if ce, ok := werr.(*codes.Err); ok && ce.Code == codes.TIMEOUT {
				continue // bounded indefinite-wait slice elapsed; re-check and keep waiting
			}
			return nil, blocked, WrapError("Reserve", c.name, werr)
		}
	}
}

// TryPush copies payload onto this end's send ring without blocking. It is
// a convenience over TryReserve/Commit for callers that don't need
// zero-copy access.
func (c *Channel) TryPush(payload []byte) error {
	res, err := c.TryReserve(uint32(len(payload)))
	if err != nil {
		return err
	}
	writeSpans(res.Spans(), payload)
	return res.Commit(uint32(len(payload)))
}

// Push copies payload onto this end's send ring, blocking indefinitely
// until there is room or the channel is closed.
func (c *Channel) Push(payload []byte) error {
	return c.pushUntil(payload, 0)
}

// PushUntil is like Push but gives up after timeout, returning a Code
// TIMEOUT error.
func (c *Channel) PushUntil(payload []byte, timeout time.Duration) error {
	return c.pushUntil(payload, timeout)
}

func (c *Channel) pushUntil(payload []byte, timeout time.Duration) error {
	start := time.Now()
	res, blocked, err := c.reserveUntilTracked(uint32(len(payload)), timeout)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordPush(uint64(len(payload)), uint64(time.Since(start)), blocked, false)
		}
		return err
	}
	writeSpans(res.Spans(), payload)
	commitErr := res.Commit(uint32(len(payload)))
	if c.metrics != nil {
		c.metrics.RecordPush(uint64(len(payload)), uint64(time.Since(start)), blocked, commitErr == nil)
	}
	return commitErr
}

func writeSpans(spans [][]byte, src []byte) {
	off := 0
	for _, s := range spans {
		n := copy(s, src[off:])
		off += n
	}
}

// deadlineFor returns the zero Time for an indefinite wait (timeout <= 0),
// or now+timeout otherwise.
func deadlineFor(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

// nextWaitSlice returns how long the next single wait call should block
// for: the remaining time until deadline, capped at
// constants.IndefiniteWaitSlice so an indefinite wait still periodically
// re-checks its condition. expired is true if deadline has already
// passed.
func nextWaitSlice(deadline time.Time) (d time.Duration, expired bool) {
	if deadline.IsZero() {
		return constants.IndefiniteWaitSlice, false
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0, true
	}
	if remaining > constants.IndefiniteWaitSlice {
		return constants.IndefiniteWaitSlice, false
	}
	return remaining, false
}
