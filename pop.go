package shmchan

import (
	"time"

	"github.com/behrlich/shmchan/internal/codes"
)

// TryPop returns the oldest unread frame on this end's receive ring
// without blocking. It fails with Code BUSY if the ring is currently
// empty, or Code CLOSED if the channel has been deleted and the ring is
// empty (a final already-queued frame is still returned even after
// Delete).
func (c *Channel) TryPop() (*Received, error) {
	res, err := c.rxRing().TryPop()
	if err != nil {
		if ce, ok := err.(*codes.Err); ok && ce.Code == codes.BUSY && c.Closed() {
			return nil, NewChannelError("TryPop", c.name, CLOSED, "channel is closed")
		}
		return nil, WrapError("TryPop", c.name, err)
	}
	return &Received{inner: res}, nil
}

// Pop returns the oldest unread frame on this end's receive ring, blocking
// indefinitely until one is available or the channel is closed.
func (c *Channel) Pop() (*Received, error) {
	return c.popUntil(0)
}

// PopUntil is like Pop but gives up after timeout, returning a Code
// TIMEOUT error.
func (c *Channel) PopUntil(timeout time.Duration) (*Received, error) {
	return c.popUntil(timeout)
}

func (c *Channel) popUntil(timeout time.Duration) (*Received, error) {
	start := time.Now()
	res, blocked, err := c.popUntilTracked(timeout)
	if c.metrics != nil {
		n := uint64(0)
		if res != nil {
			n = uint64(res.Len())
		}
		c.metrics.RecordPop(n, uint64(time.Since(start)), blocked, err == nil)
	}
	return res, err
}

func (c *Channel) popUntilTracked(timeout time.Duration) (*Received, bool, error) {
	deadline := deadlineFor(timeout)
	blocked := false

	for {
		res, err := c.TryPop()
		if err == nil {
			return res, blocked, nil
		}
		if !IsCode(err, BUSY) {
			return nil, blocked, err
		}

		blocked = true
		waitFor, expired := nextWaitSlice(deadline)
		if expired {
			return nil, blocked, NewChannelError("Pop", c.name, TIMEOUT, "timed out waiting for data")
		}

		if werr := c.rxRing().WaitForData(waitFor); werr != nil {
			if ce, ok := werr.(*codes.Err); ok && ce.Code == codes.TIMEOUT {
				continue
			}
			return nil, blocked, WrapError("Pop", c.name, werr)
		}
	}
}
