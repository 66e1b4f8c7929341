// Package shmchan implements a named, bidirectional, single-producer/
// single-consumer shared-memory message channel between two cooperating
// processes: one creates the channel and is attached to by exactly one
// other. Each direction is an independent length-prefixed ring buffer;
// blocking sends and receives are coordinated with a futex-style
// wait-on-address primitive instead of polling, so both processes sleep
// until there is genuinely something to do.
package shmchan

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/behrlich/shmchan/internal/layout"
	"github.com/behrlich/shmchan/internal/logging"
	"github.com/behrlich/shmchan/internal/ring"
	"github.com/behrlich/shmchan/internal/shm"
	"github.com/behrlich/shmchan/internal/wait"
)

// Channel is one end of a bidirectional shared-memory connection. A Channel
// obtained from New is the creator's end; one obtained from Open is the
// attacher's end. Exactly one creator and one attacher may hold a live
// Channel for a given name at a time.
type Channel struct {
	name    string
	seg     shm.Segment
	desc    *layout.ChannelDescriptor
	net     *ring.Ring // creator -> attacher
	host    *ring.Ring // attacher -> creator
	creator bool
	waiter  wait.Adapter
	log     *logging.Logger
	metrics *Metrics
	segFn   segmentFuncs // injected by Loopback for in-process testing
}

// segmentFuncs lets Loopback substitute the in-memory shm backend without
// every other Channel method needing to know about it.
type segmentFuncs struct {
	create func(name string, size uint32) (shm.Segment, error)
	open   func(name string) (shm.Segment, error)
	unlink func(name string) error
}

func defaultSegmentFuncs() segmentFuncs {
	return segmentFuncs{create: shm.Create, open: shm.Open, unlink: shm.Unlink}
}

// New creates a fresh named channel and returns the creator's end. The name
// must not already be in use; ErrAlreadyExists (via Code BUSY) is returned
// otherwise.
func New(name string, opts ...Option) (*Channel, error) {
	return newChannel(name, defaultSegmentFuncs(), opts...)
}

func newChannel(name string, sf segmentFuncs, opts ...Option) (*Channel, error) {
	p := defaultParams()
	for _, o := range opts {
		o(&p)
	}

	netSize := layout.RingPayloadRegionSize(p.NetCapacity)
	hostSize := layout.RingPayloadRegionSize(p.HostCapacity)
	regionSize := layout.DescriptorSize + netSize + hostSize

	seg, err := sf.create(name, regionSize)
	if err != nil {
		if errors.Is(err, shm.ErrAlreadyExists) {
			return nil, &Error{Op: "New", Channel: name, Code: BUSY, Msg: err.Error(), Inner: err}
		}
		return nil, WrapError("New", name, err)
	}

	buf := seg.Bytes()
	desc := layout.DescriptorView(buf)
	desc.RegionSize = regionSize
	desc.CreatorPID = uint32(os.Getpid())
	desc.AttacherPID = 0
	desc.Ident = p.Ident
	desc.NetCapacity = p.NetCapacity
	desc.HostCapacity = p.HostCapacity
	atomic.StoreUint32(&desc.Closed, 0)

	waiter := p.waiterOverride
	if waiter == nil {
		waiter = wait.Default()
	}

	netRegion := buf[layout.DescriptorSize : layout.DescriptorSize+netSize]
	hostRegion := buf[layout.DescriptorSize+netSize : layout.DescriptorSize+netSize+hostSize]

	c := &Channel{
		name:    name,
		seg:     seg,
		desc:    desc,
		net:     ring.Init(netRegion, p.NetCapacity, waiter),
		host:    ring.Init(hostRegion, p.HostCapacity, waiter),
		creator: true,
		waiter:  waiter,
		log:     p.logger.WithRole("creator").WithFields("channel", name),
		metrics: p.metrics,
		segFn:   sf,
	}
	c.log.Info("channel created", "ident", p.Ident, "net_capacity", p.NetCapacity, "host_capacity", p.HostCapacity)
	return c, nil
}

// Open attaches to an existing named channel created by New, and returns
// the attacher's end. Fails with Code BUSY if another attacher already
// claimed it, or Code CLOSED if the channel does not exist.
func Open(name string, opts ...Option) (*Channel, error) {
	return openChannel(name, defaultSegmentFuncs(), opts...)
}

func openChannel(name string, sf segmentFuncs, opts ...Option) (*Channel, error) {
	p := defaultParams()
	for _, o := range opts {
		o(&p)
	}

	seg, err := sf.open(name)
	if err != nil {
		if errors.Is(err, shm.ErrNotFound) {
			return nil, &Error{Op: "Open", Channel: name, Code: CLOSED, Msg: err.Error(), Inner: err}
		}
		return nil, WrapError("Open", name, err)
	}

	buf := seg.Bytes()
	desc := layout.DescriptorView(buf)

	if atomic.LoadUint32(&desc.Closed) != 0 {
		seg.Close()
		return nil, NewChannelError("Open", name, CLOSED, "channel has been deleted")
	}

	// A creator's New reserves the region (Create/Truncate) before it
	// stamps the descriptor into it, so a concurrent Open can observe a
	// correctly-sized but still-zeroed descriptor: RegionSize and
	// CreatorPID are both still 0, every field reads as "fits" because
	// nothing has been written yet, and proceeding would build zero-
	// capacity rings that panic on their first modulo. Reject that window
	// explicitly instead of trusting the Closed check alone.
	if desc.RegionSize != uint32(len(buf)) || desc.CreatorPID == 0 {
		seg.Close()
		return nil, NewChannelError("Open", name, BUSY, "channel is still being initialized by its creator")
	}

	self := uint32(os.Getpid())
	if !atomic.CompareAndSwapUint32(&desc.AttacherPID, 0, self) {
		seg.Close()
		return nil, NewChannelError("Open", name, BUSY, "channel already has an attacher")
	}

	waiter := p.waiterOverride
	if waiter == nil {
		waiter = wait.Default()
	}

	netSize := layout.RingPayloadRegionSize(desc.NetCapacity)
	hostSize := layout.RingPayloadRegionSize(desc.HostCapacity)
	netRegion := buf[layout.DescriptorSize : layout.DescriptorSize+netSize]
	hostRegion := buf[layout.DescriptorSize+netSize : layout.DescriptorSize+netSize+hostSize]

	c := &Channel{
		name:    name,
		seg:     seg,
		desc:    desc,
		net:     ring.New(netRegion, waiter),
		host:    ring.New(hostRegion, waiter),
		creator: false,
		waiter:  waiter,
		log:     p.logger.WithRole("attacher").WithFields("channel", name),
		metrics: p.metrics,
		segFn:   sf,
	}
	c.log.Info("channel attached")
	return c, nil
}

// Name returns the channel's name.
func (c *Channel) Name() string { return c.name }

// Ident returns the creator-chosen opaque tag stamped at creation time.
func (c *Channel) Ident() uint32 { return c.desc.Ident }

// SelfPID returns this process's OS process id as recorded in the
// descriptor.
func (c *Channel) SelfPID() uint32 {
	if c.creator {
		return c.desc.CreatorPID
	}
	return atomic.LoadUint32(&c.desc.AttacherPID)
}

// PeerPID returns the peer's OS process id, or 0 if no attacher has
// claimed the channel yet.
func (c *Channel) PeerPID() uint32 {
	if c.creator {
		return atomic.LoadUint32(&c.desc.AttacherPID)
	}
	return c.desc.CreatorPID
}

// IsCreator reports whether this Channel is the end that called New.
func (c *Channel) IsCreator() bool { return c.creator }

// IsAttacher reports whether this Channel is the end that called Open.
func (c *Channel) IsAttacher() bool { return !c.creator }

// Closed reports whether the channel has been torn down by its creator.
func (c *Channel) Closed() bool {
	return atomic.LoadUint32(&c.desc.Closed) != 0
}

// txRing returns the ring this end pushes onto.
func (c *Channel) txRing() *ring.Ring {
	if c.creator {
		return c.net
	}
	return c.host
}

// rxRing returns the ring this end pops from.
func (c *Channel) rxRing() *ring.Ring {
	if c.creator {
		return c.host
	}
	return c.net
}

// TXCapacity returns the capacity, in bytes, of the ring this end sends
// on.
func (c *Channel) TXCapacity() uint32 { return c.txRing().Capacity() }

// RXCapacity returns the capacity, in bytes, of the ring this end receives
// on.
func (c *Channel) RXCapacity() uint32 { return c.rxRing().Capacity() }

// TXUsed returns the number of bytes currently occupied in the send ring.
func (c *Channel) TXUsed() uint32 { return c.txRing().Used() }

// RXUsed returns the number of bytes currently occupied in the receive
// ring, i.e. how much is available to pop.
func (c *Channel) RXUsed() uint32 { return c.rxRing().Used() }

// TXNeed returns the raw deficit counter of this end's send ring: the
// deficit recorded by the last rejected push, minus the frame sizes popped
// since. Read as an int32 it is zero or negative once that deficit has
// been met, and also after pops with no rejected push outstanding.
func (c *Channel) TXNeed() uint32 { return c.txRing().Need() }

// Close releases this end's local resources (unmapping the shared region)
// without affecting the peer or the channel's name. The attacher calls
// Close when done; the creator calls either Close, which leaves the
// channel in place, or Delete, which removes the channel and unmaps the
// region itself, so Close is not called after it.
func (c *Channel) Close() error {
	c.log.Debug("channel closed locally")
	return c.seg.Close()
}

// Delete is the creator-only teardown: it marks the channel closed (waking
// any peer blocked in Push/Pop so it observes CLOSED instead of hanging
// forever), removes the channel's name so no further Open can find it, and
// unmaps this end's view of the region. Calling Delete from an attacher's
// Channel returns an INVALID error.
func (c *Channel) Delete() error {
	if !c.creator {
		return NewChannelError("Delete", c.name, INVALID, "only the creator may delete a channel")
	}

	atomic.StoreUint32(&c.desc.Closed, 1)
	c.net.WakeAll()
	c.host.WakeAll()

	if err := c.segFn.unlink(c.name); err != nil {
		c.log.WithError(err).Warn("unlink failed during delete")
	}
	c.log.Info("channel deleted")
	return c.seg.Close()
}

// CleanupHost clears a stale attacher PID from a named channel's
// descriptor without deleting the channel, for a creator that observed its
// previous attacher crash and wants to allow a new one to attach. It is
// the caller's responsibility to be sure no live attacher is still using
// the channel; calling this while one is would let two attachers race.
func CleanupHost(name string) error {
	seg, err := shm.Open(name)
	if err != nil {
		return WrapError("CleanupHost", name, err)
	}
	defer seg.Close()

	desc := layout.DescriptorView(seg.Bytes())
	atomic.StoreUint32(&desc.AttacherPID, 0)
	return nil
}

// Unlink removes a channel's name without mapping it, for cleaning up
// after a creator that exited without calling Delete.
func Unlink(name string) error {
	if err := shm.Unlink(name); err != nil {
		return WrapError("Unlink", name, err)
	}
	return nil
}
