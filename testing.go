package shmchan

import (
	"fmt"
	"sync/atomic"

	"github.com/behrlich/shmchan/internal/shm"
	"github.com/behrlich/shmchan/internal/wait"
)

// loopbackCounter gives each Loopback call a unique in-process channel
// name, so concurrent tests don't collide in the shared in-memory shm
// registry.
var loopbackCounter atomic.Uint64

// Pair is a connected creator/attacher Channel pair produced by Loopback.
type Pair struct {
	Creator  *Channel
	Attacher *Channel
}

// Close closes both ends. The creator additionally deletes the channel, so
// a Loopback-created name never lingers in the in-process registry between
// tests.
func (p *Pair) Close() error {
	attacherErr := p.Attacher.Close()
	deleteErr := p.Creator.Delete()
	if deleteErr != nil {
		return deleteErr
	}
	return attacherErr
}

// Loopback creates a connected creator/attacher Channel pair entirely
// in-process: the shared region is a plain Go byte slice instead of an OS
// mapping, and blocking waits use an in-process sync.Cond instead of a
// real futex/WaitOnAddress call. It exercises the exact same ring and
// channel-handshake code a cross-process pair would, which is what makes
// it useful for unit tests; it is not a substitute for an end-to-end test
// across two real processes.
func Loopback(opts ...Option) (*Pair, error) {
	name := fmt.Sprintf("loopback-%d", loopbackCounter.Add(1))
	waiter := wait.NewMemoryAdapter()

	sf := segmentFuncs{
		create: shm.CreateInMemory,
		open:   shm.OpenInMemory,
		unlink: shm.UnlinkInMemory,
	}

	allOpts := append([]Option{withWaiter(waiter)}, opts...)

	creator, err := newChannel(name, sf, allOpts...)
	if err != nil {
		return nil, err
	}
	attacher, err := openChannel(name, sf, allOpts...)
	if err != nil {
		creator.Delete()
		return nil, err
	}
	return &Pair{Creator: creator, Attacher: attacher}, nil
}
