package shm

import "sync"

// memoryRegistry backs MemorySegment: a process-wide table of named byte
// slices, used by the root package's Loopback test helper so a creator and
// attacher within the same process can exercise the exact same channel
// code path that two real processes would, without mapping real OS shared
// memory.
var (
	registryMu sync.Mutex
	registry   = map[string][]byte{}
)

type memorySegment struct {
	name string
	data []byte
}

// CreateInMemory behaves like Create but registers the region in an
// in-process table instead of the OS, for tests.
func CreateInMemory(name string, size uint32) (Segment, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return nil, ErrAlreadyExists
	}
	data := make([]byte, size)
	registry[name] = data
	return &memorySegment{name: name, data: data}, nil
}

// OpenInMemory behaves like Open but looks the region up in the in-process
// table populated by CreateInMemory.
func OpenInMemory(name string) (Segment, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	data, ok := registry[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &memorySegment{name: name, data: data}, nil
}

// UnlinkInMemory removes name from the in-process table.
func UnlinkInMemory(name string) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
	return nil
}

func (s *memorySegment) Bytes() []byte { return s.data }
func (s *memorySegment) Close() error  { return nil }
