//go:build linux || darwin

package shm

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Shared regions are backed by a regular file under a fixed directory
// rather than the platform's native shm_open namespace: unix.Mmap (unlike
// shm_open) is uniformly available via golang.org/x/sys/unix on both
// Linux and Darwin, and a file under os.TempDir() gives the same
// cross-process MAP_SHARED semantics without needing cgo or per-OS shm
// syscall wrappers. See DESIGN.md.
func backingPath(name string) string {
	return filepath.Join(os.TempDir(), "shmchan-"+name)
}

type unixSegment struct {
	file *os.File
	data []byte
}

func createNamed(name string, size uint32) (Segment, error) {
	path := backingPath(name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("shm: create %s: %w", name, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("shm: truncate %s: %w", name, err)
	}
	return mapFile(f, int(size))
}

func openNamed(name string) (Segment, error) {
	path := backingPath(name)
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("shm: open %s: %w", name, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: stat %s: %w", name, err)
	}
	return mapFile(f, int(fi.Size()))
}

func mapFile(f *os.File, size int) (Segment, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap: %w", err)
	}
	return &unixSegment{file: f, data: data}, nil
}

func (s *unixSegment) Bytes() []byte {
	return s.data
}

func (s *unixSegment) Close() error {
	err := unix.Munmap(s.data)
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func unlinkNamed(name string) error {
	if err := os.Remove(backingPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("shm: unlink %s: %w", name, err)
	}
	return nil
}
