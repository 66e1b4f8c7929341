//go:build linux || darwin

package shm

import "testing"

func TestCreateOpenUnlink(t *testing.T) {
	name := "shmchan-test-unix-1"
	t.Cleanup(func() { Unlink(name) })

	creator, err := Create(name, 4096)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer creator.Close()

	if len(creator.Bytes()) != 4096 {
		t.Fatalf("len = %d, want 4096", len(creator.Bytes()))
	}

	_, err = Create(name, 4096)
	if err != ErrAlreadyExists {
		t.Fatalf("second Create: got %v, want ErrAlreadyExists", err)
	}

	opener, err := Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer opener.Close()

	creator.Bytes()[10] = 0x42
	if opener.Bytes()[10] != 0x42 {
		t.Fatal("mapping is not shared between creator and opener")
	}

	if err := Unlink(name); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if _, err := Open(name); err != ErrNotFound {
		t.Fatalf("Open after Unlink: got %v, want ErrNotFound", err)
	}
}
