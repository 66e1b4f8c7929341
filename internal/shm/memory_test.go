package shm

import "testing"

func TestMemorySegmentCreateOpen(t *testing.T) {
	name := "test-channel-1"
	t.Cleanup(func() { UnlinkInMemory(name) })

	creator, err := CreateInMemory(name, 128)
	if err != nil {
		t.Fatalf("CreateInMemory: %v", err)
	}
	if len(creator.Bytes()) != 128 {
		t.Fatalf("len = %d, want 128", len(creator.Bytes()))
	}

	_, err = CreateInMemory(name, 128)
	if err != ErrAlreadyExists {
		t.Fatalf("second CreateInMemory: got %v, want ErrAlreadyExists", err)
	}

	attacher, err := OpenInMemory(name)
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}

	creator.Bytes()[0] = 0xAB
	if attacher.Bytes()[0] != 0xAB {
		t.Fatal("attacher does not see creator's write: segments are not aliased")
	}
}

func TestMemorySegmentOpenMissing(t *testing.T) {
	_, err := OpenInMemory("does-not-exist")
	if err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
