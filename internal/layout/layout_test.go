package layout

import "testing"

func TestFrameSize(t *testing.T) {
	cases := []struct {
		payload uint32
		want    uint32
	}{
		{0, 4},
		{1, 8},
		{3, 8},
		{4, 8},
		{5, 12},
		{12, 16},
	}
	for _, c := range cases {
		if got := FrameSize(c.payload); got != c.want {
			t.Errorf("FrameSize(%d) = %d, want %d", c.payload, got, c.want)
		}
	}
}

func TestAlignUp(t *testing.T) {
	if got := AlignUp(0, Align); got != 0 {
		t.Errorf("AlignUp(0) = %d, want 0", got)
	}
	if got := AlignUp(1, Align); got != 4 {
		t.Errorf("AlignUp(1) = %d, want 4", got)
	}
	if got := AlignUp(4, Align); got != 4 {
		t.Errorf("AlignUp(4) = %d, want 4", got)
	}
}

func TestDescriptorView(t *testing.T) {
	buf := make([]byte, DescriptorSize)
	d := DescriptorView(buf)
	d.RegionSize = 123
	d.Ident = 99
	d.Closed = 1

	// A second view over the same bytes observes the writes.
	d2 := DescriptorView(buf)
	if d2.RegionSize != 123 || d2.Ident != 99 || d2.Closed != 1 {
		t.Fatalf("view did not alias underlying buffer: %+v", *d2)
	}
}

func TestRingHeaderView(t *testing.T) {
	buf := make([]byte, RingHeaderSize+16)
	h := RingHeaderView(buf)
	h.Size = 16
	h.Head = 4
	h.Tail = 8
	h.Used = 4
	h.Need = 0

	h2 := RingHeaderView(buf)
	if *h2 != *h {
		t.Fatalf("view mismatch: %+v vs %+v", *h, *h2)
	}
}

func TestLengthPrefixRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	PutLengthPrefix(buf, 0xdeadbeef)
	if got := LengthPrefix(buf); got != 0xdeadbeef {
		t.Errorf("LengthPrefix round trip = %#x, want %#x", got, 0xdeadbeef)
	}
}

func TestRingPayloadRegionSize(t *testing.T) {
	if got := RingPayloadRegionSize(64); got != RingHeaderSize+64 {
		t.Errorf("RingPayloadRegionSize(64) = %d, want %d", got, RingHeaderSize+64)
	}
}
