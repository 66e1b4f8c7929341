package shmchan

import "testing"

func TestReservationAbandon(t *testing.T) {
	pair, err := Loopback(WithCapacity(64))
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	before := pair.Creator.TXUsed()

	res, err := pair.Creator.TryReserve(8)
	if err != nil {
		t.Fatalf("TryReserve failed: %v", err)
	}
	res.Abandon()

	if pair.Creator.TXUsed() != before {
		t.Errorf("expected TXUsed unchanged after Abandon, before=%d after=%d", before, pair.Creator.TXUsed())
	}

	_, err = pair.Attacher.TryPop()
	if !IsCode(err, BUSY) {
		t.Errorf("expected no frame to be visible after Abandon, got %v", err)
	}
}

func TestReceivedBytesJoinsWrappedSpans(t *testing.T) {
	pair, err := Loopback(WithCapacity(32))
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	// Push and pop a few frames to walk the write/read cursors near the
	// end of the ring, then push one more frame so it's forced to wrap.
	for i := 0; i < 3; i++ {
		if err := pair.Creator.TryPush([]byte("1234567890")); err != nil {
			t.Fatalf("push %d failed: %v", i, err)
		}
		res, err := pair.Attacher.TryPop()
		if err != nil {
			t.Fatalf("pop %d failed: %v", i, err)
		}
		res.Commit()
	}

	payload := []byte("wraparoundpayload!!")
	if err := pair.Creator.TryPush(payload); err != nil {
		t.Fatalf("final push failed: %v", err)
	}

	received, err := pair.Attacher.TryPop()
	if err != nil {
		t.Fatalf("final pop failed: %v", err)
	}
	defer received.Commit()

	if string(received.Bytes()) != string(payload) {
		t.Errorf("expected %q, got %q", payload, received.Bytes())
	}
	if received.Len() != uint32(len(payload)) {
		t.Errorf("expected len %d, got %d", len(payload), received.Len())
	}
}

func TestReservationMaxLen(t *testing.T) {
	pair, err := Loopback(WithCapacity(64))
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	res, err := pair.Creator.TryReserve(12)
	if err != nil {
		t.Fatalf("TryReserve failed: %v", err)
	}
	if res.MaxLen() != 12 {
		t.Errorf("expected MaxLen 12, got %d", res.MaxLen())
	}
	res.Abandon()
}
