package shmchan

import (
	"testing"
	"time"
)

func TestTryPushTryPop(t *testing.T) {
	pair, err := Loopback(WithCapacity(256))
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	if err := pair.Creator.TryPush([]byte("abc")); err != nil {
		t.Fatalf("TryPush failed: %v", err)
	}

	received, err := pair.Attacher.TryPop()
	if err != nil {
		t.Fatalf("TryPop failed: %v", err)
	}
	if string(received.Bytes()) != "abc" {
		t.Errorf("expected abc, got %q", received.Bytes())
	}
	if err := received.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func TestTryPopEmptyReturnsBusy(t *testing.T) {
	pair, err := Loopback()
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	_, err = pair.Attacher.TryPop()
	if err == nil {
		t.Fatal("expected TryPop on empty ring to fail")
	}
	if !IsCode(err, BUSY) {
		t.Errorf("expected BUSY, got %v", err)
	}
}

func TestTryReserveTooBig(t *testing.T) {
	pair, err := Loopback(WithCapacity(32))
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	_, err = pair.Creator.TryReserve(10_000)
	if err == nil {
		t.Fatal("expected oversized reserve to fail")
	}
	if !IsCode(err, TOOBIG) {
		t.Errorf("expected TOOBIG, got %v", err)
	}
}

func TestPushFillsThenBlocksThenDrains(t *testing.T) {
	pair, err := Loopback(WithCapacity(64))
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	// Fill the ring until it's full.
	var pushed int
	for {
		if err := pair.Creator.TryPush([]byte("0123456789")); err != nil {
			if IsCode(err, BUSY) {
				break
			}
			t.Fatalf("unexpected push error: %v", err)
		}
		pushed++
		if pushed > 1000 {
			t.Fatal("ring never reported BUSY; capacity accounting is broken")
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- pair.Creator.Push([]byte("overflow"))
	}()

	// Drain one frame; the blocked push should then be able to proceed.
	received, err := pair.Attacher.Pop()
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	received.Commit()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("blocked Push failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Push never woke up after space freed")
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	pair, err := Loopback()
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	done := make(chan *Received, 1)
	go func() {
		res, err := pair.Attacher.Pop()
		if err != nil {
			done <- nil
			return
		}
		done <- res
	}()

	time.Sleep(20 * time.Millisecond) // give the pop a chance to block
	if err := pair.Creator.Push([]byte("woken")); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	select {
	case res := <-done:
		if res == nil {
			t.Fatal("blocked Pop returned an error")
		}
		if string(res.Bytes()) != "woken" {
			t.Errorf("expected woken, got %q", res.Bytes())
		}
		res.Commit()
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Pop never woke up after push")
	}
}

func TestPushUntilTimeout(t *testing.T) {
	pair, err := Loopback(WithCapacity(32))
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	for {
		if err := pair.Creator.TryPush([]byte("x")); err != nil {
			break
		}
	}

	err = pair.Creator.PushUntil([]byte("y"), 30*time.Millisecond)
	if err == nil {
		t.Fatal("expected PushUntil to time out")
	}
	if !IsCode(err, TIMEOUT) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}

func TestPopUntilTimeout(t *testing.T) {
	pair, err := Loopback()
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	_, err = pair.Attacher.PopUntil(30 * time.Millisecond)
	if err == nil {
		t.Fatal("expected PopUntil to time out")
	}
	if !IsCode(err, TIMEOUT) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}

func TestPushAfterCloseFails(t *testing.T) {
	pair, err := Loopback()
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Attacher.Close()

	if err := pair.Creator.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	err = pair.Creator.TryPush([]byte("too late"))
	if err == nil {
		t.Fatal("expected push after Delete to fail")
	}
	if !IsCode(err, CLOSED) {
		t.Errorf("expected CLOSED, got %v", err)
	}
}

func TestZeroCopyReserveCommitPartial(t *testing.T) {
	pair, err := Loopback(WithCapacity(128))
	if err != nil {
		t.Fatalf("Loopback failed: %v", err)
	}
	defer pair.Close()

	res, err := pair.Creator.TryReserve(16)
	if err != nil {
		t.Fatalf("TryReserve failed: %v", err)
	}
	spans := res.Spans()
	n := copy(spans[0], "short")
	if err := res.Commit(uint32(n)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	received, err := pair.Attacher.TryPop()
	if err != nil {
		t.Fatalf("TryPop failed: %v", err)
	}
	if string(received.Bytes()) != "short" {
		t.Errorf("expected short, got %q", received.Bytes())
	}
	received.Commit()
}
