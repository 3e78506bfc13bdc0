package event

import (
	"testing"
	"time"
)

type testEvent int

func TestTypeMuxSubscribePost(t *testing.T) {
	mux := NewTypeMux()
	sub := mux.Subscribe(testEvent(0))
	defer sub.Unsubscribe()

	// Post blocks until the subscriber receives, so it runs on its own
	// goroutine while this one reads.
	errc := make(chan error, 1)
	go func() { errc <- mux.Post(testEvent(5)) }()

	select {
	case ev := <-sub.Chan():
		if ev.(testEvent) != 5 {
			t.Fatalf("got %v, want 5", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	if err := <-errc; err != nil {
		t.Fatalf("post failed: %v", err)
	}
}

func TestTypeMuxStopRejectsPost(t *testing.T) {
	mux := NewTypeMux()
	mux.Stop()

	if err := mux.Post(testEvent(1)); err != ErrMuxClosed {
		t.Fatalf("got %v, want ErrMuxClosed", err)
	}
}

func TestTypeMuxUnsubscribeClosesChannel(t *testing.T) {
	mux := NewTypeMux()
	sub := mux.Subscribe(testEvent(0))
	sub.Unsubscribe()

	select {
	case _, ok := <-sub.Chan():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
