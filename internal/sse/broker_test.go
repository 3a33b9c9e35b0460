package sse

import (
	"strings"
	"testing"
	"time"
)

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestBroker_PublishReachesSubscribers(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	ch := b.Subscribe()
	b.Publish(Event{Type: "ping", Data: map[string]string{"k": "v"}})

	msg := recv(t, ch)
	if !strings.Contains(msg, "event: ping") || !strings.Contains(msg, `"k":"v"`) {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestBroker_RunEvents(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	ch := b.Subscribe()
	b.RunEvent("run.started", "run-1")
	b.RunEvent("run.completed", "run-1")

	first := recv(t, ch)
	if !strings.Contains(first, "event: run.started") || !strings.Contains(first, `"id":"run-1"`) {
		t.Errorf("unexpected first event: %q", first)
	}
	second := recv(t, ch)
	if !strings.Contains(second, "event: run.completed") {
		t.Errorf("unexpected second event: %q", second)
	}
}

func TestBroker_ProgressThrottled(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	// Ten rapid updates within one throttle window: only the first and the
	// final frame get through.
	for i := 0; i < 10; i++ {
		b.Progress("run-1", i, 10)
	}

	first := recv(t, ch)
	if !strings.Contains(first, `"frame":0`) {
		t.Errorf("first progress = %q", first)
	}
	final := recv(t, ch)
	if !strings.Contains(final, `"frame":9`) {
		t.Errorf("final progress = %q, want frame 9", final)
	}

	select {
	case msg := <-ch:
		t.Errorf("unexpected extra event: %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroker_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	ch := b.Subscribe()
	for b.ClientCount() != 1 {
		time.Sleep(time.Millisecond)
	}
	b.Unsubscribe(ch)
	for b.ClientCount() != 0 {
		time.Sleep(time.Millisecond)
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after unsubscribe")
	}
}

func TestBroker_CloseIsIdempotent(t *testing.T) {
	b := NewBroker(time.Minute)
	ch := b.Subscribe()
	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount after close = %d", n)
	}
	// Publishing after close must not panic or block.
	b.Publish(Event{Type: "ping"})
}
