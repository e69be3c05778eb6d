package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"
)

type countingNotifier struct {
	count atomic.Int64
}

func (n *countingNotifier) Notify(context.Context, Notification) {
	n.count.Add(1)
}

type gateNotifier struct {
	gate chan struct{}
}

func (n *gateNotifier) Notify(context.Context, Notification) {
	<-n.gate
}

func TestNotifyDispatcherInline(t *testing.T) {
	sink := &countingNotifier{}
	d := newNotifyDispatcher(NotifyConfig{}, sink)
	defer d.Close()

	d.Notify(context.Background(), Notification{Kind: NotifyForbidden})
	if got := sink.count.Load(); got != 1 {
		t.Fatalf("expected inline delivery, got %d", got)
	}
}

func TestNotifyDispatcherAsyncFlushesOnClose(t *testing.T) {
	sink := &countingNotifier{}
	d := newNotifyDispatcher(NotifyConfig{Async: true, BufferSize: 16}, sink)

	for i := 0; i < 10; i++ {
		d.Notify(context.Background(), Notification{Kind: NotifyNetwork})
	}
	d.Close()

	if got := sink.count.Load(); got != 10 {
		t.Fatalf("expected 10 delivered after close, got %d", got)
	}

	d.Notify(context.Background(), Notification{Kind: NotifyNetwork})
	if got := sink.count.Load(); got != 10 {
		t.Fatalf("expected no delivery after close, got %d", got)
	}
}

func TestNotifyDispatcherDropIfFull(t *testing.T) {
	sink := &gateNotifier{gate: make(chan struct{})}
	d := newNotifyDispatcher(NotifyConfig{Async: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 20; i++ {
		d.Notify(context.Background(), Notification{Kind: NotifyServerError})
	}

	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped notifications with a blocked sink")
	}

	close(sink.gate)
	d.Close()
}

func TestNotifyDispatcherBlockingRespectsContext(t *testing.T) {
	sink := &gateNotifier{gate: make(chan struct{})}
	d := newNotifyDispatcher(NotifyConfig{Async: true, BufferSize: 1}, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.Notify(ctx, Notification{Kind: NotifyServerError})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("blocking notify did not honor context")
	}

	close(sink.gate)
	d.Close()
}

func TestJSONWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewJSONWriterNotifier(&buf)
	n.Notify(context.Background(), Notification{Kind: NotifyForbidden, Message: "no", StatusCode: 403})

	var got Notification
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != NotifyForbidden || got.StatusCode != 403 {
		t.Fatalf("unexpected notification %+v", got)
	}
}

func TestChannelNotifier(t *testing.T) {
	n := NewChannelNotifier(1)
	n.Notify(context.Background(), Notification{Kind: NotifyNotFound})

	select {
	case ev := <-n.Events():
		if ev.Kind != NotifyNotFound {
			t.Fatalf("unexpected kind %q", ev.Kind)
		}
	default:
		t.Fatal("expected buffered notification")
	}
}
