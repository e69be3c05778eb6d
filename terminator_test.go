package authclient

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrEthical07/authclient/credstore"
)

func newTestTerminator(store credstore.Store, notes Notifier, nav Navigator) *sessionTerminator {
	return &sessionTerminator{
		creds:     &credentials{store: store, log: quietLogger()},
		notify:    newNotifyDispatcher(NotifyConfig{}, notes),
		navigator: nav,
		metrics:   NewMetrics(MetricsConfig{Enabled: true}),
		log:       quietLogger(),
	}
}

func TestTerminateOncePerCycle(t *testing.T) {
	store := credstore.NewMemory()
	_ = store.SetMany(context.Background(), map[string]string{
		credstore.KeyAccessToken:  "a",
		credstore.KeyRefreshToken: "r",
		credstore.KeyUser:         "{}",
	})
	notes := &recordingNotifier{}
	nav := &countingNavigator{}
	term := newTestTerminator(store, notes, nav)

	const n = 8
	var wg sync.WaitGroup
	var fired sync.Map
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if term.Terminate(context.Background(), 1, errors.New("refresh failed")) {
				fired.Store(i, true)
			}
		}(i)
	}
	wg.Wait()

	count := 0
	fired.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != 1 {
		t.Fatalf("expected exactly one termination, got %d", count)
	}
	if store.Len() != 0 {
		t.Fatalf("expected cleared store, %d keys left", store.Len())
	}
	if got := notes.Count(NotifySessionExpired); got != 1 {
		t.Fatalf("expected one session_expired notification, got %d", got)
	}
	if got := nav.Count(); got != 1 {
		t.Fatalf("expected one redirect, got %d", got)
	}
	if got := term.metrics.Value(MetricSessionTerminated); got != 1 {
		t.Fatalf("expected terminated counter 1, got %d", got)
	}
}

func TestTerminateIgnoresOlderCycles(t *testing.T) {
	nav := &countingNavigator{}
	term := newTestTerminator(credstore.NewMemory(), NoOpNotifier{}, nav)

	if !term.Terminate(context.Background(), 3, nil) {
		t.Fatal("first termination must fire")
	}
	if term.Terminate(context.Background(), 2, nil) {
		t.Fatal("older cycle must not fire")
	}
	if !term.Terminate(context.Background(), 4, nil) {
		t.Fatal("newer cycle must fire")
	}
	if got := nav.Count(); got != 2 {
		t.Fatalf("expected two redirects, got %d", got)
	}
}

func TestTerminateSurvivesCancelledContext(t *testing.T) {
	notes := NewChannelNotifier(1)
	term := newTestTerminator(credstore.NewMemory(), notes, NoOpNavigator{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	term.Terminate(ctx, 1, nil)

	select {
	case ev := <-notes.Events():
		if ev.Kind != NotifySessionExpired {
			t.Fatalf("unexpected kind %q", ev.Kind)
		}
	default:
		t.Fatal("notification lost on cancelled context")
	}
}
