package authclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authclient/backendtest"
	"github.com/MrEthical07/authclient/credstore"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Notification
}

func (n *recordingNotifier) Notify(_ context.Context, ev Notification) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

func (n *recordingNotifier) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.events...)
}

func (n *recordingNotifier) Count(kind string) int {
	count := 0
	for _, ev := range n.All() {
		if ev.Kind == kind {
			count++
		}
	}
	return count
}

type countingNavigator struct {
	count atomic.Int64
}

func (n *countingNavigator) RedirectToLogin(context.Context, error) {
	n.count.Add(1)
}

func (n *countingNavigator) Count() int64 {
	return n.count.Load()
}

type harness struct {
	server *backendtest.Server
	client *Client
	store  *credstore.Memory
	notes  *recordingNotifier
	nav    *countingNavigator
}

func testUsers() []backendtest.User {
	return []backendtest.User{
		{ID: "u-1", Username: "alice", Password: "correct-horse", Name: "Alice", Email: "alice@example.com", Roles: []string{"admin"}},
	}
}

func newHarness(t *testing.T, opts backendtest.Options, configure ...func(*Config)) *harness {
	t.Helper()

	if opts.Users == nil {
		opts.Users = testUsers()
	}
	srv, err := backendtest.NewServer(opts)
	if err != nil {
		t.Fatalf("start backend: %v", err)
	}
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Backend.BaseURL = srv.URL()
	cfg.Backend.Timeout = 5 * time.Second
	cfg.Refresh.Timeout = 5 * time.Second
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	for _, fn := range configure {
		fn(&cfg)
	}

	h := &harness{
		server: srv,
		store:  credstore.NewMemory(),
		notes:  &recordingNotifier{},
		nav:    &countingNavigator{},
	}

	c, err := New().
		WithConfig(cfg).
		WithStore(h.store).
		WithNotifier(h.notes).
		WithNavigator(h.nav).
		WithLogOutput(io.Discard).
		Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(c.Close)
	h.client = c
	return h
}

func (h *harness) seed(t *testing.T, access, refresh string) {
	t.Helper()
	err := h.store.SetMany(context.Background(), map[string]string{
		credstore.KeyAccessToken:  access,
		credstore.KeyRefreshToken: refresh,
		credstore.KeyUser:         `{"id":"u-1","name":"Alice"}`,
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

func (h *harness) seedSession(t *testing.T) backendtest.TokenPair {
	t.Helper()
	pair, err := h.server.SeedSession("alice")
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	h.seed(t, pair.AccessToken, pair.RefreshToken)
	return pair
}

func (h *harness) stored(key string) string {
	v, err := h.store.Get(context.Background(), key)
	if errors.Is(err, credstore.ErrNotFound) {
		return ""
	}
	return v
}

// waitQueued blocks until the refresh is in flight and n callers are queued behind it.
func (h *harness) waitQueued(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if h.server.RefreshCalls() >= 1 && h.client.coord.Waiting() == n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("expected %d queued callers, got %d (refresh calls %d)", n, h.client.coord.Waiting(), h.server.RefreshCalls())
}

type callOutcome struct {
	resp *Response
	err  error
}

// fire starts one Do per path and returns the outcomes in path order.
func (h *harness) fire(ctx context.Context, paths ...string) func() []callOutcome {
	out := make([]callOutcome, len(paths))
	var wg sync.WaitGroup
	wg.Add(len(paths))
	for i, p := range paths {
		go func(i int, p string) {
			defer wg.Done()
			req, err := NewRequest("GET", p, nil)
			if err != nil {
				out[i] = callOutcome{err: err}
				return
			}
			resp, err := h.client.Do(ctx, req)
			out[i] = callOutcome{resp: resp, err: err}
		}(i, p)
	}
	return func() []callOutcome {
		wg.Wait()
		return out
	}
}
