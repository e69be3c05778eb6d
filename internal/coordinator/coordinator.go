package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the coordinator's refresh state.
type State uint8

const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// ErrNoRefreshFunc is returned when the coordinator was built without a refresh function.
var ErrNoRefreshFunc = errors.New("coordinator: refresh function not configured")

// RefreshFunc obtains a new access token. It runs once per cycle on the leader.
type RefreshFunc func(ctx context.Context) (string, error)

// FailureFunc is invoked once per failed cycle while the state is still Refreshing.
type FailureFunc func(ctx context.Context, cycle uint64, err error)

// Result is what every participant of a cycle receives.
type Result struct {
	AccessToken string
	Err         error
	// Cycle identifies the refresh cycle the caller took part in.
	Cycle uint64
	// Leader is true for the caller that ran the refresh.
	Leader bool
	// Seq is the 1-based release position of a queued caller; 0 for the leader.
	Seq int
}

// Config wires a [Coordinator].
type Config struct {
	Refresh   RefreshFunc
	OnFailure FailureFunc
	// Timeout bounds the refresh call. Zero means no extra bound beyond the caller's.
	Timeout time.Duration
}

// Coordinator serializes refresh cycles. The zero value is not usable; call [New].
type Coordinator struct {
	refresh   RefreshFunc
	onFailure FailureFunc
	timeout   time.Duration

	mu    sync.Mutex
	state State
	cycle uint64
	queue []chan Result
}

// New returns an idle coordinator.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		refresh:   cfg.Refresh,
		onFailure: cfg.OnFailure,
		timeout:   cfg.Timeout,
	}
}

// Await begins a refresh cycle or joins the one in progress and blocks until it resolves.
//
// A queued caller whose ctx ends before release returns ctx.Err(); its slot is still
// resolved by the leader into a buffered channel nobody reads.
func (c *Coordinator) Await(ctx context.Context) Result {
	c.mu.Lock()
	if c.state == Refreshing {
		ch := make(chan Result, 1)
		c.queue = append(c.queue, ch)
		cycle := c.cycle
		c.mu.Unlock()

		select {
		case res := <-ch:
			return res
		case <-ctx.Done():
			return Result{Cycle: cycle, Err: ctx.Err()}
		}
	}

	c.state = Refreshing
	c.cycle++
	cycle := c.cycle
	c.mu.Unlock()

	token, err := c.run(ctx)
	return c.complete(ctx, cycle, token, err)
}

func (c *Coordinator) run(ctx context.Context) (string, error) {
	if c.refresh == nil {
		return "", ErrNoRefreshFunc
	}

	// Waiters depend on this call; the leader's cancellation must not strand them.
	runCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, c.timeout)
		defer cancel()
	}

	token, err := c.refresh(runCtx)
	if err == nil && token == "" {
		err = errors.New("coordinator: refresh returned empty access token")
	}
	return token, err
}

func (c *Coordinator) complete(ctx context.Context, cycle uint64, token string, err error) Result {
	if err != nil && c.onFailure != nil {
		c.onFailure(context.WithoutCancel(ctx), cycle, err)
	}

	out := Result{Cycle: cycle, Err: err}
	if err == nil {
		out.AccessToken = token
	}

	c.mu.Lock()
	c.state = Idle
	for i, ch := range c.queue {
		res := out
		res.Seq = i + 1
		ch <- res
	}
	c.queue = nil
	c.mu.Unlock()

	out.Leader = true
	return out
}

// State reports the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Waiting reports how many callers are queued behind the current cycle.
func (c *Coordinator) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Cycle reports the number of refresh cycles started so far.
func (c *Coordinator) Cycle() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle
}
