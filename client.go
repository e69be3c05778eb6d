package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/MrEthical07/authclient/internal/coordinator"
	"github.com/MrEthical07/authclient/internal/flows"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client sends authenticated calls to one backend and recovers from expired access
// tokens with a single shared refresh.
//
// A Client is safe for concurrent use once returned by [Builder.Build].
type Client struct {
	cfg        Config
	base       *url.URL
	http       *http.Client
	creds      *credentials
	coord      *coordinator.Coordinator
	flows      flows.Service
	terminator *sessionTerminator
	notify     *notifyDispatcher
	metrics    *Metrics
	limiter    *rate.Limiter
	log        logrus.FieldLogger
}

// Do sends req with the stored access token.
//
// A 401 answer suspends the call until the shared refresh resolves, then replays it
// once with the new token. Every other failure is returned as a *CallError. The
// returned Response is non-nil whenever the backend answered, even on error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if req.Path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRequest)
	}

	call := req.clone()
	call.retried = false
	call.cycle = 0
	if call.Method == "" {
		call.Method = http.MethodGet
	}
	if _, err := c.resolve(call); err != nil {
		return nil, err
	}
	if call.ID == "" {
		call.ID = uuid.NewString()
	}

	c.metrics.Inc(MetricRequest)
	return c.execute(ctx, call, c.authenticate)
}

func (c *Client) ready() bool {
	return c != nil && c.coord != nil && c.flows.Initialized()
}

// execute sends one attempt of call and routes the outcome by category.
func (c *Client) execute(ctx context.Context, call *Request, auth func(context.Context, *http.Request)) (*Response, error) {
	resp, err := c.send(ctx, call, auth)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	switch cat := Classify(status, err); cat {
	case CategoryNone:
		c.metrics.Inc(MetricRequestSuccess)
		return resp, nil
	case CategoryAuthExpired:
		c.metrics.Inc(MetricAuthExpired)
		return c.handleAuthExpired(ctx, call, resp)
	default:
		return resp, c.fail(ctx, call, cat, resp, err)
	}
}

// handleAuthExpired either terminates an already replayed call or hands it to the
// refresh coordinator and replays it with the token the cycle produced.
func (c *Client) handleAuthExpired(ctx context.Context, call *Request, resp *Response) (*Response, error) {
	if call.retried {
		c.metrics.Inc(MetricRetryExhausted)
		c.log.WithFields(callFields(call)).WithField("cycle", call.cycle).Warn("replayed call rejected again")
		c.terminator.Terminate(ctx, call.cycle, ErrSessionExpired)
		return resp, c.sessionExpired(call, resp, nil)
	}

	res := c.coord.Await(ctx)
	if !res.Leader {
		c.metrics.Inc(MetricRefreshJoined)
	}

	if res.Err != nil {
		if ctx.Err() != nil && !errors.Is(res.Err, ErrRefreshFailed) {
			// The caller gave up while queued; the cycle continues without it.
			return resp, &CallError{
				Category:  CategoryNetwork,
				Message:   defaultMessage(CategoryNetwork, IsTimeout(res.Err)),
				Method:    call.Method,
				Path:      call.Path,
				RequestID: call.ID,
				Timeout:   IsTimeout(res.Err),
				Err:       res.Err,
			}
		}
		return resp, c.sessionExpired(call, resp, res.Err)
	}

	return c.replay(ctx, call, res)
}

func (c *Client) sessionExpired(call *Request, resp *Response, cause error) *CallError {
	ce := &CallError{
		Category:   CategoryAuthExpired,
		StatusCode: http.StatusUnauthorized,
		Message:    defaultMessage(CategoryAuthExpired, false),
		Method:     call.Method,
		Path:       call.Path,
		RequestID:  call.ID,
		Retried:    call.retried,
		Err:        cause,
	}
	if resp != nil {
		ce.StatusCode = resp.StatusCode
		ce.Body = resp.Body
	}
	return ce
}

// fail builds the terminal error for a non-recoverable category and reports it once.
func (c *Client) fail(ctx context.Context, call *Request, cat Category, resp *Response, cause error) error {
	timeout := cat == CategoryNetwork && IsTimeout(cause)

	ce := &CallError{
		Category:  cat,
		Message:   defaultMessage(cat, timeout),
		Method:    call.Method,
		Path:      call.Path,
		RequestID: call.ID,
		Timeout:   timeout,
		Retried:   call.retried,
		Err:       cause,
	}
	if resp != nil {
		ce.StatusCode = resp.StatusCode
		ce.Body = resp.Body
	}

	if id, ok := categoryMetric(cat); ok {
		c.metrics.Inc(id)
	}
	if timeout {
		c.metrics.Inc(MetricTimeout)
	}
	if call.retried {
		c.metrics.Inc(MetricReplayFailure)
	}

	entry := c.log.WithFields(callFields(call)).WithFields(logrus.Fields{
		"category": cat.String(),
		"status":   ce.StatusCode,
	})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Info("call failed")

	// A caller that cancelled its own call is not shown an error.
	if errors.Is(cause, context.Canceled) {
		return ce
	}

	n := Notification{
		Timestamp:  time.Now().UTC(),
		Kind:       notificationKind(cat, timeout),
		Message:    ce.Message,
		Method:     call.Method,
		Path:       call.Path,
		RequestID:  call.ID,
		StatusCode: ce.StatusCode,
	}
	if detail := flows.ErrorMessage(ce.Body); detail != "" {
		n.Metadata = map[string]string{"detail": detail}
	}
	c.notify.Notify(context.WithoutCancel(ctx), n)

	return ce
}

// send performs one HTTP round trip. auth may be nil for unauthenticated calls.
func (c *Client) send(ctx context.Context, call *Request, auth func(context.Context, *http.Request)) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Backend.Timeout)
	defer cancel()

	hr, err := c.newHTTPRequest(ctx, call)
	if err != nil {
		return nil, err
	}
	if auth != nil {
		auth(ctx, hr)
	}

	start := time.Now()
	res, err := c.http.Do(hr)
	if err != nil {
		c.metrics.Observe(MetricRequestLatency, time.Since(start))
		return nil, err
	}
	defer res.Body.Close()

	limit := c.cfg.Backend.MaxResponseBytes
	body, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	c.metrics.Observe(MetricRequestLatency, time.Since(start))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: status %d, more than %d bytes", ErrResponseTooLarge, res.StatusCode, limit)
	}

	c.log.WithFields(callFields(call)).WithField("status", res.StatusCode).Debug("call completed")

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
		RequestID:  call.ID,
	}, nil
}

// exchange is the unauthenticated transport used by the login, refresh and logout
// flows. It never enters the refresh coordinator.
func (c *Client) exchange(ctx context.Context, path string, payload any) (int, []byte, error) {
	req, err := NewRequest(http.MethodPost, path, payload)
	if err != nil {
		return 0, nil, err
	}
	req.ID = uuid.NewString()

	resp, err := c.send(ctx, req, nil)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, resp.Body, nil
}

// refreshAccessToken is the coordinator's refresh function. Every failure wraps
// ErrRefreshFailed.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	c.metrics.Inc(MetricRefreshStarted)
	start := time.Now()
	res := c.flows.Refresh(ctx)
	c.metrics.Observe(MetricRefreshLatency, time.Since(start))

	if res.Failure != flows.RefreshFailureNone {
		c.metrics.Inc(MetricRefreshFailure)
		c.log.WithFields(logrus.Fields{
			"failure": res.Failure.String(),
			"status":  res.StatusCode,
		}).WithError(res.Err).Warn("credential refresh failed")

		if res.Failure == flows.RefreshFailureMissingToken {
			return "", fmt.Errorf("%w: %w", ErrRefreshFailed, ErrNoRefreshToken)
		}
		return "", fmt.Errorf("%w: %s: %w", ErrRefreshFailed, res.Failure, res.Err)
	}

	c.metrics.Inc(MetricRefreshSuccess)
	c.log.WithField("rotated", res.Rotated).Info("credential refreshed")
	return res.AccessToken, nil
}

// Login exchanges username and password for a credential pair and stores it with the
// identity record. The returned identity is nil when the backend sent none.
func (c *Client) Login(ctx context.Context, username, password string) (*Identity, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}

	res := c.flows.Login(ctx, username, password)
	switch res.Failure {
	case flows.LoginFailureNone:
	case flows.LoginFailureRejected:
		c.metrics.Inc(MetricLoginFailure)
		return nil, fmt.Errorf("%w: status %d", ErrLoginRejected, res.StatusCode)
	case flows.LoginFailureTransport:
		c.metrics.Inc(MetricLoginFailure)
		return nil, fmt.Errorf("%w: %w: %w", ErrLoginFailed, ErrNetwork, res.Err)
	default:
		c.metrics.Inc(MetricLoginFailure)
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, res.Err)
	}

	c.metrics.Inc(MetricLoginSuccess)
	c.log.WithField("username", username).Info("login succeeded")

	if res.User == "" {
		return nil, nil
	}
	var id Identity
	if err := json.Unmarshal([]byte(res.User), &id); err != nil {
		c.log.WithError(err).Warn("login identity is not decodable")
		return nil, nil
	}
	return &id, nil
}

// Logout revokes the refresh token remotely when possible and always clears local
// credentials. Only a failure to clear the store is returned.
func (c *Client) Logout(ctx context.Context) error {
	if !c.ready() {
		return ErrClientNotReady
	}

	res := c.flows.Logout(ctx)
	c.metrics.Inc(MetricLogout)
	if res.RemoteErr != nil {
		c.log.WithError(res.RemoteErr).Warn("remote logout failed")
	}
	return res.ClearErr
}

// Identity returns the stored user record.
func (c *Client) Identity(ctx context.Context) (*Identity, bool) {
	if c == nil || c.creds == nil {
		return nil, false
	}
	return c.creds.Identity(ctx)
}

// Authenticated reports whether an access token is stored.
func (c *Client) Authenticated(ctx context.Context) bool {
	if c == nil || c.creds == nil {
		return false
	}
	_, ok := c.creds.AccessToken(ctx)
	return ok
}

// Get sends a GET and decodes the JSON answer into out, which may be nil.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := NewRequest(method, path, in)
	if err != nil {
		return err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.DecodeJSON(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// Close flushes queued notifications.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.notify.Close()
}

// MetricsSnapshot returns a copy of every counter and histogram.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// NotificationsDropped reports notifications discarded by a full async buffer.
func (c *Client) NotificationsDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.notify.Dropped()
}
