package authclient

import (
	"context"
	"net/http"

	"github.com/MrEthical07/authclient/internal/coordinator"
)

// replay reissues call once with the token produced by the refresh cycle. The store is
// not consulted: a later cycle may already have replaced the stored token. The replay
// carries the retry mark, so a second 401 terminates instead of refreshing again.
func (c *Client) replay(ctx context.Context, call *Request, res coordinator.Result) (*Response, error) {
	next := call.clone()
	next.retried = true
	next.cycle = res.Cycle

	c.metrics.Inc(MetricReplay)
	c.log.WithFields(callFields(next)).WithField("cycle", res.Cycle).Debug("replaying call")

	token := res.AccessToken
	resp, err := c.execute(ctx, next, func(_ context.Context, hr *http.Request) {
		setBearer(hr, token)
	})
	if resp != nil {
		resp.Replayed = true
	}
	return resp, err
}
