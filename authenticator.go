package authclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
	bearerPrefix        = "Bearer "
	contentTypeJSON     = "application/json"
)

// authenticate attaches the stored access token, if any. A request without a stored
// token goes out unauthenticated. It performs no network I/O.
func (c *Client) authenticate(ctx context.Context, hr *http.Request) {
	if token, ok := c.creds.AccessToken(ctx); ok {
		setBearer(hr, token)
	}
}

func setBearer(hr *http.Request, token string) {
	hr.Header.Set(headerAuthorization, bearerPrefix+token)
}

// resolve turns a request path into an absolute URL against the configured base.
// Absolute URLs are accepted only when they point at the base scheme and host, so the
// stored credential never leaves the configured backend.
func (c *Client) resolve(req *Request) (string, error) {
	ref, err := url.Parse(req.Path)
	if err != nil {
		return "", fmt.Errorf("%w: path %q: %v", ErrInvalidRequest, req.Path, err)
	}

	var u url.URL
	if ref.IsAbs() || ref.Host != "" {
		if !strings.EqualFold(ref.Scheme, c.base.Scheme) || !strings.EqualFold(ref.Host, c.base.Host) {
			return "", fmt.Errorf("%w: %q is not on %s://%s", ErrInvalidRequest, req.Path, c.base.Scheme, c.base.Host)
		}
		u = *ref
	} else {
		u = *c.base
		u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
		u.RawPath = ""
		u.RawQuery = ref.RawQuery
	}

	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// newHTTPRequest builds the wire request. Authorization is left to the caller's auth
// hook so a replay can carry the token it was handed.
func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	target, err := c.resolve(req)
	if err != nil {
		return nil, err
	}

	hr, err := http.NewRequestWithContext(ctx, req.Method, target, req.bodyReader())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	hr.Header.Del(headerAuthorization)
	hr.Header.Set(headerRequestID, req.ID)
	if hr.Header.Get("Accept") == "" {
		hr.Header.Set("Accept", contentTypeJSON)
	}
	if len(req.Body) > 0 && hr.Header.Get("Content-Type") == "" {
		hr.Header.Set("Content-Type", contentTypeJSON)
	}
	if c.cfg.Backend.UserAgent != "" && hr.Header.Get("User-Agent") == "" {
		hr.Header.Set("User-Agent", c.cfg.Backend.UserAgent)
	}
	return hr, nil
}
