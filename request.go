package authclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Request describes one outbound call. It is kept as plain data so the call can be
// reissued verbatim after a credential refresh.
type Request struct {
	Method string
	// Path is resolved against Config.Backend.BaseURL. An absolute URL must share the
	// base URL's scheme and host.
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
	// ID is sent as X-Request-ID. Generated when empty.
	ID string

	retried bool
	cycle   uint64
}

// NewRequest builds a JSON request. A nil body sends no payload.
func NewRequest(method, path string, body any) (*Request, error) {
	req := &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
	}
	if body == nil {
		return req, nil
	}

	switch b := body.(type) {
	case []byte:
		req.Body = b
	case json.RawMessage:
		req.Body = b
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode body: %v", ErrInvalidRequest, err)
		}
		req.Body = data
	}
	return req, nil
}

// Retried reports whether this call has already been replayed once.
func (r *Request) Retried() bool {
	return r != nil && r.retried
}

func (r *Request) clone() *Request {
	out := *r
	if r.Header != nil {
		out.Header = r.Header.Clone()
	}
	if r.Query != nil {
		out.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			out.Query[k] = append([]string(nil), v...)
		}
	}
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return &out
}

func (r *Request) bodyReader() io.Reader {
	if len(r.Body) == 0 {
		return http.NoBody
	}
	return bytes.NewReader(r.Body)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
	// Replayed is true when this response came from the post-refresh replay.
	Replayed bool
}

// DecodeJSON unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) DecodeJSON(v any) error {
	if r == nil || len(r.Body) == 0 || v == nil {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}
