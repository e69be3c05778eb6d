package authclient

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Notification kinds emitted by the client.
const (
	NotifySessionExpired = "session_expired"
	NotifyForbidden      = "forbidden"
	NotifyNotFound       = "not_found"
	NotifyValidation     = "validation"
	NotifyServerError    = "server_error"
	NotifyNetwork        = "network"
	NotifyTimeout        = "timeout"
)

// Notification is one user-visible failure report handed to the UI surface.
type Notification struct {
	Timestamp  time.Time         `json:"timestamp"`
	Kind       string            `json:"kind"`
	Message    string            `json:"message"`
	Method     string            `json:"method,omitempty"`
	Path       string            `json:"path,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Notifier is the UI notification surface. It owns presentation; the client only
// reports.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, Notification) {}

// ChannelNotifier forwards notifications to a buffered channel.
type ChannelNotifier struct {
	events chan Notification
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{
		events: make(chan Notification, buffer),
	}
}

func (s *ChannelNotifier) Notify(ctx context.Context, n Notification) {
	select {
	case s.events <- n:
	case <-ctx.Done():
	}
}

func (s *ChannelNotifier) Events() <-chan Notification {
	return s.events
}

// JSONWriterNotifier writes one JSON document per line.
type JSONWriterNotifier struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterNotifier(w io.Writer) *JSONWriterNotifier {
	return &JSONWriterNotifier{
		writer: w,
	}
}

func (s *JSONWriterNotifier) Notify(_ context.Context, n Notification) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

func notificationKind(c Category, timeout bool) string {
	switch c {
	case CategoryAuthExpired:
		return NotifySessionExpired
	case CategoryForbidden:
		return NotifyForbidden
	case CategoryNotFound:
		return NotifyNotFound
	case CategoryValidation:
		return NotifyValidation
	case CategoryServerError:
		return NotifyServerError
	case CategoryNetwork:
		if timeout {
			return NotifyTimeout
		}
		return NotifyNetwork
	default:
		return ""
	}
}
