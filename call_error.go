package authclient

import (
	"strconv"
	"strings"
)

// CallError is returned for every call that did not end in a usable response.
//
// errors.Is matches both the category sentinel (ErrForbidden, ErrNetwork, ...) and the
// underlying cause, so the original error keeps its identity.
type CallError struct {
	Category   Category
	StatusCode int
	// Message is a human-readable description suitable for a UI notification.
	Message   string
	Method    string
	Path      string
	RequestID string
	Body      []byte
	Timeout   bool
	// Retried is true when the failing attempt was a replay.
	Retried bool
	Err     error
}

func (e *CallError) Error() string {
	var b strings.Builder
	b.WriteString(e.Method)
	b.WriteByte(' ')
	b.WriteString(e.Path)
	b.WriteString(": ")
	b.WriteString(e.Category.String())
	if e.StatusCode != 0 {
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(e.StatusCode))
		b.WriteByte(')')
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CallError) Unwrap() []error {
	out := make([]error, 0, 3)
	if s := e.Category.sentinel(); s != nil {
		out = append(out, s)
	}
	if e.Timeout {
		out = append(out, ErrTimeout)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}
