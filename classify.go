package authclient

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// Category is the recovery class of a finished call.
type Category uint8

const (
	// CategoryNone marks a successful call.
	CategoryNone Category = iota
	CategoryAuthExpired
	CategoryForbidden
	CategoryNotFound
	CategoryValidation
	CategoryServerError
	CategoryNetwork
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryAuthExpired:
		return "auth_expired"
	case CategoryForbidden:
		return "forbidden"
	case CategoryNotFound:
		return "not_found"
	case CategoryValidation:
		return "validation"
	case CategoryServerError:
		return "server_error"
	case CategoryNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Classify maps a call outcome to exactly one category. It performs no I/O.
//
// A transport error or a zero status (no response) is Network. 401, 403, 404, 400 and
// 500 map to their own categories; any other 4xx is Validation and any other 5xx is
// ServerError. 1xx-3xx are None.
func Classify(status int, err error) Category {
	if err != nil || status == 0 {
		return CategoryNetwork
	}

	switch status {
	case http.StatusUnauthorized:
		return CategoryAuthExpired
	case http.StatusForbidden:
		return CategoryForbidden
	case http.StatusNotFound:
		return CategoryNotFound
	case http.StatusBadRequest:
		return CategoryValidation
	case http.StatusInternalServerError:
		return CategoryServerError
	}

	switch {
	case status < http.StatusBadRequest:
		return CategoryNone
	case status < http.StatusInternalServerError:
		return CategoryValidation
	default:
		return CategoryServerError
	}
}

// IsTimeout reports whether err is a deadline or a network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (c Category) sentinel() error {
	switch c {
	case CategoryAuthExpired:
		return ErrSessionExpired
	case CategoryForbidden:
		return ErrForbidden
	case CategoryNotFound:
		return ErrNotFound
	case CategoryValidation:
		return ErrValidation
	case CategoryServerError:
		return ErrServer
	case CategoryNetwork:
		return ErrNetwork
	default:
		return nil
	}
}

func defaultMessage(c Category, timeout bool) string {
	switch c {
	case CategoryAuthExpired:
		return "Your session has expired. Please sign in again."
	case CategoryForbidden:
		return "You do not have permission to perform this action."
	case CategoryNotFound:
		return "The requested resource was not found."
	case CategoryValidation:
		return "The request was rejected. Please check the submitted data."
	case CategoryServerError:
		return "The server encountered an error. Please try again later."
	case CategoryNetwork:
		if timeout {
			return "The request timed out. Please try again."
		}
		return "Unable to reach the server. Please check your connection."
	default:
		return ""
	}
}
