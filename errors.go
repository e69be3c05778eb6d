package authclient

import "errors"

var (
	// ErrSessionExpired is returned when an expired credential could not be recovered.
	ErrSessionExpired = errors.New("session expired")
	// ErrForbidden is returned for 403 responses.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for 400 and other client-side rejections.
	ErrValidation = errors.New("validation failed")
	// ErrServer is returned for 5xx responses.
	ErrServer = errors.New("server error")
	// ErrNetwork is returned when no response was received.
	ErrNetwork = errors.New("network error")
	// ErrTimeout is returned alongside ErrNetwork when the call timed out.
	ErrTimeout = errors.New("request timed out")
	// ErrRefreshFailed wraps every unsuccessful refresh attempt.
	ErrRefreshFailed = errors.New("credential refresh failed")
	// ErrNoRefreshToken is returned when a refresh was needed but none is stored.
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrLoginRejected is returned when the backend refuses the supplied credentials.
	ErrLoginRejected = errors.New("login rejected")
	// ErrLoginFailed wraps every other login failure.
	ErrLoginFailed = errors.New("login failed")
	// ErrClientNotReady is returned by methods on a nil or unbuilt Client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrInvalidRequest is returned for request descriptors that cannot be sent.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrResponseTooLarge is returned when a body exceeds Backend.MaxResponseBytes.
	ErrResponseTooLarge = errors.New("response body too large")
)
