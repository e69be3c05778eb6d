// Package authclient is an HTTP client for a token-authenticated REST backend.
//
// Every call made through [Client.Do] (or the JSON helpers) carries the stored access
// token as a bearer credential. When the backend answers 401 the call is suspended
// while exactly one refresh runs against the refresh endpoint; calls that hit 401 while
// that refresh is in flight queue behind it and are released in arrival order. On
// success each suspended call is replayed once with the new token. On failure the
// session is terminated once: credentials are cleared, a session_expired
// [Notification] is emitted and the [Navigator] is asked to show the login view, and
// every suspended call fails with [ErrSessionExpired].
//
// # Failure categories
//
// Outcomes are classified by [Classify] into [CategoryAuthExpired],
// [CategoryForbidden], [CategoryNotFound], [CategoryValidation],
// [CategoryServerError] and [CategoryNetwork]. Only AuthExpired is recovered. The
// rest are returned as [*CallError] and reported once to the [Notifier].
//
// # Storage
//
// Credentials live in a [credstore.Store]: Redis for durable sessions, memory for
// tests. Keys are "accessToken", "refreshToken" and "user".
//
// # Concurrency
//
// A Client is safe for concurrent use. The refresh state machine is private to the
// client; one Client coordinates one session in one process.
package authclient
