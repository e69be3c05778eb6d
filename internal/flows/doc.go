// Package flows contains pure-function orchestrators for the client's credential
// operations: refresh, login and logout.
//
// Each flow function (RunRefresh, RunLogin, RunLogout) accepts a typed dependency
// struct and returns a result carrying a failure kind. The root client maps failure
// kinds to its public errors, metrics and log lines.
//
// # Architecture boundaries
//
// Flows decide what to read, what to call and what to persist. They do NOT own the HTTP
// client, the credential store or the coordinator; the Client owns those.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authclient (to avoid import cycles).
//   - Perform I/O directly. All I/O goes through dependency funcs.
package flows
