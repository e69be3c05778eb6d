// Package credstore persists the client's credential pair and identity record as plain
// key/value strings.
//
// # Backends
//
//   - [Redis]: durable store backed by go-redis; survives process restarts.
//   - [Memory]: mutex-guarded map for tests and short-lived processes.
//
// # Architecture boundaries
//
// This package owns key naming and storage I/O only. Values are opaque: tokens are never
// parsed and the identity record is stored as the caller serialized it.
//
// # What this package must NOT do
//
//   - Import authclient or any coordination package (no upward imports).
//   - Validate or interpret stored values.
//   - Decide refresh or termination policy.
package credstore
