// Package coordinator implements the single-flight refresh engine.
//
// # State machine
//
// A [Coordinator] is either Idle or Refreshing. The first caller that observes Idle
// becomes the leader: it flips the state, runs the refresh function, and resolves every
// caller that queued behind it. Callers arriving while Refreshing append a one-shot
// channel to a FIFO queue and block until the leader resolves it.
//
// Invariants:
//   - Exactly one refresh function call per cycle.
//   - The queue is non-empty only while Refreshing.
//   - The transition back to Idle drains the whole queue under the lock, so no new cycle
//     can start while earlier waiters are still unresolved.
//   - The failure hook runs at most once per cycle, before waiters are released.
//
// # What this package must NOT do
//
//   - Perform HTTP or storage I/O itself (the refresh function does).
//   - Replay requests or inspect RetryMarks (the client does).
//   - Be imported outside the authclient module.
package coordinator
