package authclient

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// sessionTerminator ends the local session: clear credentials, notify once, redirect
// once. It fires at most once per refresh cycle.
type sessionTerminator struct {
	creds     *credentials
	notify    *notifyDispatcher
	navigator Navigator
	metrics   *Metrics
	log       logrus.FieldLogger

	mu   sync.Mutex
	last uint64
}

// Terminate runs the termination for cycle and reports whether it did anything. Cycles
// start at 1; a cycle at or below the last terminated one is ignored.
func (t *sessionTerminator) Terminate(ctx context.Context, cycle uint64, reason error) bool {
	t.mu.Lock()
	if cycle <= t.last {
		t.mu.Unlock()
		return false
	}
	t.last = cycle
	t.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	entry := t.log.WithField("cycle", cycle)
	if reason != nil {
		entry = entry.WithError(reason)
	}
	entry.Warn("session terminated")

	if err := t.creds.ClearAll(ctx); err != nil {
		t.log.WithError(err).Error("clear credentials after session expiry")
	}
	t.metrics.Inc(MetricSessionTerminated)

	t.notify.Notify(ctx, Notification{
		Timestamp: time.Now().UTC(),
		Kind:      NotifySessionExpired,
		Message:   defaultMessage(CategoryAuthExpired, false),
	})
	t.navigator.RedirectToLogin(ctx, reason)
	return true
}
