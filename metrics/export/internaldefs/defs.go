package internaldefs

import (
	"github.com/MrEthical07/authclient"
)

// CounterDef maps a client counter to an exported series.
type CounterDef struct {
	ID   authclient.MetricID
	Name string
	Help string
}

// HistogramDef maps a client latency histogram to an exported series.
type HistogramDef struct {
	ID   authclient.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authclient.MetricRequest, Name: "authclient_requests_total", Help: "Calls issued through the client."},
	{ID: authclient.MetricRequestSuccess, Name: "authclient_request_success_total", Help: "Attempts answered with a non-error status."},
	{ID: authclient.MetricAuthExpired, Name: "authclient_auth_expired_total", Help: "Attempts answered with 401."},
	{ID: authclient.MetricForbidden, Name: "authclient_forbidden_total", Help: "Calls failed as forbidden."},
	{ID: authclient.MetricNotFound, Name: "authclient_not_found_total", Help: "Calls failed as not found."},
	{ID: authclient.MetricValidation, Name: "authclient_validation_total", Help: "Calls failed validation."},
	{ID: authclient.MetricServerError, Name: "authclient_server_error_total", Help: "Calls failed with a server error."},
	{ID: authclient.MetricNetwork, Name: "authclient_network_total", Help: "Calls that received no response."},
	{ID: authclient.MetricTimeout, Name: "authclient_timeout_total", Help: "Network failures caused by a timeout."},
	{ID: authclient.MetricRefreshStarted, Name: "authclient_refresh_started_total", Help: "Refresh cycles started."},
	{ID: authclient.MetricRefreshSuccess, Name: "authclient_refresh_success_total", Help: "Refresh cycles that produced a new access token."},
	{ID: authclient.MetricRefreshFailure, Name: "authclient_refresh_failure_total", Help: "Refresh cycles that failed."},
	{ID: authclient.MetricRefreshJoined, Name: "authclient_refresh_joined_total", Help: "Calls that queued behind an in-flight refresh."},
	{ID: authclient.MetricReplay, Name: "authclient_replay_total", Help: "Calls replayed after a refresh."},
	{ID: authclient.MetricReplayFailure, Name: "authclient_replay_failure_total", Help: "Replayed calls that failed."},
	{ID: authclient.MetricRetryExhausted, Name: "authclient_retry_exhausted_total", Help: "Replayed calls rejected with 401 again."},
	{ID: authclient.MetricSessionTerminated, Name: "authclient_session_terminated_total", Help: "Local sessions ended after an unrecoverable expiry."},
	{ID: authclient.MetricLoginSuccess, Name: "authclient_login_success_total", Help: "Successful logins."},
	{ID: authclient.MetricLoginFailure, Name: "authclient_login_failure_total", Help: "Failed logins."},
	{ID: authclient.MetricLogout, Name: "authclient_logout_total", Help: "Logouts."},
}

var HistogramDefs = []HistogramDef{
	{ID: authclient.MetricRequestLatency, Name: "authclient_request_latency_seconds", Help: "Round-trip latency of each attempt."},
	{ID: authclient.MetricRefreshLatency, Name: "authclient_refresh_latency_seconds", Help: "Latency of refresh calls."},
}

// HistogramBounds are the upper bounds of the client's eight latency buckets, in
// seconds. The last bucket is unbounded.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

const (
	NotificationsDroppedName = "authclient_notifications_dropped_total"
	NotificationsDroppedHelp = "Notifications dropped by a full async buffer."
)

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
