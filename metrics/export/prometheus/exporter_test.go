package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/authclient"
	"github.com/MrEthical07/authclient/metrics/export/internaldefs"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snapshot authclient.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() authclient.MetricsSnapshot { return f.snapshot }
func (f fakeSource) NotificationsDropped() uint64               { return f.dropped }

func sampleSource() fakeSource {
	return fakeSource{
		snapshot: authclient.MetricsSnapshot{
			Counters: map[authclient.MetricID]uint64{
				authclient.MetricRefreshStarted: 3,
				authclient.MetricRefreshJoined:  11,
			},
			Histograms: map[authclient.MetricID][]uint64{
				authclient.MetricRequestLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	}
}

func TestCollectorLintsAndCounts(t *testing.T) {
	exp := NewExporter(sampleSource())

	problems, err := testutil.CollectAndLint(exp)
	require.NoError(t, err)
	assert.Empty(t, problems)

	want := len(internaldefs.CounterDefs) + len(internaldefs.HistogramDefs) + 1
	assert.Equal(t, want, testutil.CollectAndCount(exp))
}

func TestCollectorValues(t *testing.T) {
	exp := NewExporter(sampleSource())

	expected := `
# HELP authclient_refresh_started_total Refresh cycles started.
# TYPE authclient_refresh_started_total counter
authclient_refresh_started_total 3
# HELP authclient_notifications_dropped_total Notifications dropped by a full async buffer.
# TYPE authclient_notifications_dropped_total counter
authclient_notifications_dropped_total 2
`
	err := testutil.CollectAndCompare(exp, strings.NewReader(expected),
		"authclient_refresh_started_total", "authclient_notifications_dropped_total")
	require.NoError(t, err)
}

func TestHandlerRendersHistogram(t *testing.T) {
	exp := NewExporter(sampleSource())
	srv := httptest.NewServer(exp.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, `authclient_request_latency_seconds_bucket{le="0.005"} 1`)
	assert.Contains(t, out, `authclient_request_latency_seconds_bucket{le="+Inf"} 36`)
	assert.Contains(t, out, "authclient_request_latency_seconds_count 36")
	assert.Contains(t, out, "authclient_refresh_joined_total 11")
}

func TestCollectorWithLiveClient(t *testing.T) {
	c, err := authclient.New().
		WithBaseURL("http://127.0.0.1:1").
		WithMetricsEnabled(true).
		WithLogOutput(io.Discard).
		Build()
	require.NoError(t, err)
	defer c.Close()

	reg := prom.NewRegistry()
	require.NoError(t, reg.Register(NewExporter(c)))

	_, err = c.Do(t.Context(), &authclient.Request{Path: "/api/x"})
	require.Error(t, err)

	n, err := testutil.GatherAndCount(reg, "authclient_requests_total", "authclient_network_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	expected := `
# HELP authclient_network_total Calls that received no response.
# TYPE authclient_network_total counter
authclient_network_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "authclient_network_total"))
}
