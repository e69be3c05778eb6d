// Package prometheus exposes client metrics as a prometheus.Collector.
//
// The collector reads [authclient.Client.MetricsSnapshot] on every scrape. Counters are
// named authclient_*_total; request and refresh latency are histograms in seconds.
// Register it on your own registry or mount [Exporter.Handler], which uses a private
// one.
package prometheus
