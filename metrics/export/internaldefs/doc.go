// Package internaldefs holds the metric names, help strings and bucket bounds shared
// by the exporters, so Prometheus and OTel expose identical series.
package internaldefs
