// Package otel binds client metrics to OpenTelemetry observable instruments.
//
// [NewExporter] registers one Int64ObservableCounter per client counter and one
// Int64ObservableGauge per cumulative latency bucket. A single callback reads the
// client's snapshot on each collection. Callers own the MeterProvider.
package otel
