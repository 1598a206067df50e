// Package otel publishes the engine's counters and backend latency buckets as
// OpenTelemetry observable instruments. One callback reads the engine snapshot
// per collection cycle.
//
// Callers own the MeterProvider and pass in a Meter.
package otel
