// Package prometheus renders the engine's counters and backend latency
// histogram in Prometheus text exposition format. Counters are named
// onboard_*_total; the histogram is onboard_backend_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
