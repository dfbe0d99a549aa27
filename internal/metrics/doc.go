// Package metrics collects statistics about status operations.
//
// A Collector implements status.Observer and receives events through a
// buffered channel:
//   - Endpoint attempts by outcome, with latency percentiles (P50, P95, P99)
//   - Retries scheduled per endpoint
//   - Calls per resolution with their retry totals
//   - Endpoint health transitions
//
// Events are processed by a dedicated goroutine. Emitting never blocks; when
// the buffer is full the event is dropped and counted. Every processed event
// also updates the Prometheus collectors registered by this package, which
// PrometheusHandler exposes.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	handler, _ := status.NewHandler(endpoints, status.WithObserver(collector))
//
//	snapshot := collector.Snapshot()
//
// On shutdown the collector drains the events still queued.
package metrics
