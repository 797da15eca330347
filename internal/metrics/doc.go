// Package metrics aggregates the completion records of a load run.
//
// The metrics package turns the stream of [runner.Completion] records into the
// final statistics of a run. Aggregation is order independent: the same set
// of records yields the same [Snapshot] whatever order they arrive in.
//
// # Collector
//
// The [Collector] is a [runner.Sink] that keeps counts, an HdrHistogram of
// latencies and optional per-request records:
//
//	collector := metrics.NewCollector(metrics.WithRecords())
//	d, _ := runner.New(runner.Options{Profile: p, Executor: exec, Sink: collector})
//	result, _ := d.Run(ctx)
//	snap := collector.Snapshot(result.Duration)
//
// Snapshot freezes the collector. Records arriving afterwards are counted in
// [Snapshot.Dropped] instead of changing the aggregate.
//
// # Statistics
//
// The [Snapshot] type provides:
//   - Request counts (total, successes, failures)
//   - Responses by status class and exact status code
//   - Failures by kind and by error message
//   - Latency min, max, mean and percentiles (p10 through p99)
//   - Response bytes and requests per second
//   - Mean phase timings when phase tracing is enabled
//
// # Prometheus
//
// [PromRecorder] mirrors completions into Prometheus collectors on its own
// registry and can expose them on /metrics while the run lasts. Combine it
// with a Collector using [Fanout]:
//
//	prom := metrics.NewPromRecorder()
//	sink := metrics.Fanout(collector, prom)
//	go prom.Serve(ctx, ":9090", logger)
package metrics
