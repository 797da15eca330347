// Package runner provides the load generation engine for rhi.
//
// The runner package turns a static [Profile] into a live stream of request
// executions with support for:
//   - A hard concurrency ceiling (in-flight requests never exceed the profile)
//   - Token bucket rate limiting (requests per second, 0 means unbounded)
//   - Count-based termination with an optional wall-clock time box
//   - Context cancellation that stops admission immediately
//
// # Basic Usage
//
// Create a dispatcher with a profile, an executor and a sink:
//
//	d, err := runner.New(runner.Options{
//		Profile: runner.Profile{
//			TotalRequests: 1000,
//			Concurrency:   50,
//			RatePerSecond: 200,
//		},
//		Executor: executor,
//		Sink:     collector,
//	})
//	if err != nil {
//		return err
//	}
//	result, err := d.Run(ctx)
//
// # Executor Interface
//
// The [Executor] interface performs exactly one request attempt and always
// resolves to a [Completion]:
//
//	type Executor interface {
//		Execute(ctx context.Context, seq int64) Completion
//	}
//
// Failures are data, not control flow: timeouts, connection errors and
// malformed responses are reported through [Completion.Kind].
//
// # Scheduling
//
// A single goroutine owns the issued/completed counters. It admits new work
// on every tick of the token bucket clock and on every completion, so the
// concurrency slots freed between ticks are reused immediately. Admission
// order is strictly by sequence number; completion order is not.
package runner
