// Package httpclient builds the requests rhi sends and executes them.
//
// The httpclient package provides:
//   - An immutable request [Template] built once from configuration
//   - A shared [http.Client] with keep-alive, compression, HTTP/2 and proxy toggles
//   - An [Executor] that turns one exchange into a [runner.Completion]
//
// # Request Template
//
// Use [NewTemplate] to validate the request settings once:
//
//	tmpl, err := httpclient.NewTemplate(httpclient.TemplateConfig{
//		Method: "POST",
//		URL:    "https://example.com/api",
//		Body:   `{"hello":"world"}`,
//	})
//	req, err := tmpl.NewRequest(ctx)
//
// # Execution
//
// The [Executor] enforces the per-request timeout from send until the body is
// drained and classifies failures as timeout, connection, protocol or canceled.
// HTTP error statuses are regular outcomes, not failures:
//
//	client, err := httpclient.NewClient(httpclient.TransportOptions{MaxIdleConnsPerHost: 50})
//	exec, err := httpclient.NewExecutor(httpclient.ExecutorOptions{
//		Template: tmpl,
//		Client:   client,
//		Timeout:  20 * time.Second,
//	})
//	completion := exec.Execute(ctx, 0)
//
// # Integration
//
// This package integrates with:
//   - [github.com/torosent/rhi/internal/runner] as its Executor
//   - [github.com/torosent/rhi/internal/tracing] for client spans and W3C propagation
package httpclient
