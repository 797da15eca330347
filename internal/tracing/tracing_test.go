package tracing_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/torosent/rhi/internal/tracing"
)

func setupTestProvider(t *testing.T) (*tracetest.InMemoryExporter, *tracing.Provider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	p := tracing.NewProvider(tp, true)
	t.Cleanup(func() {
		_ = p.Shutdown(context.Background())
	})
	return exporter, p
}

func TestInitDisabledByDefault(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	p, err := tracing.Init(context.Background(), tracing.Config{})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	if p.Enabled() {
		t.Error("Enabled() = true, want false without an endpoint")
	}
	if p.ShouldPropagate() {
		t.Error("ShouldPropagate() = true, want false when tracing disabled")
	}

	_, span := p.Tracer().Start(context.Background(), "noop")
	span.End()
	if span.SpanContext().IsValid() {
		t.Error("disabled provider produced a valid span context")
	}
}

func TestInitWithEndpointEnablesTracing(t *testing.T) {
	tests := []struct {
		name     string
		protocol string
		endpoint string
	}{
		{"grpc", "grpc", "localhost:4317"},
		{"http", "http", "localhost:4318"},
		{"default protocol", "", "localhost:4317"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tracing.Init(context.Background(), tracing.Config{
				Endpoint:   tt.endpoint,
				Protocol:   tt.protocol,
				Insecure:   true,
				SampleRate: 1.0,
			})
			if err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

			if !p.Enabled() {
				t.Error("Enabled() = false, want true")
			}
			if !p.ShouldPropagate() {
				t.Error("ShouldPropagate() = false, want true when tracing enabled")
			}
		})
	}
}

func TestInitRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  tracing.Config
	}{
		{"unsupported protocol", tracing.Config{Endpoint: "localhost:4317", Protocol: "thrift", Insecure: true, SampleRate: 1}},
		{"negative sample rate", tracing.Config{Endpoint: "localhost:4317", SampleRate: -0.5}},
		{"sample rate above one", tracing.Config{Endpoint: "localhost:4317", SampleRate: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tracing.Init(context.Background(), tt.cfg); err == nil {
				t.Fatal("Init() error = nil, want error")
			}
		})
	}
}

func TestShouldPropagateOverride(t *testing.T) {
	off := false
	cfg := tracing.Config{Endpoint: "localhost:4317", Propagate: &off}
	if cfg.ShouldPropagate() {
		t.Error("ShouldPropagate() = true, want false when explicitly disabled")
	}
	on := true
	cfg = tracing.Config{Propagate: &on}
	if !cfg.ShouldPropagate() {
		t.Error("ShouldPropagate() = false, want explicit true without an endpoint")
	}
}

func TestNilProviderSafety(t *testing.T) {
	var p *tracing.Provider
	if p.Enabled() || p.ShouldPropagate() {
		t.Error("nil provider reports enabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("nil provider Shutdown() error = %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "test")
	span.End()
}

func TestRequestSpanLifecycle(t *testing.T) {
	exporter, p := setupTestProvider(t)

	tests := []struct {
		name       string
		status     int
		err        error
		wantStatus codes.Code
	}{
		{"ok", 200, nil, codes.Ok},
		{"client error is not a span error", 404, nil, codes.Ok},
		{"server error", 503, nil, codes.Error},
		{"transport error", 0, errors.New("connection refused"), codes.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			_, span := tracing.StartRequestSpan(context.Background(), p.Tracer(), http.MethodGet, "example.com", 7)
			tracing.EndSpan(span, tt.status, tt.err)

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("got %d spans, want 1", len(spans))
			}
			if spans[0].Name != "HTTP GET" {
				t.Errorf("span name = %q, want %q", spans[0].Name, "HTTP GET")
			}
			if spans[0].Status.Code != tt.wantStatus {
				t.Errorf("span status = %v, want %v", spans[0].Status.Code, tt.wantStatus)
			}

			var foundSeq bool
			for _, attr := range spans[0].Attributes {
				if string(attr.Key) == "rhi.sequence" && attr.Value.AsInt64() == 7 {
					foundSeq = true
				}
			}
			if !foundSeq {
				t.Error("rhi.sequence attribute not found")
			}
		})
	}
}

func TestInjectHTTPHeaders(t *testing.T) {
	_, p := setupTestProvider(t)

	ctx, span := p.Tracer().Start(context.Background(), "parent")
	defer span.End()

	headers := http.Header{}
	tracing.InjectHTTPHeaders(ctx, headers)

	if headers.Get("Traceparent") == "" {
		t.Fatal("traceparent header not injected")
	}
}
