package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/torosent/rhi/internal/runner"
)

// PromRecorder mirrors completions into Prometheus collectors on a private registry.
type PromRecorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	bytes    prometheus.Counter
	inFlight prometheus.Gauge
}

func NewPromRecorder() *PromRecorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PromRecorder{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rhi_requests_total",
			Help: "Completed requests by outcome (status class or failure kind).",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rhi_request_duration_seconds",
			Help:    "Request latency from send until the body was drained.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		}),
		bytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "rhi_response_bytes_total",
			Help: "Response body bytes drained.",
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rhi_requests_in_flight",
			Help: "Requests currently admitted and not yet completed.",
		}),
	}
}

// Record implements runner.Sink.
func (p *PromRecorder) Record(c runner.Completion) {
	outcome := c.StatusClass()
	if c.Failed() {
		outcome = string(c.Kind)
	}
	if outcome == "" {
		outcome = "unknown"
	}
	p.requests.WithLabelValues(outcome).Inc()
	p.duration.Observe(c.Latency.Seconds())
	if c.Bytes > 0 {
		p.bytes.Add(float64(c.Bytes))
	}
}

// InFlight returns the gauge the dispatcher reports admissions to.
func (p *PromRecorder) InFlight() prometheus.Gauge {
	return p.inFlight
}

// Registry exposes the recorder's registry.
func (p *PromRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format.
func (p *PromRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{DisableCompression: true})
}

// Serve exposes /metrics on addr until ctx is done.
func (p *PromRecorder) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Fanout forwards every completion to each non-nil sink in order.
func Fanout(sinks ...runner.Sink) runner.Sink {
	var out fanout
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type fanout []runner.Sink

func (f fanout) Record(c runner.Completion) {
	for _, s := range f {
		s.Record(c)
	}
}
