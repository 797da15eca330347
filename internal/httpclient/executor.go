package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/torosent/rhi/internal/runner"
	"github.com/torosent/rhi/internal/tracing"
)

// ExecutorOptions configure an Executor.
type ExecutorOptions struct {
	Template *Template
	Client   *http.Client
	Timeout  time.Duration     // hard cap from send to body drained; 0 means none
	Phases   bool              // record httptrace phase timings
	Tracing  *tracing.Provider // optional
	Logger   *zap.Logger
}

// Executor performs one HTTP exchange per call and reports it as a runner.Completion.
type Executor struct {
	template *Template
	client   *http.Client
	timeout  time.Duration
	phases   bool
	tracing  *tracing.Provider
	log      *zap.Logger
}

var _ runner.Executor = (*Executor)(nil)

func NewExecutor(opt ExecutorOptions) (*Executor, error) {
	if opt.Template == nil {
		return nil, errors.New("request template is required")
	}
	if opt.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0, got %s", opt.Timeout)
	}
	if opt.Client == nil {
		client, err := NewClient(TransportOptions{})
		if err != nil {
			return nil, err
		}
		opt.Client = client
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &Executor{
		template: opt.Template,
		client:   opt.Client,
		timeout:  opt.Timeout,
		phases:   opt.Phases,
		tracing:  opt.Tracing,
		log:      opt.Logger,
	}, nil
}

// Execute sends one request and drains its body. Every outcome, including
// transport failures, is returned as a Completion.
func (e *Executor) Execute(parent context.Context, seq int64) runner.Completion {
	start := time.Now()

	ctx := parent
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, e.timeout)
		defer cancel()
	}

	var span trace.Span
	if e.tracing.Enabled() {
		ctx, span = tracing.StartRequestSpan(ctx, e.tracing.Tracer(), e.template.Method(), e.template.Host(), seq)
	}

	ct := &connTracker{}
	ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{GotConn: ct.gotConn})

	var pt *phaseTracer
	if e.phases {
		ctx, pt = withPhaseTracer(ctx)
	}

	c := e.exchange(parent, ctx)
	c.Latency = time.Since(start)
	if c.Kind == runner.FailureTimeout {
		// A timed-out connection may still carry the late response; never reuse it.
		ct.discard()
	}
	if pt != nil {
		c.Phases = pt.phases(start.Add(c.Latency))
	}
	if span != nil {
		tracing.EndSpan(span, c.StatusCode, c.Err,
			attribute.Int64("http.response.body.size", c.Bytes),
			attribute.String("rhi.failure", string(c.Kind)),
		)
	}
	if c.Failed() {
		e.log.Debug("request failed",
			zap.Int64("seq", seq),
			zap.String("kind", string(c.Kind)),
			zap.Duration("latency", c.Latency),
			zap.Error(c.Err),
		)
	}
	return c
}

func (e *Executor) exchange(parent, ctx context.Context) runner.Completion {
	req, err := e.template.NewRequest(ctx)
	if err != nil {
		return runner.Completion{Kind: runner.FailureInternal, Err: err}
	}
	if e.tracing.ShouldPropagate() {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return runner.Completion{Kind: classify(parent, ctx, err), Err: err}
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return runner.Completion{
			StatusCode: resp.StatusCode,
			Bytes:      n,
			Kind:       classify(parent, ctx, err),
			Err:        fmt.Errorf("read response body: %w", err),
		}
	}
	return runner.Completion{StatusCode: resp.StatusCode, Bytes: n}
}

// classify maps a transport error onto a failure kind. Cancellation of the
// run context wins; an expired request context is a timeout whatever error
// the transport surfaced.
func classify(parent, ctx context.Context, err error) runner.FailureKind {
	if parent.Err() != nil {
		return runner.FailureCanceled
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return runner.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return runner.FailureTimeout
	}
	if errors.Is(err, context.Canceled) {
		return runner.FailureCanceled
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return runner.FailureConnection
	}
	return runner.FailureProtocol
}

// connTracker remembers the connection an exchange ran on. HTTP/2 keeps a
// connection pooled after one of its streams is reset, so a timed-out
// exchange closes the connection itself.
type connTracker struct {
	mu   sync.Mutex
	conn net.Conn
}

func (t *connTracker) gotConn(info httptrace.GotConnInfo) {
	t.mu.Lock()
	t.conn = info.Conn
	t.mu.Unlock()
}

func (t *connTracker) discard() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
