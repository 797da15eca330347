package httpclient

import (
	"context"
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/torosent/rhi/internal/runner"
)

// phaseTracer collects connection and transfer milestones for one request.
// Transport callbacks may fire from dialing goroutines, hence the mutex.
type phaseTracer struct {
	mu           sync.Mutex
	dnsStart     time.Time
	dnsDone      time.Time
	connectStart time.Time
	connectDone  time.Time
	tlsStart     time.Time
	tlsDone      time.Time
	gotConn      time.Time
	wroteRequest time.Time
	firstByte    time.Time
}

func withPhaseTracer(ctx context.Context) (context.Context, *phaseTracer) {
	pt := &phaseTracer{}
	return httptrace.WithClientTrace(ctx, pt.clientTrace()), pt
}

func (pt *phaseTracer) mark(dst *time.Time, onlyFirst bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if onlyFirst && !dst.IsZero() {
		return
	}
	*dst = time.Now()
}

func (pt *phaseTracer) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { pt.mark(&pt.dnsStart, true) },
		DNSDone:  func(httptrace.DNSDoneInfo) { pt.mark(&pt.dnsDone, false) },
		ConnectStart: func(string, string) {
			pt.mark(&pt.connectStart, true)
		},
		ConnectDone: func(string, string, error) {
			pt.mark(&pt.connectDone, false)
		},
		TLSHandshakeStart:    func() { pt.mark(&pt.tlsStart, true) },
		TLSHandshakeDone:     func(tls.ConnectionState, error) { pt.mark(&pt.tlsDone, false) },
		GotConn:              func(httptrace.GotConnInfo) { pt.mark(&pt.gotConn, false) },
		WroteRequest:         func(httptrace.WroteRequestInfo) { pt.mark(&pt.wroteRequest, false) },
		GotFirstResponseByte: func() { pt.mark(&pt.firstByte, true) },
	}
}

// phases converts the milestones into durations. Stages that never happened
// (DNS and connect on a reused connection, TLS on plain HTTP) stay zero.
func (pt *phaseTracer) phases(end time.Time) *runner.Phases {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return &runner.Phases{
		DNS:           between(pt.dnsStart, pt.dnsDone),
		Connect:       between(pt.connectStart, pt.connectDone),
		TLS:           between(pt.tlsStart, pt.tlsDone),
		RequestWrite:  between(pt.gotConn, pt.wroteRequest),
		ResponseDelay: between(pt.wroteRequest, pt.firstByte),
		ResponseRead:  between(pt.firstByte, end),
	}
}

func between(from, to time.Time) time.Duration {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0
	}
	return to.Sub(from)
}
