package metrics

import (
	"time"

	"github.com/torosent/rhi/internal/runner"
)

// Percentile is one latency quantile of a run.
type Percentile struct {
	Quantile  float64       `json:"quantile" yaml:"quantile"`
	Latency   time.Duration `json:"-" yaml:"-"`
	LatencyMs float64       `json:"latency_ms" yaml:"latency_ms"`
}

// PhaseStats holds mean connection and transfer phase timings.
type PhaseStats struct {
	DNS           time.Duration `json:"-" yaml:"-"`
	Connect       time.Duration `json:"-" yaml:"-"`
	TLS           time.Duration `json:"-" yaml:"-"`
	RequestWrite  time.Duration `json:"-" yaml:"-"`
	ResponseDelay time.Duration `json:"-" yaml:"-"`
	ResponseRead  time.Duration `json:"-" yaml:"-"`

	DNSMs           float64 `json:"dns_ms" yaml:"dns_ms"`
	ConnectMs       float64 `json:"connect_ms" yaml:"connect_ms"`
	TLSMs           float64 `json:"tls_ms" yaml:"tls_ms"`
	RequestWriteMs  float64 `json:"request_write_ms" yaml:"request_write_ms"`
	ResponseDelayMs float64 `json:"response_delay_ms" yaml:"response_delay_ms"`
	ResponseReadMs  float64 `json:"response_read_ms" yaml:"response_read_ms"`
}

// Snapshot is the immutable final aggregate of a run.
type Snapshot struct {
	Total          int64            `json:"total" yaml:"total"`
	Successes      int64            `json:"successes" yaml:"successes"`
	Failures       int64            `json:"failures" yaml:"failures"`
	Dropped        int64            `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	ByClass        map[string]int64 `json:"by_class,omitempty" yaml:"by_class,omitempty"`
	ByStatus       map[int]int64    `json:"by_status,omitempty" yaml:"by_status,omitempty"`
	ByKind         map[string]int64 `json:"by_kind,omitempty" yaml:"by_kind,omitempty"`
	Errors         map[string]int64 `json:"errors,omitempty" yaml:"errors,omitempty"`
	Bytes          int64            `json:"bytes" yaml:"bytes"`
	AvgBytes       int64            `json:"avg_bytes" yaml:"avg_bytes"`
	RequestsPerSec float64          `json:"requests_per_sec" yaml:"requests_per_sec"`

	Min         time.Duration `json:"-" yaml:"-"`
	Max         time.Duration `json:"-" yaml:"-"`
	Mean        time.Duration `json:"-" yaml:"-"`
	Duration    time.Duration `json:"-" yaml:"-"`
	Percentiles []Percentile  `json:"percentiles,omitempty" yaml:"percentiles,omitempty"`
	Phases      *PhaseStats   `json:"phases,omitempty" yaml:"phases,omitempty"`

	// JSON-friendly millisecond fields.
	MinMs      float64 `json:"min_latency_ms" yaml:"min_latency_ms"`
	MaxMs      float64 `json:"max_latency_ms" yaml:"max_latency_ms"`
	MeanMs     float64 `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	DurationMs float64 `json:"duration_ms" yaml:"duration_ms"`

	Records []runner.Completion `json:"-" yaml:"-"`
}

// Percentile returns the latency at quantile q (e.g. 99), if it was computed.
func (s Snapshot) Percentile(q float64) (time.Duration, bool) {
	for _, p := range s.Percentiles {
		if p.Quantile == q {
			return p.Latency, true
		}
	}
	return 0, false
}

func (s *Snapshot) fillMillis() {
	s.MinMs = Millis(s.Min)
	s.MaxMs = Millis(s.Max)
	s.MeanMs = Millis(s.Mean)
	s.DurationMs = Millis(s.Duration)
	for i := range s.Percentiles {
		s.Percentiles[i].LatencyMs = Millis(s.Percentiles[i].Latency)
	}
	if p := s.Phases; p != nil {
		p.DNSMs = Millis(p.DNS)
		p.ConnectMs = Millis(p.Connect)
		p.TLSMs = Millis(p.TLS)
		p.RequestWriteMs = Millis(p.RequestWrite)
		p.ResponseDelayMs = Millis(p.ResponseDelay)
		p.ResponseReadMs = Millis(p.ResponseRead)
	}
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
