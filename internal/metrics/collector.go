package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/rhi/internal/runner"
)

// Quantiles reported in every snapshot.
var Quantiles = []float64{10, 25, 50, 75, 90, 95, 99}

const (
	lowestTrackableMicros  = 1
	highestTrackableMicros = int64(10 * time.Minute / time.Microsecond)
	significantFigures     = 3
)

// Collector aggregates completion records. It is safe for concurrent use and
// insensitive to the order records arrive in.
type Collector struct {
	mu          sync.Mutex
	hist        *hdrhistogram.Histogram
	successes   int64
	failures    int64
	minLatency  time.Duration
	maxLatency  time.Duration
	sumLatency  time.Duration
	bytes       int64
	byStatus    map[int]int64
	byKind      map[runner.FailureKind]int64
	byError     map[string]int64
	phaseSum    runner.Phases
	phaseCount  int64
	keepRecords bool
	records     []runner.Completion
	frozen      bool
	dropped     int64
}

// CollectorOption customizes a Collector.
type CollectorOption func(*Collector)

// WithRecords retains every completion so it can be listed per request.
func WithRecords() CollectorOption {
	return func(c *Collector) { c.keepRecords = true }
}

func NewCollector(opts ...CollectorOption) *Collector {
	// Track latencies from 1µs up to 10min with 3 significant figures.
	c := &Collector{
		hist:     hdrhistogram.New(lowestTrackableMicros, highestTrackableMicros, significantFigures),
		byStatus: make(map[int]int64),
		byKind:   make(map[runner.FailureKind]int64),
		byError:  make(map[string]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record adds one completion. Records arriving after Snapshot are dropped.
func (c *Collector) Record(rec runner.Completion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		c.dropped++
		return
	}

	latency := rec.Latency
	us := latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)

	c.sumLatency += latency
	if c.successes+c.failures == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}
	c.bytes += rec.Bytes

	if rec.Failed() {
		c.failures++
		c.byKind[rec.Kind]++
		c.byError[errorKey(rec)]++
	} else {
		c.successes++
		c.byStatus[rec.StatusCode]++
	}

	if p := rec.Phases; p != nil {
		c.phaseCount++
		c.phaseSum.DNS += p.DNS
		c.phaseSum.Connect += p.Connect
		c.phaseSum.TLS += p.TLS
		c.phaseSum.RequestWrite += p.RequestWrite
		c.phaseSum.ResponseDelay += p.ResponseDelay
		c.phaseSum.ResponseRead += p.ResponseRead
	}

	if c.keepRecords {
		c.records = append(c.records, rec)
	}
}

// Dropped reports how many records arrived after the collector was frozen.
func (c *Collector) Dropped() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Snapshot freezes the collector and returns the final aggregate. elapsed is
// the run's wall-clock duration used for the request rate.
func (c *Collector) Snapshot(elapsed time.Duration) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frozen = true
	total := c.successes + c.failures
	snap := Snapshot{
		Total:     total,
		Successes: c.successes,
		Failures:  c.failures,
		Dropped:   c.dropped,
		Bytes:     c.bytes,
		Duration:  elapsed,
	}

	if total > 0 {
		snap.Min = c.minLatency
		snap.Max = c.maxLatency
		snap.Mean = time.Duration(int64(c.sumLatency) / total)
	}
	if c.hist.TotalCount() > 0 {
		snap.Percentiles = make([]Percentile, 0, len(Quantiles))
		for _, q := range Quantiles {
			v := time.Duration(c.hist.ValueAtQuantile(q)) * time.Microsecond
			snap.Percentiles = append(snap.Percentiles, Percentile{Quantile: q, Latency: v})
		}
	}
	if elapsed > 0 && total > 0 {
		snap.RequestsPerSec = float64(total) / elapsed.Seconds()
	}
	if c.successes > 0 {
		snap.AvgBytes = c.bytes / c.successes
	}

	if len(c.byStatus) > 0 {
		snap.ByStatus = make(map[int]int64, len(c.byStatus))
		snap.ByClass = make(map[string]int64)
		for code, n := range c.byStatus {
			snap.ByStatus[code] = n
			snap.ByClass[runner.Completion{StatusCode: code}.StatusClass()] += n
		}
	}
	if len(c.byKind) > 0 {
		snap.ByKind = make(map[string]int64, len(c.byKind))
		for kind, n := range c.byKind {
			snap.ByKind[string(kind)] = n
		}
	}
	if len(c.byError) > 0 {
		snap.Errors = make(map[string]int64, len(c.byError))
		for k, n := range c.byError {
			snap.Errors[k] = n
		}
	}

	if c.phaseCount > 0 {
		n := time.Duration(c.phaseCount)
		snap.Phases = &PhaseStats{
			DNS:           c.phaseSum.DNS / n,
			Connect:       c.phaseSum.Connect / n,
			TLS:           c.phaseSum.TLS / n,
			RequestWrite:  c.phaseSum.RequestWrite / n,
			ResponseDelay: c.phaseSum.ResponseDelay / n,
			ResponseRead:  c.phaseSum.ResponseRead / n,
		}
	}

	if len(c.records) > 0 {
		snap.Records = append([]runner.Completion(nil), c.records...)
		sort.Slice(snap.Records, func(i, j int) bool {
			return snap.Records[i].Sequence < snap.Records[j].Sequence
		})
	}

	snap.fillMillis()
	return snap
}

// Progress is a live view of the counts recorded so far.
type Progress struct {
	Total     int64
	Successes int64
	Failures  int64
}

// Progress returns live counts without freezing the collector.
func (c *Collector) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Progress{
		Total:     c.successes + c.failures,
		Successes: c.successes,
		Failures:  c.failures,
	}
}
