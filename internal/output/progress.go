package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/rhi/internal/metrics"
)

// ProgressSource reports live counts while a run is in progress.
type ProgressSource interface {
	Progress() metrics.Progress
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	source   ProgressSource
	total    int64
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
// total is the number of requests the run will issue.
func NewProgressReporter(source ProgressSource, total int64, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		source:   source,
		total:    total,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and terminates the progress line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		p.print()
		fmt.Fprintln(p.writer)
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *ProgressReporter) print() {
	fmt.Fprint(p.writer, progressLine(p.source.Progress(), p.total, time.Since(p.start)))
}

func progressLine(pr metrics.Progress, total int64, elapsed time.Duration) string {
	rps := 0.0
	if elapsed > 0 {
		rps = float64(pr.Total) / elapsed.Seconds()
	}
	pct := 0.0
	if total > 0 {
		pct = float64(pr.Total) / float64(total) * 100
	}
	return fmt.Sprintf("\rRequests: %d/%d (%.0f%%) | Successes: %d | Failures: %d | RPS: %.1f",
		pr.Total, total, pct, pr.Successes, pr.Failures, rps)
}
