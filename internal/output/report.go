package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/rhi/internal/metrics"
)

// Report is the rendered result of one run: what was sent and how it went.
type Report struct {
	RunID       string           `json:"run_id" yaml:"run_id"`
	Target      string           `json:"target" yaml:"target"`
	Method      string           `json:"method" yaml:"method"`
	Requests    int              `json:"requests" yaml:"requests"`
	Concurrency int              `json:"concurrency" yaml:"concurrency"`
	Rate        int              `json:"rate,omitempty" yaml:"rate,omitempty"`
	StartedAt   time.Time        `json:"started_at" yaml:"started_at"`
	Issued      int64            `json:"issued" yaml:"issued"`
	Stopped     bool             `json:"stopped,omitempty" yaml:"stopped,omitempty"`
	Aborted     bool             `json:"aborted,omitempty" yaml:"aborted,omitempty"`
	Stats       metrics.Snapshot `json:"stats" yaml:"stats"`
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, r Report) {
	s := r.Stats
	fmt.Fprintln(w, "\nSummary:")
	if r.RunID != "" {
		fmt.Fprintf(w, "  Run:          %s\n", r.RunID)
	}
	fmt.Fprintf(w, "  Total:        %.4f secs\n", s.Duration.Seconds())
	fmt.Fprintf(w, "  Slowest:      %.4f secs\n", s.Max.Seconds())
	fmt.Fprintf(w, "  Fastest:      %.4f secs\n", s.Min.Seconds())
	fmt.Fprintf(w, "  Average:      %.4f secs\n", s.Mean.Seconds())
	fmt.Fprintf(w, "  Requests/sec: %.4f\n", s.RequestsPerSec)
	if s.Bytes > 0 {
		fmt.Fprintf(w, "  Total data:   %d bytes\n", s.Bytes)
		fmt.Fprintf(w, "  Size/request: %d bytes\n", s.AvgBytes)
	}
	switch {
	case r.Aborted:
		fmt.Fprintf(w, "  Aborted after %d of %d requests\n", r.Issued, r.Requests)
	case r.Stopped:
		fmt.Fprintf(w, "  Time limit reached after %d of %d requests\n", r.Issued, r.Requests)
	}

	if len(s.Percentiles) > 0 {
		fmt.Fprintln(w, "\nLatency distribution:")
		for _, p := range s.Percentiles {
			fmt.Fprintf(w, "  %g%% in %.4f secs\n", p.Quantile, p.Latency.Seconds())
		}
	}

	if p := s.Phases; p != nil {
		fmt.Fprintln(w, "\nDetails (average):")
		fmt.Fprintf(w, "  DNS+dialup:   %.4f secs\n", (p.DNS + p.Connect).Seconds())
		fmt.Fprintf(w, "  DNS-lookup:   %.4f secs\n", p.DNS.Seconds())
		fmt.Fprintf(w, "  TLS:          %.4f secs\n", p.TLS.Seconds())
		fmt.Fprintf(w, "  req write:    %.4f secs\n", p.RequestWrite.Seconds())
		fmt.Fprintf(w, "  resp wait:    %.4f secs\n", p.ResponseDelay.Seconds())
		fmt.Fprintf(w, "  resp read:    %.4f secs\n", p.ResponseRead.Seconds())
	}

	if rows := metrics.FlattenStatusBuckets(s.ByStatus); len(rows) > 0 {
		fmt.Fprintln(w, "\nStatus code distribution:")
		for _, row := range rows {
			fmt.Fprintf(w, "  [%d]\t%d responses\n", row.Code, row.Count)
		}
	}

	if rows := metrics.FlattenCounts(s.ByKind); len(rows) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, row := range rows {
			fmt.Fprintf(w, "  %s:\t%d\n", metrics.KindLabel(row.Label), row.Count)
		}
	}

	if rows := metrics.FlattenCounts(s.Errors); len(rows) > 0 {
		fmt.Fprintln(w, "\nError distribution:")
		for _, row := range rows {
			fmt.Fprintf(w, "  [%d]\t%s\n", row.Count, row.Label)
		}
	}

	if s.Dropped > 0 {
		fmt.Fprintf(w, "\n%d completions arrived after the snapshot and were not counted\n", s.Dropped)
	}
	fmt.Fprintln(w)
}

// PrintHistory lists stored runs, one line each, in the order given.
func PrintHistory(w io.Writer, runs []Report) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-26s  %-20s  %-7s  %8s  %8s  %10s  %s\n", "RUN ID", "STARTED", "METHOD", "TOTAL", "FAILED", "REQ/SEC", "TARGET")
	for _, r := range runs {
		fmt.Fprintf(w, "%-26s  %-20s  %-7s  %8d  %8d  %10.2f  %s\n",
			r.RunID,
			r.StartedAt.UTC().Format(time.RFC3339),
			r.Method,
			r.Stats.Total,
			r.Stats.Failures,
			r.Stats.RequestsPerSec,
			r.Target,
		)
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
