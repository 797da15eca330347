package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/rhi/internal/metrics"
	"github.com/torosent/rhi/internal/runner"
)

func sampleReport() Report {
	c := metrics.NewCollector(metrics.WithRecords())
	c.Record(runner.Completion{Sequence: 2, Offset: 20 * time.Millisecond, Latency: 30 * time.Millisecond, StatusCode: 500, Bytes: 5})
	c.Record(runner.Completion{Sequence: 0, Latency: 10 * time.Millisecond, StatusCode: 200, Bytes: 11,
		Phases: &runner.Phases{DNS: time.Millisecond, Connect: 2 * time.Millisecond, ResponseDelay: 5 * time.Millisecond}})
	c.Record(runner.Completion{Sequence: 1, Offset: 10 * time.Millisecond, Latency: 100 * time.Millisecond,
		Kind: runner.FailureTimeout, Err: errors.New("context deadline exceeded")})

	return Report{
		RunID:       "01J0000000000000000000TEST",
		Target:      "http://example.com",
		Method:      "GET",
		Requests:    3,
		Concurrency: 1,
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Issued:      3,
		Stats:       c.Snapshot(time.Second),
	}
}

func TestPrintReportBasic(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleReport())

	output := buf.String()
	for _, want := range []string{
		"Summary:",
		"Requests/sec: 3.0000",
		"Slowest:      0.1000 secs",
		"Latency distribution:",
		"99% in",
		"Details (average):",
		"[200]\t1 responses",
		"[500]\t1 responses",
		"Request timeout:\t1",
		"[1]\tcontext deadline exceeded",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Aborted") {
		t.Error("unexpected abort notice")
	}
}

func TestPrintReportPartialRun(t *testing.T) {
	r := sampleReport()
	r.Requests = 10
	r.Aborted = true

	var buf bytes.Buffer
	PrintReport(&buf, r)
	if !strings.Contains(buf.String(), "Aborted after 3 of 10 requests") {
		t.Errorf("expected abort notice in output:\n%s", buf.String())
	}
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	PrintHistory(&buf, []Report{sampleReport()})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header and one run:\n%s", len(lines), buf.String())
	}
	fields := strings.Fields(lines[1])
	want := []string{"01J0000000000000000000TEST", "2026-01-02T03:04:05Z", "GET", "3", "1", "3.00", "http://example.com"}
	if strings.Join(fields, " ") != strings.Join(want, " ") {
		t.Errorf("row = %q, want %q", fields, want)
	}

	buf.Reset()
	PrintHistory(&buf, nil)
	if buf.String() != "No runs recorded.\n" {
		t.Errorf("empty history = %q", buf.String())
	}
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, sampleReport()); err != nil {
		t.Fatalf("PrintJSONReport failed: %v", err)
	}

	var decoded struct {
		RunID string `json:"run_id"`
		Stats struct {
			Total    int64            `json:"total"`
			ByStatus map[string]int64 `json:"by_status"`
			ByKind   map[string]int64 `json:"by_kind"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.RunID != "01J0000000000000000000TEST" || decoded.Stats.Total != 3 {
		t.Errorf("unexpected JSON report: %+v", decoded)
	}
	if decoded.Stats.ByStatus["500"] != 1 || decoded.Stats.ByKind["timeout"] != 1 {
		t.Errorf("unexpected breakdown: %+v", decoded.Stats)
	}
}

func TestPrintYAMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintYAMLReport(&buf, sampleReport()); err != nil {
		t.Fatalf("PrintYAMLReport failed: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if decoded["method"] != "GET" {
		t.Errorf("method = %v, want GET", decoded["method"])
	}
	stats, ok := decoded["stats"].(map[string]any)
	if !ok {
		t.Fatalf("stats section missing:\n%s", buf.String())
	}
	if stats["failures"] != 1 {
		t.Errorf("failures = %v, want 1", stats["failures"])
	}
	if _, found := stats["percentiles"]; !found {
		t.Errorf("percentiles missing:\n%s", buf.String())
	}
}

func TestPrintCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintCSV(&buf, sampleReport().Stats); err != nil {
		t.Fatalf("PrintCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", rows[0])
	}
	for i, row := range rows[1:] {
		if row[0] != []string{"0", "1", "2"}[i] {
			t.Errorf("row %d sequence = %s, want rows ordered by sequence", i, row[0])
		}
	}
	// sequence 0: 10ms latency, 3ms DNS+dialup, status 200.
	if got := rows[1]; got[2] != "0.0100" || got[3] != "0.0030" || got[8] != "200" || got[10] != "" {
		t.Errorf("row for sequence 0 = %v", got)
	}
	// sequence 1 timed out: no status, failure kind set.
	if got := rows[2]; got[8] != "" || got[10] != "timeout" {
		t.Errorf("row for sequence 1 = %v", got)
	}
}
