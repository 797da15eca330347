package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/torosent/rhi/internal/metrics"
	"github.com/torosent/rhi/internal/runner"
)

var csvHeader = []string{
	"sequence",
	"offset",
	"response-time",
	"DNS+dialup",
	"DNS",
	"request-write",
	"response-delay",
	"response-read",
	"status-code",
	"bytes",
	"failure",
}

// PrintCSV writes one row per request, ordered by sequence. Durations are in seconds.
// The snapshot must come from a collector that retains records.
func PrintCSV(w io.Writer, s metrics.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range s.Records {
		if err := cw.Write(csvRow(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(rec runner.Completion) []string {
	var p runner.Phases
	if rec.Phases != nil {
		p = *rec.Phases
	}
	status := ""
	if rec.StatusCode > 0 {
		status = strconv.Itoa(rec.StatusCode)
	}
	return []string{
		strconv.FormatInt(rec.Sequence, 10),
		secs(rec.Offset),
		secs(rec.Latency),
		secs(p.DNS + p.Connect),
		secs(p.DNS),
		secs(p.RequestWrite),
		secs(p.ResponseDelay),
		secs(p.ResponseRead),
		status,
		strconv.FormatInt(rec.Bytes, 10),
		string(rec.Kind),
	}
}

func secs(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 4, 64)
}
