package metrics

import (
	"sort"

	"github.com/torosent/rhi/internal/runner"
)

// StatusBucket is the response count for one status code.
type StatusBucket struct {
	Class string
	Code  int
	Count int64
}

// FlattenStatusBuckets converts a status code map into sorted rows.
// Rows are sorted by descending count, then by code for stability.
func FlattenStatusBuckets(byStatus map[int]int64) []StatusBucket {
	if len(byStatus) == 0 {
		return nil
	}
	rows := make([]StatusBucket, 0, len(byStatus))
	for code, count := range byStatus {
		rows = append(rows, StatusBucket{
			Class: runner.Completion{StatusCode: code}.StatusClass(),
			Code:  code,
			Count: count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// CountBucket is a labelled count, used for failure kinds and error messages.
type CountBucket struct {
	Label string
	Count int64
}

// FlattenCounts sorts a label map by descending count, then label.
func FlattenCounts(counts map[string]int64) []CountBucket {
	if len(counts) == 0 {
		return nil
	}
	rows := make([]CountBucket, 0, len(counts))
	for label, count := range counts {
		rows = append(rows, CountBucket{Label: label, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Label < rows[j].Label
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
