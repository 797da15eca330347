package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/torosent/rhi/internal/runner"
)

const maxErrorKeyLen = 200

var kindLabels = map[runner.FailureKind]string{
	runner.FailureTimeout:    "Request timeout",
	runner.FailureConnection: "Connection error",
	runner.FailureProtocol:   "Protocol error",
	runner.FailureCanceled:   "Canceled",
	runner.FailureInternal:   "Internal error",
}

// KindLabel returns a human-friendly label for a failure kind.
func KindLabel(kind string) string {
	if label, ok := kindLabels[runner.FailureKind(kind)]; ok {
		return label
	}
	if kind == "" {
		return "Unknown error"
	}
	return kind
}

// errorKey groups failures by their message. Messages are flattened to one
// line and truncated.
func errorKey(rec runner.Completion) string {
	if rec.Err == nil {
		return KindLabel(string(rec.Kind))
	}
	msg := strings.Join(strings.Fields(rec.Err.Error()), " ")
	if msg == "" {
		return KindLabel(string(rec.Kind))
	}
	return truncateKey(msg, maxErrorKeyLen)
}

// truncateKey cuts s to at most n bytes without splitting a rune.
func truncateKey(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
