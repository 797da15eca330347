package runner

import (
	"fmt"
	"time"
)

// FailureKind classifies a request attempt that produced no usable response.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureTimeout    FailureKind = "timeout"
	FailureConnection FailureKind = "connection"
	FailureProtocol   FailureKind = "protocol"
	FailureCanceled   FailureKind = "canceled"
	FailureInternal   FailureKind = "internal"
)

// Phases splits a request's latency into connection and transfer stages.
type Phases struct {
	DNS           time.Duration
	Connect       time.Duration
	TLS           time.Duration
	RequestWrite  time.Duration
	ResponseDelay time.Duration
	ResponseRead  time.Duration
}

// Completion is the immutable record of one finished request attempt.
//
// A response with any HTTP status, including 4xx and 5xx, is an outcome
// with a status code; Kind is only set when no full response was obtained.
type Completion struct {
	Sequence   int64
	Offset     time.Duration // admission time relative to run start
	Latency    time.Duration
	StatusCode int
	Bytes      int64
	Kind       FailureKind
	Err        error
	Phases     *Phases
}

// Failed reports whether the attempt ended without a complete response.
func (c Completion) Failed() bool {
	return c.Kind != FailureNone
}

// StatusClass returns the "2xx" style class of the status code, or "" for failures.
func (c Completion) StatusClass() string {
	if c.Failed() || c.StatusCode < 100 || c.StatusCode > 599 {
		return ""
	}
	return fmt.Sprintf("%dxx", c.StatusCode/100)
}
