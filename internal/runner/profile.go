package runner

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTickInterval is the token bucket cadence used when a profile does not set one.
const DefaultTickInterval = 100 * time.Millisecond

// ErrInvalidProfile is returned before a run starts when the profile cannot be honored.
var ErrInvalidProfile = errors.New("invalid load profile")

// Profile holds the immutable load parameters of one run.
type Profile struct {
	TotalRequests  int           // requests to issue; must be >= Concurrency
	Concurrency    int           // maximum in-flight requests
	RatePerSecond  int           // admissions per second (0 means unbounded)
	RequestTimeout time.Duration // per-request hard cap (0 means none)
	Workers        int           // parallelism hint for the Go scheduler
	Duration       time.Duration // optional wall-clock cap on admission (0 means none)
	TickInterval   time.Duration // token replenishment cadence
}

// Validate reports every problem with the profile at once.
func (p Profile) Validate() error {
	var issues []string
	if p.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if p.TotalRequests < 1 {
		issues = append(issues, "total requests must be >= 1")
	}
	if p.Concurrency >= 1 && p.TotalRequests < p.Concurrency {
		issues = append(issues, fmt.Sprintf("total requests (%d) cannot be smaller than concurrency (%d)", p.TotalRequests, p.Concurrency))
	}
	if p.RatePerSecond < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if p.RequestTimeout < 0 {
		issues = append(issues, "request timeout must be >= 0")
	}
	if p.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if p.TickInterval < 0 {
		issues = append(issues, "tick interval must be >= 0")
	}
	if len(issues) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(issues, "; "))
	}
	return nil
}

func (p *Profile) normalize() {
	if p.TickInterval <= 0 {
		p.TickInterval = DefaultTickInterval
	}
	if p.Workers <= 0 {
		p.Workers = runtime.NumCPU()
	}
}

// rateLimited reports whether admissions go through the token bucket.
// A profile with N == C is a single fully concurrent batch.
func (p Profile) rateLimited() bool {
	return p.RatePerSecond > 0 && p.TotalRequests != p.Concurrency
}

// burst is one tick's worth of tokens, never less than one and never more
// than one second's worth.
func (p Profile) burst() int {
	if p.RatePerSecond <= 0 {
		return 0
	}
	perTick := int64(p.RatePerSecond) * int64(p.TickInterval)
	b := int((perTick + int64(time.Second) - 1) / int64(time.Second))
	if b < 1 {
		b = 1
	}
	if b > p.RatePerSecond {
		b = p.RatePerSecond
	}
	return b
}

func defaultLimiterFactory(rps, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
