package runner

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr string
	}{
		{
			name:    "valid defaults",
			profile: Profile{TotalRequests: 200, Concurrency: 50},
		},
		{
			name:    "single batch",
			profile: Profile{TotalRequests: 20, Concurrency: 20, RatePerSecond: 1},
		},
		{
			name:    "total below concurrency",
			profile: Profile{TotalRequests: 5, Concurrency: 10},
			wantErr: "total requests (5) cannot be smaller than concurrency (10)",
		},
		{
			name:    "zero concurrency",
			profile: Profile{TotalRequests: 5},
			wantErr: "concurrency must be >= 1",
		},
		{
			name:    "negative rate",
			profile: Profile{TotalRequests: 5, Concurrency: 1, RatePerSecond: -1},
			wantErr: "rate must be >= 0",
		},
		{
			name:    "negative timeout and duration",
			profile: Profile{TotalRequests: 5, Concurrency: 1, RequestTimeout: -time.Second, Duration: -time.Second},
			wantErr: "request timeout must be >= 0; duration must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidProfile) {
				t.Fatalf("Validate() error = %v, want ErrInvalidProfile", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestProfileBurst(t *testing.T) {
	tests := []struct {
		rps  int
		tick time.Duration
		want int
	}{
		{rps: 0, tick: DefaultTickInterval, want: 0},
		{rps: 1, tick: DefaultTickInterval, want: 1},
		{rps: 20, tick: 50 * time.Millisecond, want: 1},
		{rps: 100, tick: DefaultTickInterval, want: 10},
		{rps: 105, tick: DefaultTickInterval, want: 11},
		{rps: 10, tick: 5 * time.Second, want: 10},
	}
	for _, tt := range tests {
		p := Profile{RatePerSecond: tt.rps, TickInterval: tt.tick}
		if got := p.burst(); got != tt.want {
			t.Errorf("burst(rps=%d, tick=%s) = %d, want %d", tt.rps, tt.tick, got, tt.want)
		}
	}
}

func TestProfileRateLimited(t *testing.T) {
	if (Profile{TotalRequests: 10, Concurrency: 10, RatePerSecond: 5}).rateLimited() {
		t.Error("N == C should bypass the token bucket")
	}
	if (Profile{TotalRequests: 100, Concurrency: 10}).rateLimited() {
		t.Error("rate 0 should bypass the token bucket")
	}
	if !(Profile{TotalRequests: 100, Concurrency: 10, RatePerSecond: 5}).rateLimited() {
		t.Error("rate 5 with N > C should be limited")
	}
}

func TestProfileNormalize(t *testing.T) {
	p := Profile{TotalRequests: 1, Concurrency: 1}
	p.normalize()
	if p.TickInterval != DefaultTickInterval {
		t.Errorf("TickInterval = %s, want %s", p.TickInterval, DefaultTickInterval)
	}
	if p.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", p.Workers)
	}
}

func TestCompletionStatusClass(t *testing.T) {
	tests := []struct {
		c    Completion
		want string
	}{
		{Completion{StatusCode: 200}, "2xx"},
		{Completion{StatusCode: 404}, "4xx"},
		{Completion{StatusCode: 503}, "5xx"},
		{Completion{Kind: FailureTimeout}, ""},
		{Completion{StatusCode: 0}, ""},
	}
	for _, tt := range tests {
		if got := tt.c.StatusClass(); got != tt.want {
			t.Errorf("StatusClass(%+v) = %q, want %q", tt.c, got, tt.want)
		}
	}
}
