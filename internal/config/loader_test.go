package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		input interface{}
		want  bool
	}{
		{true, true},
		{"true", true},
		{"1", true},
		{false, false},
		{"false", false},
		{"0", false},
		{nil, false},
	}

	for _, tt := range tests {
		got, err := asBool(tt.input)
		if err != nil {
			t.Errorf("asBool(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asBool(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{time.Second, time.Second},
		{"1m", time.Minute},
		{10, 10 * time.Second}, // int treated as seconds
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		entry     string
		wantName  string
		wantValue string
		wantErr   bool
	}{
		{entry: "Accept: text/html", wantName: "Accept", wantValue: "text/html"},
		{entry: "x-trace-id:abc", wantName: "X-Trace-Id", wantValue: "abc"},
		{entry: "Link: <http://a>; rel=next", wantName: "Link", wantValue: "<http://a>; rel=next"},
		{entry: "X-Empty:", wantName: "X-Empty", wantValue: ""},
		{entry: "NoColon", wantErr: true},
		{entry: " : value", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			name, value, err := parseHeader(tt.entry)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseHeader(%q) error = nil, want error", tt.entry)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseHeader(%q) error = %v", tt.entry, err)
			}
			if name != tt.wantName || value != tt.wantValue {
				t.Errorf("parseHeader(%q) = %q, %q, want %q, %q", tt.entry, name, value, tt.wantName, tt.wantValue)
			}
		})
	}
}

func TestParseAuth(t *testing.T) {
	user, pass, err := parseAuth("alice:s3:cr3t")
	if err != nil {
		t.Fatalf("parseAuth() error = %v", err)
	}
	if user != "alice" || pass != "s3:cr3t" {
		t.Errorf("parseAuth() = %q, %q", user, pass)
	}

	for _, bad := range []string{"alice", ":secret"} {
		if _, _, err := parseAuth(bad); err == nil {
			t.Errorf("parseAuth(%q) error = nil, want error", bad)
		}
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := Default()
	settings := map[string]interface{}{
		"url":          "http://example.com",
		"method":       "POST",
		"requests":     500,
		"concurrency":  10,
		"timeout":      "5s",
		"content_type": "application/json",
		"auth":         "user:pass",
		"headers": map[string]interface{}{
			"x-env": "staging",
		},
		"tracing": map[string]interface{}{
			"endpoint":    "collector:4318",
			"protocol":    "HTTP",
			"sample_rate": 0.25,
			"propagate":   false,
		},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.TargetURL != "http://example.com" {
		t.Errorf("TargetURL = %q, want http://example.com", cfg.TargetURL)
	}
	if cfg.Method != "POST" {
		t.Errorf("Method = %q, want POST", cfg.Method)
	}
	if cfg.Requests != 500 || cfg.Concurrency != 10 {
		t.Errorf("Requests, Concurrency = %d, %d, want 500, 10", cfg.Requests, cfg.Concurrency)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.ContentType != "application/json" {
		t.Errorf("ContentType = %q, want application/json", cfg.ContentType)
	}
	if cfg.Headers["X-Env"] != "staging" {
		t.Errorf("Headers[X-Env] = %q, want staging", cfg.Headers["X-Env"])
	}
	if cfg.Auth != "user:pass" {
		t.Errorf("Auth = %q, want user:pass", cfg.Auth)
	}
	if cfg.Tracing.Endpoint != "collector:4318" || cfg.Tracing.Protocol != "http" || cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.Propagate == nil || *cfg.Tracing.Propagate {
		t.Errorf("Tracing.Propagate = %v, want false", cfg.Tracing.Propagate)
	}
}

func TestApplyConfigSettingsHeaderList(t *testing.T) {
	cfg := Default()
	settings := map[string]interface{}{
		"headers": []interface{}{"Accept: application/json", "X-Id: 1"},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}
	if len(cfg.HeaderArgs) != 2 || cfg.HeaderArgs[1] != "X-Id: 1" {
		t.Errorf("HeaderArgs = %v", cfg.HeaderArgs)
	}
}

func TestApplyConfigSettingsRejectsBadTypes(t *testing.T) {
	cfg := Default()
	err := applyConfigSettings(cfg, map[string]interface{}{"concurrency": []int{1}})
	if err == nil {
		t.Fatal("applyConfigSettings() error = nil, want error")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := Default()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)

	args := []string{
		"-c", "5",
		"-n", "20",
		"-m", "PUT",
		"-t", "3",
		"-H", "X-Test: 1,2",
		"-H", "X-Test: 3",
		"-z", "10s",
		"--h2",
		"--trace-sample-rate", "0.5",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := applyFlagOverrides(cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}

	if cfg.Concurrency != 5 || cfg.Requests != 20 {
		t.Errorf("Concurrency, Requests = %d, %d, want 5, 20", cfg.Concurrency, cfg.Requests)
	}
	if cfg.Method != "PUT" {
		t.Errorf("Method = %q, want PUT", cfg.Method)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Timeout)
	}
	if len(cfg.HeaderArgs) != 2 || cfg.HeaderArgs[0] != "X-Test: 1,2" {
		t.Errorf("HeaderArgs = %v", cfg.HeaderArgs)
	}
	if cfg.Duration != 10*time.Second {
		t.Errorf("Duration = %v, want 10s", cfg.Duration)
	}
	if !cfg.HTTP2 {
		t.Error("HTTP2 = false, want true")
	}
	if cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing.SampleRate = %v, want 0.5", cfg.Tracing.SampleRate)
	}
	// Unchanged flags keep the defaults.
	if cfg.ContentType != "text/html" || cfg.Output != OutputSummary {
		t.Errorf("ContentType, Output = %q, %q", cfg.ContentType, cfg.Output)
	}
}
