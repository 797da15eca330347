package config

import (
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/torosent/rhi/internal/httpclient"
	"github.com/torosent/rhi/internal/runner"
	"github.com/torosent/rhi/internal/tracing"
)

// Output modes.
const (
	OutputSummary = "summary"
	OutputCSV     = "csv"
	OutputJSON    = "json"
	OutputYAML    = "yaml"
)

// Defaults applied before the config file and flags.
const (
	DefaultRequests    = 200
	DefaultConcurrency = 50
	DefaultTimeout     = 20 * time.Second
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "console"
)

type Config struct {
	TargetURL          string            `mapstructure:"target"`
	Method             string            `mapstructure:"method"`
	Headers            map[string]string `mapstructure:"headers"`
	HeaderArgs         []string          `mapstructure:"-"` // raw "Name: value" entries from -H
	Body               string            `mapstructure:"body"`
	BodyFile           string            `mapstructure:"body_file"`
	ContentType        string            `mapstructure:"content_type"`
	Accept             string            `mapstructure:"accept"`
	Auth               string            `mapstructure:"auth"` // user:pass
	Host               string            `mapstructure:"host"`
	Proxy              string            `mapstructure:"proxy"`
	HTTP2              bool              `mapstructure:"http2"`
	DisableCompression bool              `mapstructure:"disable_compression"`
	DisableKeepAlive   bool              `mapstructure:"disable_keepalive"`

	Requests    int           `mapstructure:"requests"`
	Concurrency int           `mapstructure:"concurrency"`
	Rate        int           `mapstructure:"rate"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Duration    time.Duration `mapstructure:"duration"`
	CPUs        int           `mapstructure:"cpus"`

	Output      string         `mapstructure:"output"`
	More        bool           `mapstructure:"more"`
	Progress    bool           `mapstructure:"progress"`
	LogLevel    string         `mapstructure:"log_level"`
	LogFormat   string         `mapstructure:"log_format"`
	MetricsAddr string         `mapstructure:"metrics_addr"`
	HistoryPath string         `mapstructure:"history"`
	HistoryList bool           `mapstructure:"-"` // list stored runs instead of running
	HistoryShow string         `mapstructure:"-"` // print one stored run instead of running
	Tracing     tracing.Config `mapstructure:"tracing"`
	ConfigFile  string         `mapstructure:"-"`
}

// Default returns a Config holding every default value.
func Default() *Config {
	return &Config{
		Method:      http.MethodGet,
		Headers:     map[string]string{},
		ContentType: httpclient.DefaultContentType,
		Requests:    DefaultRequests,
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		CPUs:        runtime.NumCPU(),
		Output:      OutputSummary,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		Tracing:     tracing.Config{SampleRate: 1.0},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if c.InspectsHistory() {
		if strings.TrimSpace(c.HistoryPath) == "" {
			issues = append(issues, "--history-list and --history-show require --history")
		}
		if c.HistoryList && c.HistoryShow != "" {
			issues = append(issues, "--history-list and --history-show are mutually exclusive")
		}
	} else if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "target URL is required (use --help for usage information)")
	}
	if strings.TrimSpace(c.TargetURL) != "" {
		if issue := validateTarget(c.TargetURL); issue != "" {
			issues = append(issues, issue)
		}
	}
	if !httpclient.SupportedMethod(c.Method) {
		issues = append(issues, fmt.Sprintf("method %q is not supported", c.Method))
	}

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Requests < 1 {
		issues = append(issues, "number of requests must be >= 1")
	} else if c.Concurrency >= 1 && c.Requests < c.Concurrency {
		issues = append(issues, fmt.Sprintf("number of requests (%d) cannot be smaller than concurrency (%d)", c.Requests, c.Concurrency))
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.CPUs < 0 {
		issues = append(issues, "cpus must be >= 0")
	}

	if strings.TrimSpace(c.Body) != "" && strings.TrimSpace(c.BodyFile) != "" {
		issues = append(issues, "body and body file are mutually exclusive")
	}
	for _, entry := range c.HeaderArgs {
		if _, _, err := parseHeader(entry); err != nil {
			issues = append(issues, err.Error())
		}
	}
	if c.Auth != "" {
		if _, _, err := parseAuth(c.Auth); err != nil {
			issues = append(issues, err.Error())
		}
	}
	if strings.TrimSpace(c.Proxy) != "" {
		if err := httpclient.ValidateProxy(c.Proxy); err != nil {
			issues = append(issues, err.Error())
		}
	}

	switch c.Output {
	case "", OutputSummary, OutputCSV, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output %q is not supported (summary, csv, json or yaml)", c.Output))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log level %q is not supported", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		issues = append(issues, fmt.Sprintf("log format %q is not supported (console or json)", c.LogFormat))
	}

	switch strings.ToLower(c.Tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", c.Tracing.Protocol))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing: sample rate must be between 0 and 1")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

// InspectsHistory reports whether the invocation reads the run history
// instead of sending load.
func (c Config) InspectsHistory() bool {
	return c.HistoryList || strings.TrimSpace(c.HistoryShow) != ""
}

func validateTarget(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Sprintf("target URL is malformed: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("target URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Sprintf("target URL %q has no host", raw)
	}
	return ""
}

// ToTemplateConfig converts the request settings for httpclient.NewTemplate.
// File headers are applied first; -H entries follow in the order given.
func (c Config) ToTemplateConfig() (httpclient.TemplateConfig, error) {
	headers := http.Header{}
	for k, v := range c.Headers {
		headers.Add(k, v)
	}
	for _, entry := range c.HeaderArgs {
		name, value, err := parseHeader(entry)
		if err != nil {
			return httpclient.TemplateConfig{}, err
		}
		headers.Add(name, value)
	}

	tc := httpclient.TemplateConfig{
		Method:      c.Method,
		URL:         c.TargetURL,
		Headers:     headers,
		Body:        c.Body,
		BodyFile:    c.BodyFile,
		ContentType: c.ContentType,
		Accept:      c.Accept,
		Host:        c.Host,
	}
	if c.Auth != "" {
		user, pass, err := parseAuth(c.Auth)
		if err != nil {
			return httpclient.TemplateConfig{}, err
		}
		tc.Username, tc.Password = user, pass
	}
	return tc, nil
}

// TransportOptions converts the connection settings for httpclient.NewClient.
func (c Config) TransportOptions() httpclient.TransportOptions {
	return httpclient.TransportOptions{
		MaxIdleConnsPerHost: c.Concurrency,
		DisableKeepAlives:   c.DisableKeepAlive,
		DisableCompression:  c.DisableCompression,
		HTTP2:               c.HTTP2,
		Proxy:               c.Proxy,
	}
}

// ToProfile converts the load settings for runner.New.
func (c Config) ToProfile() runner.Profile {
	return runner.Profile{
		TotalRequests:  c.Requests,
		Concurrency:    c.Concurrency,
		RatePerSecond:  c.Rate,
		RequestTimeout: c.Timeout,
		Workers:        c.CPUs,
		Duration:       c.Duration,
	}
}
