package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rhi [flags] <url>",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Load control flags
	flags.IntP("requests", "n", DefaultRequests, "Number of requests to run")
	flags.IntP("concurrency", "c", DefaultConcurrency, "Number of requests in flight at once; cannot exceed -n")
	flags.IntP("rate", "q", 0, "Rate limit in requests per second (0 means unlimited)")
	flags.IntP("timeout", "t", int(DefaultTimeout/time.Second), "Timeout for each request in seconds (0 means infinite)")
	flags.DurationP("duration", "z", 0, "Stop admitting requests after this long (e.g. 10s, 3m); -n is still the cap")
	flags.Int("cpus", runtime.NumCPU(), "Number of CPU cores to use")

	// Request flags
	flags.StringP("method", "m", "GET", "HTTP method, one of GET, POST, PUT, DELETE, HEAD, OPTIONS")
	flags.StringArrayP("header", "H", nil, "Custom HTTP header, repeatable (e.g. -H \"Accept: text/html\")")
	flags.StringP("accept", "A", "", "HTTP Accept header")
	flags.StringP("body", "d", "", "HTTP request body")
	flags.StringP("body-file", "D", "", "HTTP request body from file")
	flags.StringP("content-type", "T", "text/html", "Content-type")
	flags.StringP("auth", "a", "", "Basic authentication, username:password")
	flags.StringP("proxy", "x", "", "HTTP proxy address as host:port")
	flags.String("host", "", "HTTP Host header")
	flags.Bool("h2", false, "Enable HTTP/2")
	flags.Bool("disable-compression", false, "Disable compression")
	flags.Bool("disable-keepalive", false, "Disable keep-alive, prevents re-use of TCP connections between requests")

	// Output flags
	flags.StringP("output", "o", OutputSummary, "Output type: summary, csv, json or yaml")
	flags.Bool("more", false, "Record connection phase timings (DNS, dial, TLS, write, wait, read)")
	flags.Bool("progress", false, "Show live progress on stderr")
	flags.String("config", "", "Path to configuration file (YAML, JSON or TOML)")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warn or error")
	flags.String("log-format", DefaultLogFormat, "Log format: console or json")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run (e.g. :9090)")
	flags.String("history", "", "Path to a run history database; each report is saved under its run ID")
	flags.Bool("history-list", false, "List the runs stored in --history and exit")
	flags.String("history-show", "", "Print the stored report for this run ID as JSON (or YAML with -o yaml) and exit")

	// Tracing flags
	flags.String("trace-endpoint", "", "OTLP endpoint for request spans (e.g. localhost:4317)")
	flags.String("trace-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("trace-insecure", false, "Use an insecure connection to the OTLP endpoint")
	flags.Float64("trace-sample-rate", 1.0, "Fraction of requests to trace (0 to 1)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("requests") {
		val, err := fs.GetInt("requests")
		if err != nil {
			return err
		}
		cfg.Requests = val
	}
	if fs.Changed("concurrency") {
		val, err := fs.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetInt("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = time.Duration(val) * time.Second
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("cpus") {
		val, err := fs.GetInt("cpus")
		if err != nil {
			return err
		}
		cfg.CPUs = val
	}

	if fs.Changed("method") {
		val, err := fs.GetString("method")
		if err != nil {
			return err
		}
		cfg.Method = val
	}
	if fs.Changed("header") {
		val, err := fs.GetStringArray("header")
		if err != nil {
			return err
		}
		cfg.HeaderArgs = append(cfg.HeaderArgs, val...)
	}
	if fs.Changed("accept") {
		val, err := fs.GetString("accept")
		if err != nil {
			return err
		}
		cfg.Accept = val
	}
	if fs.Changed("body") {
		val, err := fs.GetString("body")
		if err != nil {
			return err
		}
		cfg.Body = val
		if !fs.Changed("body-file") {
			cfg.BodyFile = ""
		}
	}
	if fs.Changed("body-file") {
		val, err := fs.GetString("body-file")
		if err != nil {
			return err
		}
		cfg.BodyFile = val
		if !fs.Changed("body") {
			cfg.Body = ""
		}
	}
	if fs.Changed("content-type") {
		val, err := fs.GetString("content-type")
		if err != nil {
			return err
		}
		cfg.ContentType = val
	}
	if fs.Changed("auth") {
		val, err := fs.GetString("auth")
		if err != nil {
			return err
		}
		cfg.Auth = val
	}
	if fs.Changed("proxy") {
		val, err := fs.GetString("proxy")
		if err != nil {
			return err
		}
		cfg.Proxy = strings.TrimSpace(val)
	}
	if fs.Changed("host") {
		val, err := fs.GetString("host")
		if err != nil {
			return err
		}
		cfg.Host = strings.TrimSpace(val)
	}
	if fs.Changed("h2") {
		val, err := fs.GetBool("h2")
		if err != nil {
			return err
		}
		cfg.HTTP2 = val
	}
	if fs.Changed("disable-compression") {
		val, err := fs.GetBool("disable-compression")
		if err != nil {
			return err
		}
		cfg.DisableCompression = val
	}
	if fs.Changed("disable-keepalive") {
		val, err := fs.GetBool("disable-keepalive")
		if err != nil {
			return err
		}
		cfg.DisableKeepAlive = val
	}

	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("more") {
		val, err := fs.GetBool("more")
		if err != nil {
			return err
		}
		cfg.More = val
	}
	if fs.Changed("progress") {
		val, err := fs.GetBool("progress")
		if err != nil {
			return err
		}
		cfg.Progress = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("log-format") {
		val, err := fs.GetString("log-format")
		if err != nil {
			return err
		}
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("metrics-addr") {
		val, err := fs.GetString("metrics-addr")
		if err != nil {
			return err
		}
		cfg.MetricsAddr = strings.TrimSpace(val)
	}
	if fs.Changed("history") {
		val, err := fs.GetString("history")
		if err != nil {
			return err
		}
		cfg.HistoryPath = strings.TrimSpace(val)
	}
	if fs.Changed("history-list") {
		val, err := fs.GetBool("history-list")
		if err != nil {
			return err
		}
		cfg.HistoryList = val
	}
	if fs.Changed("history-show") {
		val, err := fs.GetString("history-show")
		if err != nil {
			return err
		}
		cfg.HistoryShow = strings.TrimSpace(val)
	}

	if fs.Changed("trace-endpoint") {
		val, err := fs.GetString("trace-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("trace-protocol") {
		val, err := fs.GetString("trace-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("trace-insecure") {
		val, err := fs.GetBool("trace-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("trace-sample-rate") {
		val, err := fs.GetFloat64("trace-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}

	return nil
}
