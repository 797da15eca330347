package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/rhi/internal/config"
	"github.com/torosent/rhi/internal/history"
	"github.com/torosent/rhi/internal/httpclient"
	"github.com/torosent/rhi/internal/logging"
	"github.com/torosent/rhi/internal/metrics"
	"github.com/torosent/rhi/internal/output"
	"github.com/torosent/rhi/internal/runner"
	"github.com/torosent/rhi/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.InspectsHistory() {
		return inspectHistory(stdout, cfg)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	tc, err := cfg.ToTemplateConfig()
	if err != nil {
		return err
	}
	tmpl, err := httpclient.NewTemplate(tc)
	if err != nil {
		return err
	}
	client, err := httpclient.NewClient(cfg.TransportOptions())
	if err != nil {
		return err
	}
	profile := cfg.ToProfile()
	executor, err := httpclient.NewExecutor(httpclient.ExecutorOptions{
		Template: tmpl,
		Client:   client,
		Timeout:  profile.RequestTimeout,
		Phases:   cfg.More,
		Tracing:  tp,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	var collectorOpts []metrics.CollectorOption
	if cfg.Output == config.OutputCSV {
		collectorOpts = append(collectorOpts, metrics.WithRecords())
	}
	collector := metrics.NewCollector(collectorOpts...)

	opts := runner.Options{
		Profile:  profile,
		Executor: executor,
		Sink:     collector,
		Logger:   log,
	}

	if cfg.MetricsAddr != "" {
		prom := metrics.NewPromRecorder()
		opts.Sink = metrics.Fanout(collector, prom)
		opts.InFlight = prom.InFlight()

		serveCtx, stopServe := context.WithCancel(context.Background())
		defer stopServe()
		go func() {
			if err := prom.Serve(serveCtx, cfg.MetricsAddr, log); err != nil {
				log.Error("metrics endpoint failed", zap.String("addr", cfg.MetricsAddr), zap.Error(err))
			}
		}()
	}

	dispatcher, err := runner.New(opts)
	if err != nil {
		return err
	}
	profile = dispatcher.Profile()
	runtime.GOMAXPROCS(profile.Workers)

	var progress *output.ProgressReporter
	if cfg.Progress {
		progress = output.NewProgressReporter(collector, int64(profile.TotalRequests), progressInterval, stderr)
		progress.Start()
	}

	startedAt := time.Now()
	result, runErr := dispatcher.Run(ctx)
	if progress != nil {
		progress.Stop()
	}
	stats := collector.Snapshot(result.Duration)

	report := output.Report{
		RunID:       history.NewRunID(startedAt),
		Target:      tmpl.URL().String(),
		Method:      tmpl.Method(),
		Requests:    profile.TotalRequests,
		Concurrency: profile.Concurrency,
		Rate:        profile.RatePerSecond,
		StartedAt:   startedAt,
		Issued:      result.Issued,
		Stopped:     result.Stopped,
		Aborted:     result.Aborted,
		Stats:       stats,
	}

	if err := writeReport(stdout, cfg.Output, report); err != nil {
		return err
	}

	if cfg.HistoryPath != "" {
		if err := saveHistory(cfg.HistoryPath, report); err != nil {
			log.Error("saving run history failed", zap.String("path", cfg.HistoryPath), zap.Error(err))
		}
	}

	return runErr
}

func writeReport(w io.Writer, mode string, r output.Report) error {
	switch mode {
	case config.OutputJSON:
		return output.PrintJSONReport(w, r)
	case config.OutputYAML:
		return output.PrintYAMLReport(w, r)
	case config.OutputCSV:
		return output.PrintCSV(w, r.Stats)
	default:
		output.PrintReport(w, r)
		return nil
	}
}

func saveHistory(path string, r output.Report) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(r)
}

// inspectHistory serves --history-list and --history-show without sending any load.
func inspectHistory(w io.Writer, cfg *config.Config) error {
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.HistoryList {
		runs, err := store.List()
		if err != nil {
			return err
		}
		output.PrintHistory(w, runs)
		return nil
	}

	r, err := store.Get(cfg.HistoryShow)
	if err != nil {
		return err
	}
	// Stored durations survive only as milliseconds, so the summary view is not offered.
	if cfg.Output == config.OutputYAML {
		return output.PrintYAMLReport(w, r)
	}
	return output.PrintJSONReport(w, r)
}
