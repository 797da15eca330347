package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrExecutionPanic marks a run that ended early because an execution panicked.
var ErrExecutionPanic = errors.New("request execution panicked")

// Executor performs exactly one request attempt.
// Implementations must resolve every attempt to a Completion and honor ctx.
type Executor interface {
	Execute(ctx context.Context, seq int64) Completion
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, seq int64) Completion

func (f ExecutorFunc) Execute(ctx context.Context, seq int64) Completion {
	return f(ctx, seq)
}

// Sink consumes completion records. Record is only called from the
// dispatcher's scheduling goroutine.
type Sink interface {
	Record(c Completion)
}

// Gauge receives the current in-flight count. prometheus.Gauge satisfies it.
type Gauge interface {
	Set(float64)
}

// Options configure a Dispatcher.
type Options struct {
	Profile        Profile
	Executor       Executor                          // request executor (required)
	Sink           Sink                              // completion consumer (optional)
	InFlight       Gauge                             // in-flight observer (optional)
	Logger         *zap.Logger                       // defaults to a no-op logger
	LimiterFactory func(rps, burst int) *rate.Limiter // optional injection for tests
}

// Result summarizes how a run ended.
type Result struct {
	Issued      int64
	Completed   int64
	MaxInFlight int
	Duration    time.Duration
	Stopped     bool // the time box elapsed before all requests were issued
	Aborted     bool // the run was cancelled or hit a fatal execution error
}

// Dispatcher admits request executions under a concurrency gate and a token bucket.
type Dispatcher struct {
	opt     Options
	limiter *rate.Limiter
}

// runState is owned by the scheduling goroutine and never shared.
type runState struct {
	issued      int64
	completed   int64
	maxInFlight int
}

func (s *runState) inFlight() int {
	return int(s.issued - s.completed)
}

// New validates the profile and prepares a Dispatcher. Invalid profiles fail
// here, before any request is issued.
func New(opt Options) (*Dispatcher, error) {
	if err := opt.Profile.Validate(); err != nil {
		return nil, err
	}
	if opt.Executor == nil {
		return nil, errors.New("runner: executor is required")
	}
	opt.Profile.normalize()
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.LimiterFactory == nil {
		opt.LimiterFactory = defaultLimiterFactory
	}

	d := &Dispatcher{opt: opt}
	if opt.Profile.rateLimited() {
		d.limiter = opt.LimiterFactory(opt.Profile.RatePerSecond, opt.Profile.burst())
	}
	return d, nil
}

// Profile returns the normalized profile the dispatcher runs.
func (d *Dispatcher) Profile() Profile {
	return d.opt.Profile
}

// Run drives the profile to completion. It returns once every issued request
// has completed. The error is non-nil only when the run was cut short by
// ctx or by a fatal execution error; the Result is partial in that case.
func (d *Dispatcher) Run(ctx context.Context) (Result, error) {
	p := d.opt.Profile
	total := int64(p.TotalRequests)
	log := d.opt.Logger
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Concurrency)

	// Capacity C: in-flight never exceeds C, so sends never block.
	done := make(chan Completion, p.Concurrency)

	var tick <-chan time.Time
	if d.limiter != nil {
		ticker := time.NewTicker(p.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var deadline <-chan time.Time
	if p.Duration > 0 {
		timer := time.NewTimer(p.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	log.Info("dispatch started",
		zap.Int64("total", total),
		zap.Int("concurrency", p.Concurrency),
		zap.Int("rate", p.RatePerSecond),
		zap.Int("burst", p.burst()),
		zap.Duration("tick", p.TickInterval),
	)

	var (
		st        runState
		admitting = true
		cancelled = gctx.Done()
		res       Result
		runErr    error
	)

	admit := func() {
		for admitting && gctx.Err() == nil && st.inFlight() < p.Concurrency && st.issued < total {
			if d.limiter != nil && !d.limiter.Allow() {
				return
			}
			seq := st.issued
			offset := time.Since(start)
			st.issued++
			if n := st.inFlight(); n > st.maxInFlight {
				st.maxInFlight = n
			}
			d.observe(st.inFlight())
			g.Go(func() error {
				return d.execute(gctx, seq, offset, done)
			})
		}
	}

	admit()
	for st.completed < st.issued || (admitting && st.issued < total) {
		select {
		case c := <-done:
			st.completed++
			d.observe(st.inFlight())
			if d.opt.Sink != nil {
				d.opt.Sink.Record(c)
			}
			if errors.Is(c.Err, ErrExecutionPanic) && runErr == nil {
				runErr = c.Err
				admitting = false
				res.Aborted = true
			}
		case <-tick:
		case <-cancelled:
			cancelled = nil
			if admitting {
				admitting = false
				res.Aborted = true
				if runErr == nil {
					runErr = context.Cause(gctx)
				}
				log.Warn("dispatch aborted", zap.Int64("issued", st.issued), zap.Int("in_flight", st.inFlight()), zap.Error(runErr))
			}
		case <-deadline:
			deadline = nil
			if admitting {
				admitting = false
				res.Stopped = true
				log.Info("dispatch time box elapsed", zap.Int64("issued", st.issued), zap.Duration("duration", p.Duration))
			}
		}
		admit()
	}
	// Every goroutine has already delivered its completion.
	_ = g.Wait()

	res.Issued = st.issued
	res.Completed = st.completed
	res.MaxInFlight = st.maxInFlight
	res.Duration = time.Since(start)

	log.Info("dispatch finished",
		zap.Int64("issued", res.Issued),
		zap.Int64("completed", res.Completed),
		zap.Int("max_in_flight", res.MaxInFlight),
		zap.Duration("elapsed", res.Duration),
	)
	return res, runErr
}

func (d *Dispatcher) execute(ctx context.Context, seq int64, offset time.Duration, done chan<- Completion) (err error) {
	var c Completion
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: sequence %d: %v", ErrExecutionPanic, seq, p)
			c = Completion{Kind: FailureInternal, Err: err}
		}
		c.Sequence = seq
		c.Offset = offset
		done <- c
	}()
	c = d.opt.Executor.Execute(ctx, seq)
	return nil
}

func (d *Dispatcher) observe(inFlight int) {
	if d.opt.InFlight != nil {
		d.opt.InFlight.Set(float64(inFlight))
	}
}
