package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hazz-dev/sitepulse/internal/checker"
	"github.com/hazz-dev/sitepulse/internal/config"
)

// Publisher reports one outcome to the broker.
type Publisher interface {
	Publish(ctx context.Context, name string, scheme checker.Scheme, healthy bool) error
	Close() error
}

// Connector establishes the broker connection. Run calls it exactly once.
type Connector func(ctx context.Context) (Publisher, error)

// Options configures a Scheduler.
type Options struct {
	Targets     []config.Target
	Checker     checker.Checker
	Connect     Connector // nil runs without publishing
	Interval    time.Duration
	TargetDelay time.Duration
	Out         io.Writer // human-readable reports; nil discards them
}

// CycleStats summarises one pass over the targets.
type CycleStats struct {
	Targets         int
	Healthy         int
	PublishFailures int
	Duration        time.Duration
}

// Scheduler probes every target in order, publishes each outcome, sleeps,
// and repeats until its context is cancelled.
type Scheduler struct {
	opts     Options
	out      io.Writer
	onResult func(config.Target, checker.CheckResult)
	onCycle  func(CycleStats)
	logger   *zap.Logger
	state    atomic.Int32
}

// New creates a new Scheduler. Pass nil logger to discard logs.
func New(opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	s := &Scheduler{opts: opts, out: out, logger: logger}
	s.setState(StateConnecting)
	return s
}

// SetOnResult sets the callback invoked after each probe, before publishing.
func (s *Scheduler) SetOnResult(fn func(config.Target, checker.CheckResult)) {
	s.onResult = fn
}

// SetOnCycle sets the callback invoked at the end of every cycle, including
// cycles cut short by a panic or by cancellation.
func (s *Scheduler) SetOnCycle(fn func(CycleStats)) {
	s.onCycle = fn
}

// State returns the current state. Safe to call from any goroutine.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		s.logger.Debug("state change", zap.Stringer("from", prev), zap.Stringer("to", st))
	}
}

// Run blocks until ctx is cancelled. Cancellation is noticed between targets
// and while sleeping; a probe already in flight is allowed to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.setState(StateConnecting)
	pub := s.connect(ctx)
	defer s.shutdown(pub)

	active := StateRunning
	if pub == nil {
		active = StateRunningNoPublish
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		s.setState(active)
		s.runCycle(ctx, pub)
		if ctx.Err() != nil {
			return nil
		}

		s.setState(StateSleeping)
		fmt.Fprintf(s.out, "*** Completed checks, waiting %s until next run ***\n", s.opts.Interval)
		if !sleep(ctx, s.opts.Interval) {
			return nil
		}
	}
}

func (s *Scheduler) connect(ctx context.Context) Publisher {
	if s.opts.Connect == nil {
		s.logger.Warn("no broker configured, running without publishing")
		return nil
	}

	pub, err := s.opts.Connect(ctx)
	if err != nil {
		s.logger.Error("broker connection failed, continuing without publishing", zap.Error(err))
		fmt.Fprintf(s.out, "Broker connection failed: %v\nContinuing with checks but without publishing...\n", err)
		return nil
	}
	s.logger.Info("connected to broker")
	return pub
}

func (s *Scheduler) shutdown(pub Publisher) {
	if pub != nil {
		if err := pub.Close(); err != nil {
			s.logger.Debug("closing broker connection", zap.Error(err))
		} else {
			s.logger.Info("disconnected from broker")
		}
	}
	s.setState(StateStopped)
}

func (s *Scheduler) runCycle(ctx context.Context, pub Publisher) (stats CycleStats) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cycle aborted", zap.Any("panic", r), zap.Stack("stack"))
		}
		stats.Duration = time.Since(start)
		s.logger.Info("cycle complete",
			zap.Int("targets", stats.Targets),
			zap.Int("healthy", stats.Healthy),
			zap.Int("publish_failures", stats.PublishFailures),
			zap.Duration("duration", stats.Duration),
		)
		if s.onCycle != nil {
			s.onCycle(stats)
		}
	}()

	fmt.Fprintf(s.out, "\n*** Starting website checks at %s ***\n", start.Format(checker.CheckedAtLayout))

	// Probes and publishes are bounded by their own timeouts and are not
	// cut short by an interrupt.
	workCtx := context.WithoutCancel(ctx)

	for i, target := range s.opts.Targets {
		if i > 0 && !sleep(ctx, s.opts.TargetDelay) {
			return stats
		}

		result := s.opts.Checker.Check(workCtx, target)
		stats.Targets++
		if result.Healthy() {
			stats.Healthy++
		}

		_ = checker.WriteReport(s.out, result)
		s.logger.Info("check result",
			zap.String("target", target.Name),
			zap.String("url", result.URL),
			zap.Stringer("scheme", result.Scheme),
			zap.Bool("reachable", result.Reachable),
			zap.Bool("contains_expected", result.ContainsExpected),
			zap.Int("status_code", result.StatusCode),
			zap.Duration("response_time", result.ResponseTime),
			zap.String("error", result.Error),
		)

		if s.onResult != nil {
			s.onResult(target, result)
		}

		if pub == nil {
			continue
		}
		if err := pub.Publish(workCtx, target.Name, result.Scheme, result.Healthy()); err != nil {
			stats.PublishFailures++
		}
	}
	return stats
}

// sleep waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
