// Package publisher reports probe outcomes to the broker as a retained
// boolean and a retained timestamp per target.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hazz-dev/sitepulse/internal/broker"
	"github.com/hazz-dev/sitepulse/internal/checker"
)

// TimestampLayout formats the last_published payload.
const TimestampLayout = "2006-01-02 15:04"

// Config holds the topic prefix and the timezone used for timestamps.
type Config struct {
	Root     string
	Source   string
	Timezone string
}

// Option customises a Publisher.
type Option func(*Publisher)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// WithFailureHook registers fn to be called for every failed publish.
func WithFailureHook(fn func(topic string, err error)) Option {
	return func(p *Publisher) { p.onFailure = fn }
}

// Publisher sends two retained, at-least-once messages per outcome.
type Publisher struct {
	broker    broker.Broker
	root      string
	source    string
	loc       *time.Location
	now       func() time.Time
	onFailure func(topic string, err error)
	logger    *zap.Logger
}

// New returns a Publisher writing to b. An unknown timezone is logged and
// timestamps fall back to UTC, marked with a " UTC" suffix.
func New(b broker.Broker, cfg Config, logger *zap.Logger, opts ...Option) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{
		broker: b,
		root:   cfg.Root,
		source: cfg.Source,
		now:    time.Now,
		logger: logger,
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, publishing timestamps in UTC",
			zap.String("timezone", cfg.Timezone),
			zap.Error(err),
		)
	} else {
		p.loc = loc
	}

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timestamp returns the current time formatted for the last_published topic.
func (p *Publisher) Timestamp() string {
	now := p.now()
	if p.loc == nil {
		return now.UTC().Format(TimestampLayout) + " UTC"
	}
	return now.In(p.loc).Format(TimestampLayout)
}

// Publish sends the health boolean and the current timestamp for one target.
// Both publishes are attempted regardless of the other's outcome. Failures
// are logged here; the combined error is returned for observation and must
// not stop the caller.
func (p *Publisher) Publish(ctx context.Context, name string, scheme checker.Scheme, healthy bool) error {
	resultTopic := ResultTopic(p.root, p.source, name, scheme)
	stampTopic := LastPublishedTopic(p.root, p.source, name, scheme)

	var errs error
	errs = multierr.Append(errs, p.send(ctx, resultTopic, strconv.FormatBool(healthy)))
	errs = multierr.Append(errs, p.send(ctx, stampTopic, p.Timestamp()))
	return errs
}

// Close disconnects the underlying broker.
func (p *Publisher) Close() error {
	return p.broker.Close()
}

func (p *Publisher) send(ctx context.Context, topic, payload string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("broker panicked: %v", r)
			p.fail(topic, err)
		}
	}()

	if err := p.broker.Publish(ctx, topic, payload, broker.AtLeastOnce, true); err != nil {
		p.fail(topic, err)
		return fmt.Errorf("publishing %s: %w", topic, err)
	}

	p.logger.Info("published",
		zap.String("topic", topic),
		zap.String("payload", payload),
	)
	return nil
}

func (p *Publisher) fail(topic string, err error) {
	fields := []zap.Field{zap.String("topic", topic), zap.Error(err)}
	switch {
	case errors.Is(err, broker.ErrNotConnected):
		p.logger.Warn("publish skipped, broker not connected", fields...)
	case errors.Is(err, broker.ErrTimeout):
		p.logger.Warn("publish not acknowledged in time", fields...)
	default:
		p.logger.Error("publish failed", fields...)
	}
	if p.onFailure != nil {
		p.onFailure(topic, err)
	}
}
