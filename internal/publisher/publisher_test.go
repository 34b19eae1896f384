package publisher_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hazz-dev/sitepulse/internal/broker"
	"github.com/hazz-dev/sitepulse/internal/checker"
	"github.com/hazz-dev/sitepulse/internal/publisher"
)

type message struct {
	Topic   string
	Payload string
	QoS     byte
	Retain  bool
}

// fakeBroker records publishes and fails those whose topic is in failOn.
type fakeBroker struct {
	mu       sync.Mutex
	messages []message
	failOn   map[string]error
	panicOn  string
	closed   bool
}

func (b *fakeBroker) Publish(_ context.Context, topic, payload string, qos byte, retain bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if topic == b.panicOn {
		panic("client exploded")
	}
	b.messages = append(b.messages, message{topic, payload, qos, retain})
	return b.failOn[topic]
}

func (b *fakeBroker) Close() error {
	b.closed = true
	return nil
}

// fixedClock is 2024-03-09 15:05 UTC, which is 07:05 in Los Angeles (PST).
func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 15, 5, 42, 0, time.UTC)
}

func newPublisher(b broker.Broker, tz string, opts ...publisher.Option) *publisher.Publisher {
	opts = append([]publisher.Option{publisher.WithClock(fixedClock)}, opts...)
	return publisher.New(b, publisher.Config{Root: "R", Source: "S", Timezone: tz}, nil, opts...)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "R/S/websites/site/http", publisher.BaseTopic("R", "S", "site", checker.SchemeHTTP))
	assert.Equal(t, "R/S/websites/site/http/result", publisher.ResultTopic("R", "S", "site", checker.SchemeHTTP))
	assert.Equal(t, "R/S/websites/site/https/last_published", publisher.LastPublishedTopic("R", "S", "site", checker.SchemeHTTPS))
	assert.Equal(t, "MISSING_ROOT/MISSING_SOURCE/websites/nas/unknown/result",
		publisher.ResultTopic("MISSING_ROOT", "MISSING_SOURCE", "nas", checker.SchemeUnknown))
}

func TestPublish_SendsRetainedResultAndTimestamp(t *testing.T) {
	b := &fakeBroker{}
	p := newPublisher(b, "America/Los_Angeles")

	err := p.Publish(context.Background(), "site", checker.SchemeHTTP, true)
	require.NoError(t, err)

	assert.Equal(t, []message{
		{"R/S/websites/site/http/result", "true", broker.AtLeastOnce, true},
		{"R/S/websites/site/http/last_published", "2024-03-09 07:05", broker.AtLeastOnce, true},
	}, b.messages)
}

func TestPublish_UnhealthyIsLowercaseFalse(t *testing.T) {
	b := &fakeBroker{}
	p := newPublisher(b, "UTC")

	require.NoError(t, p.Publish(context.Background(), "site", checker.SchemeHTTPS, false))
	assert.Equal(t, "false", b.messages[0].Payload)
	assert.Equal(t, "2024-03-09 15:05", b.messages[1].Payload)
}

func TestTimestamp_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := publisher.New(&fakeBroker{}, publisher.Config{Root: "R", Source: "S", Timezone: "Mars/Olympus_Mons"},
		zap.New(core), publisher.WithClock(fixedClock))

	assert.Equal(t, "2024-03-09 15:05 UTC", p.Timestamp())
	assert.Equal(t, 1, logs.FilterMessageSnippet("unknown timezone").Len())
}

func TestPublish_FailuresAreIndependentAndSwallowed(t *testing.T) {
	resultTopic := publisher.ResultTopic("R", "S", "site", checker.SchemeHTTP)
	b := &fakeBroker{failOn: map[string]error{resultTopic: broker.ErrNotConnected}}

	var hooked []string
	p := newPublisher(b, "UTC", publisher.WithFailureHook(func(topic string, err error) {
		hooked = append(hooked, topic)
	}))

	err := p.Publish(context.Background(), "site", checker.SchemeHTTP, true)

	require.Error(t, err)
	assert.ErrorIs(t, err, broker.ErrNotConnected)
	assert.Len(t, b.messages, 2, "timestamp publish still attempted")
	assert.Equal(t, []string{resultTopic}, hooked)
}

func TestPublish_BothFailuresCombined(t *testing.T) {
	boom := errors.New("write: broken pipe")
	b := &fakeBroker{failOn: map[string]error{
		publisher.ResultTopic("R", "S", "site", checker.SchemeHTTP):        boom,
		publisher.LastPublishedTopic("R", "S", "site", checker.SchemeHTTP): broker.ErrTimeout,
	}}
	core, logs := observer.New(zapcore.WarnLevel)
	p := publisher.New(b, publisher.Config{Root: "R", Source: "S", Timezone: "UTC"}, zap.New(core))

	err := p.Publish(context.Background(), "site", checker.SchemeHTTP, true)

	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, 1, logs.FilterMessage("publish failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("publish not acknowledged in time").Len())
}

func TestPublish_BrokerPanicIsContained(t *testing.T) {
	b := &fakeBroker{panicOn: publisher.ResultTopic("R", "S", "site", checker.SchemeHTTP)}
	p := newPublisher(b, "UTC")

	var err error
	require.NotPanics(t, func() {
		err = p.Publish(context.Background(), "site", checker.SchemeHTTP, true)
	})
	assert.ErrorContains(t, err, "client exploded")
	assert.Len(t, b.messages, 1, "timestamp publish still attempted")
}

func TestClose(t *testing.T) {
	b := &fakeBroker{}
	p := newPublisher(b, "UTC")

	require.NoError(t, p.Close())
	assert.True(t, b.closed)
}
