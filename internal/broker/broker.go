// Package broker adapts publish/subscribe transports to the narrow interface
// the publisher needs.
package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazz-dev/sitepulse/internal/config"
)

// QoS levels understood by Publish.
const (
	AtMostOnce  byte = 0
	AtLeastOnce byte = 1
	ExactlyOnce byte = 2
)

var (
	// ErrNotConnected is returned when the transport has no live connection.
	ErrNotConnected = errors.New("broker not connected")
	// ErrTimeout is returned when the broker did not acknowledge in time.
	ErrTimeout = errors.New("broker did not respond in time")
	// ErrUnknownKind is returned by Dial for an unsupported broker kind.
	ErrUnknownKind = errors.New("unknown broker kind")
)

// Broker publishes string payloads to named topics.
type Broker interface {
	// Publish sends payload to topic. When retain is set the broker keeps the
	// value for subscribers that join later.
	Publish(ctx context.Context, topic, payload string, qos byte, retain bool) error
	// Close disconnects from the broker.
	Close() error
}

// Dial connects to the broker selected by cfg.Kind.
func Dial(ctx context.Context, cfg config.BrokerConfig) (Broker, error) {
	switch cfg.Kind {
	case config.BrokerMQTT:
		return DialMQTT(ctx, cfg.MQTT)
	case config.BrokerRedis:
		return DialRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, cfg.Kind)
	}
}
