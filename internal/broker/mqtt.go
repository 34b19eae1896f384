package broker

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/hazz-dev/sitepulse/internal/config"
)

const (
	mqttConnectTimeout    = 10 * time.Second
	mqttPublishTimeout    = 5 * time.Second
	mqttDisconnectQuiesce = 250 // ms
)

// MQTT publishes through a paho client. Paho runs its own network goroutines
// and reconnects on its own after the initial connect.
type MQTT struct {
	client         mqtt.Client
	publishTimeout time.Duration
}

// DialMQTT connects to the broker once and returns an error if that fails.
func DialMQTT(ctx context.Context, cfg config.MQTTConfig) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Address()).
		SetClientID(cfg.ClientID).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(mqttConnectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(false)
	if cfg.HasAuth() {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if err := waitToken(ctx, client.Connect(), mqttConnectTimeout); err != nil {
		return nil, fmt.Errorf("connecting to mqtt broker %s: %w", cfg.Address(), err)
	}
	return newMQTT(client), nil
}

func newMQTT(client mqtt.Client) *MQTT {
	return &MQTT{client: client, publishTimeout: mqttPublishTimeout}
}

// Publish waits for the broker's acknowledgement (PUBACK for QoS 1).
func (m *MQTT) Publish(ctx context.Context, topic, payload string, qos byte, retain bool) error {
	if !m.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	return waitToken(ctx, m.client.Publish(topic, qos, retain, payload), m.publishTimeout)
}

// Close disconnects, giving in-flight work a short grace period.
func (m *MQTT) Close() error {
	if m.client.IsConnected() {
		m.client.Disconnect(mqttDisconnectQuiesce)
	}
	return nil
}

// waitToken blocks until tok completes, the timeout elapses or ctx ends.
func waitToken(ctx context.Context, tok mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-tok.Done():
		return tok.Error()
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
