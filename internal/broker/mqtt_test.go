package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz-dev/sitepulse/internal/config"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload string
}

// fakeClient implements the parts of mqtt.Client the adapter uses; the
// embedded interface panics if anything else is called.
type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	open         bool
	token        mqtt.Token
	published    []published
	disconnected bool
}

func (c *fakeClient) IsConnected() bool      { return c.open }
func (c *fakeClient) IsConnectionOpen() bool { return c.open }
func (c *fakeClient) Disconnect(uint)        { c.disconnected = true; c.open = false }
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic, qos, retained, payload.(string)})
	return c.token
}

func TestMQTT_PublishWaitsForAck(t *testing.T) {
	client := &fakeClient{open: true, token: completedToken(nil)}
	m := newMQTT(client)

	err := m.Publish(context.Background(), "R/S/websites/site/http/result", "true", AtLeastOnce, true)
	require.NoError(t, err)

	require.Len(t, client.published, 1)
	assert.Equal(t, published{"R/S/websites/site/http/result", 1, true, "true"}, client.published[0])
}

func TestMQTT_PublishReturnsTokenError(t *testing.T) {
	boom := errors.New("write failed")
	m := newMQTT(&fakeClient{open: true, token: completedToken(boom)})

	err := m.Publish(context.Background(), "t", "p", AtLeastOnce, true)
	assert.ErrorIs(t, err, boom)
}

func TestMQTT_PublishNotConnected(t *testing.T) {
	client := &fakeClient{open: false}
	m := newMQTT(client)

	err := m.Publish(context.Background(), "t", "p", AtLeastOnce, true)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, client.published)
}

func TestMQTT_PublishTimeout(t *testing.T) {
	m := newMQTT(&fakeClient{open: true, token: pendingToken()})
	m.publishTimeout = 20 * time.Millisecond

	err := m.Publish(context.Background(), "t", "p", AtLeastOnce, true)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestMQTT_PublishContextCancelled(t *testing.T) {
	m := newMQTT(&fakeClient{open: true, token: pendingToken()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Publish(ctx, "t", "p", AtLeastOnce, true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMQTT_Close(t *testing.T) {
	client := &fakeClient{open: true}
	m := newMQTT(client)

	require.NoError(t, m.Close())
	assert.True(t, client.disconnected)

	// Closing twice is harmless.
	require.NoError(t, m.Close())
}

func TestDialMQTT_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := DialMQTT(ctx, config.MQTTConfig{
		Host:      "127.0.0.1",
		Port:      1,
		ClientID:  "sitepulse-test",
		KeepAlive: time.Second,
	})
	assert.Error(t, err)
}

func TestDial_UnknownKind(t *testing.T) {
	_, err := Dial(context.Background(), config.BrokerConfig{Kind: "kafka"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}
