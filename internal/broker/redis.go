package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hazz-dev/sitepulse/internal/config"
)

const redisPingTimeout = 5 * time.Second

// Redis publishes over Redis pub/sub. Retention is emulated by also storing
// the payload under a key named after the topic; QoS has no equivalent and is
// ignored.
type Redis struct {
	client *redis.Client
}

// DialRedis connects and verifies the connection with a PING.
func DialRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Publish(ctx context.Context, topic, payload string, _ byte, retain bool) error {
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		if retain {
			pipe.Set(ctx, topic, payload, 0)
		}
		pipe.Publish(ctx, topic, payload)
		return nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, redis.ErrClosed):
		return ErrNotConnected
	default:
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
