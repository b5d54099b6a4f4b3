package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"zenbudget/internal/store"
)

// RedisBus publishes changes on a Redis pub/sub channel.
type RedisBus struct {
	rdb     *redis.Client
	channel string
}

var _ Bus = (*RedisBus)(nil)

// NewRedisBus connects to addr and verifies the connection.
func NewRedisBus(ctx context.Context, addr, password, channel string) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisBus{rdb: rdb, channel: channel}, nil
}

func (b *RedisBus) Publish(ctx context.Context, c store.Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

func (b *RedisBus) Run(ctx context.Context, deliver func(store.Change)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	slog.InfoContext(ctx, "Subscribed to change channel", "channel", b.channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("redis channel %s closed", b.channel)
			}
			var c store.Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil || c.UserID == "" {
				slog.ErrorContext(ctx, "Dropping malformed change", "payload", msg.Payload, "error", err)
				continue
			}
			deliver(c)
		}
	}
}

// Ping checks broker connectivity.
func (b *RedisBus) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
