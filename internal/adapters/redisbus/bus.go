// Package redisbus relays change events between instances over Redis pub/sub.
// Every instance publishes its own inserts and forwards everything it receives,
// its own messages included, to the local broker.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/csg33k/pledge-wall/internal/feed"
	"github.com/csg33k/pledge-wall/internal/platform/logger"
)

const DefaultChannel = "pledge-wall:changes"

type Bus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func New(addr, channel string, log *logger.Logger) (*Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Bus{
		log:     log.With("service", "RedisBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

// Publish satisfies feed.Publisher.
func (b *Bus) Publish(ctx context.Context, ev feed.Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	raw, err := Encode(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes to the channel and hands every decoded event to
// onEvent until ctx is cancelled. It returns once the subscription is live.
func (b *Bus) StartForwarder(ctx context.Context, onEvent func(feed.Event)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				ev, err := Decode(m.Payload)
				if err != nil {
					b.log.Warn("bad redis change payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *Bus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func Encode(ev feed.Event) ([]byte, error) {
	return json.Marshal(ev)
}

// Decode parses a relayed event, rejecting messages without a table or with
// an unknown op.
func Decode(payload string) (feed.Event, error) {
	var ev feed.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return feed.Event{}, err
	}
	if ev.Table == "" {
		return feed.Event{}, fmt.Errorf("event without table")
	}
	op, err := feed.ParseOp(string(ev.Op))
	if err != nil {
		return feed.Event{}, err
	}
	ev.Op = op
	return ev, nil
}
