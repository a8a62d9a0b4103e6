// Package bridge mirrors a session's event stream to Redis pub/sub so
// out-of-process observers (dashboards, log collectors) can follow research
// progress without linking against the coordinator. The bridge is opt-in:
// the in-process core never requires it, and a failed publish is logged and
// dropped rather than disturbing orchestration.
package bridge

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lantern-ai/researchkit/event"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "researchkit:events"

// Options configures the Redis connection.
type Options struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// Channel is the pub/sub channel events are mirrored to.
	Channel string

	// TLS configuration for secure connections.
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration

	// Logger records publish failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// outboxSize bounds how many events can wait for the background publisher.
const outboxSize = 256

// RedisBridge publishes session events to a Redis pub/sub channel.
//
// Observer enqueues onto an internal outbox drained by a background
// goroutine, so a slow or unreachable Redis never blocks the caller; a
// full outbox drops events, matching the bus's at-most-once policy.
type RedisBridge struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger

	// outbox is never closed; quit stops the drain goroutine and done
	// reports that it has flushed and exited.
	outbox    chan event.Event
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a bridge and verifies connectivity with a ping.
func New(opts Options) (*RedisBridge, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	b := &RedisBridge{
		client:  client,
		channel: opts.Channel,
		logger:  opts.Logger,
		outbox:  make(chan event.Event, outboxSize),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go b.drain()
	return b, nil
}

// Publish sends one event to the bridge channel as JSON.
func (b *RedisBridge) Publish(ctx context.Context, ev event.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", b.channel, err)
	}
	return nil
}

// Observer adapts the bridge to the coordinator's observer hook. The
// returned function only enqueues onto the outbox and never blocks: a full
// outbox or a closed bridge drops the event, and publish failures are
// logged by the background publisher. A Redis outage therefore delays
// nothing in the session.
func (b *RedisBridge) Observer() func(event.Event) {
	return func(ev event.Event) {
		select {
		case <-b.quit:
		case b.outbox <- ev:
		default:
			b.logger.Warn("bridge outbox full, dropping event",
				slog.String("event_id", ev.ID),
				slog.String("type", ev.Type.String()))
		}
	}
}

// drain publishes queued events until Close, then flushes the outbox.
func (b *RedisBridge) drain() {
	defer close(b.done)
	for {
		select {
		case <-b.quit:
			for {
				select {
				case ev := <-b.outbox:
					b.publishLogged(ev)
				default:
					return
				}
			}
		case ev := <-b.outbox:
			b.publishLogged(ev)
		}
	}
}

func (b *RedisBridge) publishLogged(ev event.Event) {
	if err := b.Publish(context.Background(), ev); err != nil {
		b.logger.Warn("failed to mirror event to redis",
			slog.String("event_id", ev.ID),
			slog.String("type", ev.Type.String()),
			slog.String("error", err.Error()))
	}
}

// Subscribe creates a subscription to the bridge channel. The returned
// channel receives events until ctx is cancelled or the subscription is
// closed; malformed payloads are skipped.
func (b *RedisBridge) Subscribe(ctx context.Context) (<-chan event.Event, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)

	// Wait for subscription confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", b.channel, err)
	}

	events := make(chan event.Event)
	go func() {
		defer close(events)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev event.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("skipping malformed event payload",
						slog.String("error", err.Error()))
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}

// Close stops the background publisher, flushes any queued events, and
// closes the Redis connection. Close is idempotent.
func (b *RedisBridge) Close() error {
	b.closeOnce.Do(func() {
		close(b.quit)
		<-b.done
	})
	return b.client.Close()
}
