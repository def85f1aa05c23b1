// Package redisqueue ingests external events from a Redis list and
// publishes them on the event bus.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/mordomohq/mordomo/pkg/eventbus"
	"github.com/mordomohq/mordomo/pkg/events"
)

const (
	popTimeout     = 5 * time.Second
	connectTimeout = 5 * time.Second
)

// Config names the Redis connection and the list key to consume.
type Config struct {
	URL      string
	QueueKey string
}

// Receiver BRPOPs JSON-encoded external events off a Redis list and
// forwards them to the bus. Producers push with LPUSH, so the list acts
// as a durable hand-off queue between external processes and the agent.
type Receiver struct {
	config Config
	bus    eventbus.EventBus
	logger *slog.Logger
	client *redis.Client
	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	active bool
}

// NewReceiver builds a stopped receiver.
func NewReceiver(config Config, bus eventbus.EventBus, logger *slog.Logger) (*Receiver, error) {
	if config.QueueKey == "" {
		return nil, errors.New("redis queue receiver requires a queue key")
	}

	return &Receiver{
		config: config,
		bus:    bus,
		logger: logger.With("module", "receiver.redisqueue", "queue", config.QueueKey),
	}, nil
}

// Start connects and launches the consume loop.
func (r *Receiver) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return nil
	}

	opts, err := redis.ParseURL(r.config.URL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r.client = client
	r.stopCh = make(chan struct{})
	r.active = true

	r.wg.Add(1)

	go r.consume(ctx)

	r.logger.InfoContext(ctx, "Redis queue receiver started")

	return nil
}

// Stop ends the consume loop and closes the connection. Stopping a
// stopped receiver is a no-op.
func (r *Receiver) Stop(ctx context.Context) error {
	r.mu.Lock()

	if !r.active {
		r.mu.Unlock()

		return nil
	}

	close(r.stopCh)
	r.active = false
	r.mu.Unlock()

	r.wg.Wait()

	err := r.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.InfoContext(ctx, "Redis queue receiver stopped")

	return nil
}

func (r *Receiver) consume(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		result, err := r.client.BRPop(ctx, popTimeout, r.config.QueueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}

			r.logger.ErrorContext(ctx, "Failed to pop from Redis queue", "error", err)

			select {
			case <-r.stopCh:
				return
			case <-time.After(time.Second):
			}

			continue
		}

		// BRPop returns [key, value].
		if len(result) < 2 {
			continue
		}

		r.handlePayload(ctx, []byte(result[1]))
	}
}

// handlePayload decodes one queued payload and publishes it. A payload
// that does not decode or validate is dropped with a warning, not
// requeued, so a poison message cannot loop forever.
func (r *Receiver) handlePayload(ctx context.Context, payload []byte) {
	var event events.ExternalEvent

	err := json.Unmarshal(payload, &event)
	if err != nil {
		r.logger.WarnContext(ctx, "Dropping undecodable queue payload", "error", err)

		return
	}

	if event.ID == "" {
		event = events.NewExternalEvent(event.Source, event.Type, event.Data)
	}

	err = event.Validate()
	if err != nil {
		r.logger.WarnContext(ctx, "Dropping invalid queue event", "error", err)

		return
	}

	err = r.bus.Publish(ctx, event)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish queue event", "event_id", event.ID, "error", err)
	}
}
