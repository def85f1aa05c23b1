package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mordomohq/mordomo/pkg/events"
)

// WatermillEventBus carries external events over any watermill
// publisher/subscriber pair (in-process gochannel by default, Kafka by
// configuration).
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

// NewWatermillEventBus wires a bus over the given channel.
func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
		logger:     logger.With("module", "eventbus"),
	}
}

// Publish sends the event on the events topic.
func (b *WatermillEventBus) Publish(_ context.Context, event events.ExternalEvent) error {
	err := event.Validate()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewULID(), payload)
	msg.Metadata.Set(events.SourceMetadataKey, event.Source)
	msg.Metadata.Set(events.TypeMetadataKey, event.Type)

	return b.publisher.Publish(events.Topic, msg)
}

// Subscribe consumes the events topic in a background goroutine and hands
// each decoded event to handler. A message that does not decode is acked
// and dropped; a handler error nacks for redelivery.
func (b *WatermillEventBus) Subscribe(ctx context.Context, handler EventHandler) error {
	messages, err := b.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var event events.ExternalEvent

			err := json.Unmarshal(msg.Payload, &event)
			if err != nil {
				b.logger.WarnContext(ctx, "Dropping undecodable event message",
					"message_id", msg.UUID, "error", err)
				msg.Ack()

				continue
			}

			err = handler(ctx, event)
			if err != nil {
				b.logger.ErrorContext(ctx, "Event handler failed",
					"event_id", event.ID, "error", err)
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

// Close closes the underlying publisher and subscriber.
func (b *WatermillEventBus) Close() error {
	err := b.publisher.Close()
	if err != nil {
		return err
	}

	return b.subscriber.Close()
}
