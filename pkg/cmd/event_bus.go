package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/mordomohq/mordomo/pkg/channels/gochannel"
	"github.com/mordomohq/mordomo/pkg/channels/kafka"
	"github.com/mordomohq/mordomo/pkg/eventbus"
)

// NewEventBus builds the event bus for the given provider. The default is
// the in-process channel; "kafka" connects to the given brokers.
func NewEventBus(provider string, logger *slog.Logger, serviceName string, kafkaBrokers []string) (eventbus.EventBus, error) {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName, kafkaBrokers)
		if err != nil {
			return nil, fmt.Errorf("create kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	case "", "gochannel":
		pub, sub := gochannel.CreateChannel(watermill.NewSlogLogger(logger))

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %q", provider)
	}
}
