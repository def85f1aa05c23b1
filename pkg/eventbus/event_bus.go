// Package eventbus moves external events between receivers and the
// dispatcher.
package eventbus

import (
	"context"

	"github.com/mordomohq/mordomo/pkg/events"
)

// EventHandler processes one delivered event. Returning an error nacks
// the message so the driver can redeliver it.
type EventHandler func(ctx context.Context, event events.ExternalEvent) error

// EventBus publishes and subscribes external events. Subscribe installs
// the handler and starts consuming in the background; Close stops the
// underlying channel.
type EventBus interface {
	Publish(ctx context.Context, event events.ExternalEvent) error
	Subscribe(ctx context.Context, handler EventHandler) error
	Close() error
}
