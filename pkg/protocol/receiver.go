package protocol

import "context"

// Receiver ingests external events from some transport and publishes them
// on the event bus. Start blocks until the receiver is consuming; Stop
// drains and returns once the consume loop has exited.
type Receiver interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
