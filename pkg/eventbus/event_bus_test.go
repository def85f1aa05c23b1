package eventbus_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mordomohq/mordomo/pkg/channels/gochannel"
	"github.com/mordomohq/mordomo/pkg/eventbus"
	"github.com/mordomohq/mordomo/pkg/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatermillEventBusRoundTrip(t *testing.T) {
	t.Parallel()

	pub, sub := gochannel.CreateTestChannel(watermill.NopLogger{})
	bus := eventbus.NewWatermillEventBus(pub, sub, testLogger())

	t.Cleanup(func() {
		_ = bus.Close()
	})

	received := make(chan events.ExternalEvent, 1)

	err := bus.Subscribe(t.Context(), func(_ context.Context, event events.ExternalEvent) error {
		received <- event

		return nil
	})
	require.NoError(t, err)

	sent := events.NewExternalEvent("mail", "received", map[string]any{"from": "alice@example.com"})
	require.NoError(t, bus.Publish(t.Context(), sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "mail", got.Source)
		assert.Equal(t, "received", got.Type)
		assert.Equal(t, "alice@example.com", got.Data["from"])
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBusRejectsInvalidEvent(t *testing.T) {
	t.Parallel()

	pub, sub := gochannel.CreateTestChannel(watermill.NopLogger{})
	bus := eventbus.NewWatermillEventBus(pub, sub, testLogger())

	t.Cleanup(func() {
		_ = bus.Close()
	})

	err := bus.Publish(t.Context(), events.ExternalEvent{Type: "received"})
	require.Error(t, err)
	assert.ErrorIs(t, err, events.ErrInvalidEvent)
}
