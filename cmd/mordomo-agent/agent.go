package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/mordomohq/mordomo/pkg/cmd"
	"github.com/mordomohq/mordomo/pkg/conditions"
	"github.com/mordomohq/mordomo/pkg/connectors"
	"github.com/mordomohq/mordomo/pkg/dispatcher"
	"github.com/mordomohq/mordomo/pkg/log"
	"github.com/mordomohq/mordomo/pkg/receivers/redisqueue"
	"github.com/mordomohq/mordomo/pkg/scheduler"
	"github.com/mordomohq/mordomo/pkg/settings"
	"github.com/mordomohq/mordomo/pkg/tracer"
	"github.com/mordomohq/mordomo/pkg/web"
	"github.com/mordomohq/mordomo/pkg/workflow"
)

const shutdownTimeout = 30 * time.Second

// runAgent wires the whole agent: store over persistence, connectors,
// scheduler and watcher as store observers, dispatcher on the event bus,
// and the HTTP API on top. Observers subscribe before Load and Resync so
// the derived schedules are rebuilt from the durable collection before
// any external input is accepted.
func runAgent(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("agent")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if command.Bool("tracing") || command.String("tracing-endpoint") != "" {
		tracerProvider, err := tracer.Init(ctx, "mordomo-agent", command.String("tracing-endpoint"))
		if err != nil {
			return fmt.Errorf("initialize tracer: %w", err)
		}

		defer func() {
			err := tracerProvider.Shutdown(context.Background())
			if err != nil {
				logger.Error("Failed to shut down tracer provider", "error", err)
			}
		}()
	}

	persist, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return fmt.Errorf("open persistence: %w", err)
	}

	defer func() {
		err := persist.Close(context.Background())
		if err != nil {
			logger.Error("Failed to close persistence", "error", err)
		}
	}()

	settingsStore := settings.NewStore(command.String("settings-file"), logger)

	err = settingsStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	connectorRegistry, err := cmd.NewConnectorRegistry(ctx, logger, cmd.ConnectorConfig{
		GmailAccessToken: command.String("gmail-token"),
	})
	if err != nil {
		return fmt.Errorf("build connector registry: %w", err)
	}

	store := workflow.NewStore(persist, logger)

	sched := scheduler.NewScheduler(connectorRegistry, store, logger, scheduler.Options{
		PollInterval:    command.Duration("poll-interval"),
		MisfireGrace:    command.Duration("misfire-grace"),
		WaitForInflight: command.Bool("wait-for-inflight"),
	})
	store.Subscribe(sched)

	watcher := buildWatcher(ctx, command, settingsStore, connectorRegistry, store, logger)
	if watcher != nil {
		store.Subscribe(watcher)
	}

	err = store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load workflows: %w", err)
	}

	sched.Start(ctx)
	defer sched.Stop(context.Background())

	if watcher != nil {
		watcher.Start(ctx)
		defer watcher.Stop(context.Background())
	}

	store.Resync(ctx)

	bus, err := cmd.NewEventBus(command.String("event-bus"), logger, "mordomo-agent", command.StringSlice("kafka-brokers"))
	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}

	defer func() {
		err := bus.Close()
		if err != nil {
			logger.Error("Failed to close event bus", "error", err)
		}
	}()

	eventDispatcher := dispatcher.NewDispatcher(store, connectorRegistry, logger)

	err = bus.Subscribe(ctx, eventDispatcher.HandleEvent)
	if err != nil {
		return fmt.Errorf("subscribe dispatcher: %w", err)
	}

	if command.String("redis-url") != "" {
		receiver, err := redisqueue.NewReceiver(redisqueue.Config{
			URL:      command.String("redis-url"),
			QueueKey: command.String("redis-queue-key"),
		}, bus, logger)
		if err != nil {
			return fmt.Errorf("create redis receiver: %w", err)
		}

		err = receiver.Start(ctx)
		if err != nil {
			return fmt.Errorf("start redis receiver: %w", err)
		}

		defer func() {
			err := receiver.Stop(context.Background())
			if err != nil {
				logger.Error("Failed to stop redis receiver", "error", err)
			}
		}()
	}

	app := web.NewApp(web.NewAPIHandlers(store, settingsStore, bus, logger))
	serverErr := make(chan error, 1)

	go func() {
		serverErr <- app.Listen(":" + strconv.Itoa(command.Int("port")))
	}()

	logger.InfoContext(ctx, "Agent started",
		"port", command.Int("port"), "workflows", len(store.List()))

	select {
	case err = <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = app.ShutdownWithContext(shutdownCtx)
	if err != nil {
		logger.Error("Failed to shut down HTTP server", "error", err)
	}

	return nil
}

// buildWatcher builds the semantic condition watcher when an OpenAI key
// is configured. Without one, condition workflows stay stored but are
// never checked.
func buildWatcher(
	ctx context.Context,
	command *cli.Command,
	settingsStore *settings.Store,
	executor *connectors.Registry,
	store *workflow.Store,
	logger *slog.Logger,
) *conditions.Watcher {
	apiKey := command.String("openai-api-key")
	if apiKey == "" {
		logger.InfoContext(ctx, "Condition watcher disabled, no OpenAI API key configured")

		return nil
	}

	model := command.String("openai-model")
	if model == "" {
		if value, ok := settingsStore.Get("llm_model"); ok {
			model, _ = value.(string)
		}
	}

	capabilityRegistry, err := cmd.NewCapabilityRegistry(ctx, logger, command.String("workspace-root"), 0)
	if err != nil {
		logger.ErrorContext(ctx, "Condition watcher disabled, capability registry failed", "error", err)

		return nil
	}

	evaluator := conditions.NewOpenAIEvaluator(apiKey, model, logger)

	return conditions.NewWatcher(evaluator, capabilityRegistry, executor, store, logger, command.Duration("poll-interval"))
}
