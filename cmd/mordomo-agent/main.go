package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/mordomohq/mordomo/pkg/log"
)

const defaultPort = 9091

func main() {
	cmd := &cli.Command{
		Name:                  "mordomo-agent",
		Usage:                 "Run the personal automation agent",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Workflow persistence: a postgres:// URL or a JSON file path",
				Value:   "./data/workflows.json",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "settings-file",
				Usage:   "Path to the settings JSON file",
				Value:   "./data/settings.json",
				Sources: cli.EnvVars("SETTINGS_FILE"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka broker addresses, used when the event bus is kafka",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the queue event receiver (disabled when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-queue-key",
				Usage:   "Redis list key the queue receiver pops events from",
				Value:   "mordomo:events",
				Sources: cli.EnvVars("REDIS_QUEUE_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "OpenAI API key for semantic condition evaluation (disabled when empty)",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-model",
				Usage:   "OpenAI model for semantic condition evaluation (defaults to the llm_model setting)",
				Sources: cli.EnvVars("OPENAI_MODEL"),
			},
			&cli.StringFlag{
				Name:    "gmail-token",
				Usage:   "Gmail OAuth access token for the mail connector (disabled when empty)",
				Sources: cli.EnvVars("GMAIL_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "workspace-root",
				Usage:   "Directory the file system capability is confined to (disabled when empty)",
				Sources: cli.EnvVars("WORKSPACE_ROOT"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "Scheduler and watcher poll interval",
				Value:   15 * time.Second,
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.DurationFlag{
				Name:    "misfire-grace",
				Usage:   "How far past its due time a cron firing may still run",
				Value:   5 * time.Minute,
				Sources: cli.EnvVars("MISFIRE_GRACE"),
			},
			&cli.BoolFlag{
				Name:    "wait-for-inflight",
				Usage:   "Wait for in-flight action executions on shutdown",
				Value:   true,
				Sources: cli.EnvVars("WAIT_FOR_INFLIGHT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "tracing-endpoint",
				Usage:   "OTLP/HTTP endpoint URL (defaults to the OTEL_EXPORTER_OTLP_* variables)",
				Sources: cli.EnvVars("TRACING_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			return runAgent(ctx, command)
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
