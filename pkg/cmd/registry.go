package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/mordomohq/mordomo/pkg/capabilities"
	"github.com/mordomohq/mordomo/pkg/connectors"
	"github.com/mordomohq/mordomo/pkg/connectors/browser"
	"github.com/mordomohq/mordomo/pkg/connectors/mail"
	"github.com/mordomohq/mordomo/pkg/models"
)

const defaultFetchTimeout = 30 * time.Second

// ConnectorConfig holds the credentials and knobs for the native
// connectors. Connectors without configuration are always registered;
// the mail connector needs a Gmail token.
type ConnectorConfig struct {
	GmailAccessToken string
	FetchTimeout     time.Duration
}

// NewConnectorRegistry registers every native connector the configuration
// allows.
func NewConnectorRegistry(ctx context.Context, logger *slog.Logger, config ConnectorConfig) (*connectors.Registry, error) {
	timeout := config.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	registry := connectors.NewRegistry(logger)
	registry.Register(models.ConnectorBrowser, browser.NewExecutor(browser.NewFetcher(timeout), logger))

	if config.GmailAccessToken != "" {
		mailExecutor, err := mail.NewExecutor(ctx, config.GmailAccessToken, logger)
		if err != nil {
			return nil, err
		}

		registry.Register(models.ConnectorMail, mailExecutor)
	} else {
		logger.InfoContext(ctx, "Mail connector disabled, no Gmail access token configured")
	}

	return registry, nil
}

// NewCapabilityRegistry registers the native condition-checking
// capabilities. The file system capability is scoped to root and skipped
// when root is empty.
func NewCapabilityRegistry(ctx context.Context, logger *slog.Logger, root string, fetchTimeout time.Duration) (*capabilities.Registry, error) {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}

	registry := capabilities.NewRegistry(logger)
	registry.Register(capabilities.NewWebScraper(browser.NewFetcher(fetchTimeout)))

	if root != "" {
		fileSystem, err := capabilities.NewFileSystem(root)
		if err != nil {
			return nil, err
		}

		registry.Register(fileSystem)
	} else {
		logger.InfoContext(ctx, "File system capability disabled, no workspace root configured")
	}

	return registry, nil
}
