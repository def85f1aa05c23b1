// Package cmd provides common initialization for the command-line
// entrypoints.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mordomohq/mordomo/pkg/persistence"
	"github.com/mordomohq/mordomo/pkg/persistence/file"
	"github.com/mordomohq/mordomo/pkg/persistence/postgresql"
)

// NewPersistence selects a persistence driver from the database URL. A
// postgres URL opens PostgreSQL; anything else is treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	}

	return file.NewPersistence(databaseURL, logger), nil
}
