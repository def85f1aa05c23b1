// Package postgresql implements workflow collection persistence on
// PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver registration

	"github.com/mordomohq/mordomo/pkg/models"
	"github.com/mordomohq/mordomo/pkg/persistence"
	"github.com/mordomohq/mordomo/pkg/persistence/sqlbase"
)

// Persistence stores the workflow collection in a workflows table, with
// trigger and action kept as JSONB documents. SaveAll replaces the whole
// collection inside one transaction, which preserves the atomic
// full-collection semantics the store relies on.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence connects, migrates the schema, and returns the driver.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:     database,
		logger: logger.With("module", "persistence.postgresql"),
	}, nil
}

// LoadAll returns the stored collection in saved order. A row whose JSONB
// documents no longer decode is skipped with a logged warning.
func (p *Persistence) LoadAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT id, name, trigger, target_connector, action, is_enabled, created_at, updated_at
		FROM workflows
		ORDER BY position
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewPersistenceError("load", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			p.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var workflows []*models.Workflow

	for rows.Next() {
		var triggerJSON, actionJSON []byte

		workflow := &models.Workflow{}

		err = rows.Scan(
			&workflow.ID,
			&workflow.Name,
			&triggerJSON,
			&workflow.TargetConnector,
			&actionJSON,
			&workflow.IsEnabled,
			&workflow.CreatedAt,
			&workflow.UpdatedAt,
		)
		if err != nil {
			return nil, persistence.NewPersistenceError("load", err)
		}

		err = json.Unmarshal(triggerJSON, &workflow.Trigger)
		if err != nil {
			p.logger.WarnContext(ctx, "Skipping workflow with corrupt trigger document",
				"workflow_id", workflow.ID, "error", err)

			continue
		}

		err = json.Unmarshal(actionJSON, &workflow.Action)
		if err != nil {
			p.logger.WarnContext(ctx, "Skipping workflow with corrupt action document",
				"workflow_id", workflow.ID, "error", err)

			continue
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewPersistenceError("load", err)
	}

	if workflows == nil {
		workflows = []*models.Workflow{}
	}

	return workflows, nil
}

// SaveAll replaces the stored collection with the given one atomically.
func (p *Persistence) SaveAll(ctx context.Context, workflows []*models.Workflow) error {
	transaction, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewPersistenceError("save", err)
	}

	_, err = transaction.ExecContext(ctx, "DELETE FROM workflows")
	if err != nil {
		_ = transaction.Rollback()

		return persistence.NewPersistenceError("save", err)
	}

	insert := `
		INSERT INTO workflows (id, name, trigger, target_connector, action, is_enabled, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for position, workflow := range workflows {
		triggerJSON, err := json.Marshal(workflow.Trigger)
		if err != nil {
			_ = transaction.Rollback()

			return persistence.NewPersistenceError("save", fmt.Errorf("marshal trigger for %s: %w", workflow.ID, err))
		}

		actionJSON, err := json.Marshal(workflow.Action)
		if err != nil {
			_ = transaction.Rollback()

			return persistence.NewPersistenceError("save", fmt.Errorf("marshal action for %s: %w", workflow.ID, err))
		}

		_, err = transaction.ExecContext(ctx, insert,
			workflow.ID,
			workflow.Name,
			triggerJSON,
			workflow.TargetConnector,
			actionJSON,
			workflow.IsEnabled,
			position,
			workflow.CreatedAt,
			workflow.UpdatedAt,
		)
		if err != nil {
			_ = transaction.Rollback()

			return persistence.NewPersistenceError("save", fmt.Errorf("insert workflow %s: %w", workflow.ID, err))
		}
	}

	err = transaction.Commit()
	if err != nil {
		return persistence.NewPersistenceError("save", err)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return persistence.NewPersistenceError("health", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
