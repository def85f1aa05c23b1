// Package file implements persistence on a single JSON file holding the
// full workflow collection.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mordomohq/mordomo/pkg/models"
	"github.com/mordomohq/mordomo/pkg/persistence"
)

// Persistence stores the collection as one JSON array and rewrites it in
// full on every save. Writes go through a temp file plus rename so a
// crashed write never leaves a truncated collection behind.
type Persistence struct {
	path   string
	logger *slog.Logger
}

// NewPersistence creates a file-backed persistence at path. The file is
// created lazily on the first save.
func NewPersistence(path string, logger *slog.Logger) *Persistence {
	return &Persistence{
		path:   path,
		logger: logger.With("module", "persistence.file"),
	}
}

// LoadAll reads the stored collection. A missing file is an empty
// collection. A file that is not valid JSON also yields an empty
// collection, with a logged error, so one bad write does not take the
// process down. A single record that does not decode is skipped with a
// logged warning and the rest of the collection still loads.
func (p *Persistence) LoadAll(ctx context.Context) ([]*models.Workflow, error) {
	body, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Workflow{}, nil
		}

		return nil, persistence.NewPersistenceError("load", err)
	}

	var records []json.RawMessage

	err = json.Unmarshal(body, &records)
	if err != nil {
		p.logger.ErrorContext(ctx, "Workflow file is corrupt, starting with an empty collection",
			"path", p.path, "error", err)

		return []*models.Workflow{}, nil
	}

	workflows := make([]*models.Workflow, 0, len(records))

	for i, record := range records {
		var workflow models.Workflow

		err = json.Unmarshal(record, &workflow)
		if err != nil {
			p.logger.WarnContext(ctx, "Skipping corrupt workflow record",
				"path", p.path, "index", i, "error", err)

			continue
		}

		workflows = append(workflows, &workflow)
	}

	return workflows, nil
}

// SaveAll rewrites the whole collection atomically.
func (p *Persistence) SaveAll(_ context.Context, workflows []*models.Workflow) error {
	if workflows == nil {
		workflows = []*models.Workflow{}
	}

	err := os.MkdirAll(filepath.Dir(p.path), 0750)
	if err != nil {
		return persistence.NewPersistenceError("save", fmt.Errorf("create directory: %w", err))
	}

	data, err := json.MarshalIndent(workflows, "", "  ")
	if err != nil {
		return persistence.NewPersistenceError("save", fmt.Errorf("marshal collection: %w", err))
	}

	tmp := p.path + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return persistence.NewPersistenceError("save", err)
	}

	err = os.Rename(tmp, p.path)
	if err != nil {
		return persistence.NewPersistenceError("save", err)
	}

	return nil
}

// HealthCheck verifies the collection directory is reachable.
func (p *Persistence) HealthCheck(_ context.Context) error {
	err := os.MkdirAll(filepath.Dir(p.path), 0750)
	if err != nil {
		return persistence.NewPersistenceError("health", err)
	}

	return nil
}

// Close is a no-op for the file driver.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
