// Package settings persists flat key/value user settings with defaults.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Defaults returns the settings every fresh installation starts with.
func Defaults() map[string]any {
	return map[string]any{
		"theme":                 "system",
		"llm_model":             "gpt-4o-mini",
		"notifications_enabled": true,
		"default_download_path": "",
	}
}

// Store keeps the settings file and an in-memory copy in sync. Writes are
// mutex-serialized and atomic; a corrupt file reverts to the defaults.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
	logger *slog.Logger
}

// NewStore creates a store over path. Call Load before use.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		values: Defaults(),
		logger: logger.With("module", "settings"),
	}
}

// Load reads the settings file and merges it over the defaults, then
// rewrites the file when any default was missing so new keys appear on
// disk after an upgrade. A missing file starts from the defaults; a
// corrupt file reverts to them with a logged error.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = Defaults()

	body, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.saveLocked()
	}

	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	var stored map[string]any

	err = json.Unmarshal(body, &stored)
	if err != nil {
		s.logger.ErrorContext(ctx, "Settings file is corrupt, reverting to defaults",
			"path", s.path, "error", err)

		return s.saveLocked()
	}

	missingDefaults := false

	for key := range s.values {
		if _, ok := stored[key]; !ok {
			missingDefaults = true
		}
	}

	for key, value := range stored {
		s.values[key] = value
	}

	if missingDefaults {
		return s.saveLocked()
	}

	return nil
}

// Get returns one setting value.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]

	return value, ok
}

// Set stores one setting and persists the file.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.values[key]
	s.values[key] = value

	err := s.saveLocked()
	if err != nil {
		if existed {
			s.values[key] = previous
		} else {
			delete(s.values, key)
		}

		return err
	}

	return nil
}

// All returns a copy of every setting.
func (s *Store) All() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string]any, len(s.values))
	for key, value := range s.values {
		values[key] = value
	}

	return values
}

// Keys returns the setting keys sorted, for stable CLI output.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// saveLocked writes the settings atomically. Callers must hold mu.
func (s *Store) saveLocked() error {
	err := os.MkdirAll(filepath.Dir(s.path), 0750)
	if err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp := s.path + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	err = os.Rename(tmp, s.path)
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}
