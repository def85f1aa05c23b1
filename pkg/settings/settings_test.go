package settings

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestLoad_MissingFileStartsWithDefaultsAndWritesThem(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	s := NewStore(path, testLogger())

	require.NoError(t, s.Load(t.Context()))

	theme, ok := s.Get("theme")
	require.True(t, ok)
	assert.Equal(t, "system", theme)

	// The defaults were written out.
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme": "dark", "custom": 1}`), 0600))

	s := NewStore(path, testLogger())
	require.NoError(t, s.Load(t.Context()))

	theme, _ := s.Get("theme")
	assert.Equal(t, "dark", theme)

	custom, ok := s.Get("custom")
	require.True(t, ok)
	assert.Equal(t, float64(1), custom)

	// Defaults missing from the file are still present.
	model, ok := s.Get("llm_model")
	require.True(t, ok)
	assert.NotEmpty(t, model)
}

func TestLoad_CorruptFileRevertsToDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s := NewStore(path, testLogger())
	require.NoError(t, s.Load(t.Context()))

	assert.Equal(t, Defaults(), s.All())

	// The repaired file loads cleanly next time.
	fresh := NewStore(path, testLogger())
	require.NoError(t, fresh.Load(t.Context()))
	assert.Equal(t, Defaults(), fresh.All())
}

func TestSetGet_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")

	s := NewStore(path, testLogger())
	require.NoError(t, s.Load(t.Context()))
	require.NoError(t, s.Set("theme", "light"))

	fresh := NewStore(path, testLogger())
	require.NoError(t, fresh.Load(t.Context()))

	theme, _ := fresh.Get("theme")
	assert.Equal(t, "light", theme)
}

func TestKeys_Sorted(t *testing.T) {
	t.Parallel()

	s := NewStore(filepath.Join(t.TempDir(), "settings.json"), testLogger())
	require.NoError(t, s.Load(t.Context()))

	keys := s.Keys()
	assert.Equal(t, []string{"default_download_path", "llm_model", "notifications_enabled", "theme"}, keys)
}
