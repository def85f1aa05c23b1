package capabilities

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *FileSystem {
	t.Helper()

	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("remember the milk"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "inbox"), 0750))

	fs, err := NewFileSystem(root)
	require.NoError(t, err)

	return fs
}

func TestFileSystem_ReadFile(t *testing.T) {
	t.Parallel()

	fs := newTestFS(t)

	content, err := fs.Call(t.Context(), "read_file", map[string]any{"path": "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, "remember the milk", content)
}

func TestFileSystem_ListDirectory(t *testing.T) {
	t.Parallel()

	fs := newTestFS(t)

	listing, err := fs.Call(t.Context(), "list_directory", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, listing, "notes.txt")
	assert.Contains(t, listing, "inbox/")
}

func TestFileSystem_RejectsPathEscape(t *testing.T) {
	t.Parallel()

	fs := newTestFS(t)

	for _, path := range []string{"..", "../secrets", "inbox/../../etc/passwd"} {
		_, err := fs.Call(t.Context(), "read_file", map[string]any{"path": path})
		require.Error(t, err, path)
		assert.Contains(t, err.Error(), "escapes the workspace root")
	}
}

func TestFileSystem_UnknownTool(t *testing.T) {
	t.Parallel()

	fs := newTestFS(t)

	_, err := fs.Call(t.Context(), "delete_file", map[string]any{"path": "notes.txt"})
	require.Error(t, err)
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	fs := newTestFS(t)

	r := NewRegistry(testLogger())
	r.Register(fs)

	providers, missing := r.Resolve([]string{"file_system", "crystal_ball"})
	require.Len(t, providers, 1)
	assert.Equal(t, "file_system", providers[0].ID())
	assert.Equal(t, []string{"crystal_ball"}, missing)
}
