package capabilities

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mordomohq/mordomo/pkg/protocol"
)

// maxFileBytes caps how much of a file read_file returns.
const maxFileBytes = 1 << 20

// FileSystem exposes read-only access to a single directory tree as
// condition evaluation tools. Paths are resolved under the root and may
// not escape it.
type FileSystem struct {
	root string
}

// NewFileSystem builds the file_system provider rooted at root.
func NewFileSystem(root string) (*FileSystem, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	return &FileSystem{root: abs}, nil
}

func (f *FileSystem) ID() string {
	return "file_system"
}

func (f *FileSystem) Description() string {
	return "Reads files and lists directories under the configured workspace."
}

func (f *FileSystem) Tools() []protocol.ToolInfo {
	return []protocol.ToolInfo{
		{
			Name:        "read_file",
			Description: "Read a text file relative to the workspace root.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "File path relative to the workspace root.",
					},
				},
				"required": []any{"path"},
			},
		},
		{
			Name:        "list_directory",
			Description: "List the entries of a directory relative to the workspace root.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Directory path relative to the workspace root. Defaults to the root.",
					},
				},
			},
		},
	}
}

func (f *FileSystem) Call(ctx context.Context, tool string, args map[string]any) (string, error) {
	_ = ctx

	relative, _ := args["path"].(string)

	resolved, err := f.resolve(relative)
	if err != nil {
		return "", err
	}

	switch tool {
	case "read_file":
		if relative == "" {
			return "", fmt.Errorf("read_file requires a path argument")
		}

		body, err := os.ReadFile(resolved)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", relative, err)
		}

		if len(body) > maxFileBytes {
			body = body[:maxFileBytes]
		}

		return string(body), nil
	case "list_directory":
		entries, err := os.ReadDir(resolved)
		if err != nil {
			return "", fmt.Errorf("list %s: %w", relative, err)
		}

		names := make([]string, 0, len(entries))

		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() {
				name += "/"
			}

			names = append(names, name)
		}

		return strings.Join(names, "\n"), nil
	default:
		return "", fmt.Errorf("file_system has no tool %q", tool)
	}
}

// resolve joins relative onto the root and rejects any path that escapes
// it.
func (f *FileSystem) resolve(relative string) (string, error) {
	resolved := filepath.Clean(filepath.Join(f.root, relative))

	rel, err := filepath.Rel(f.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace root", relative)
	}

	return resolved, nil
}
