// Package mirror writes file content to a secondary filesystem surface
// under <root>/<projectID>/<path>. The record store stays authoritative:
// mirror failures are reported to callers, who log them as warnings and
// decide per action variant whether they flip the outcome.
package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeforge/internal/logging"
)

// Mirror is the filesystem side channel rooted at a workspace directory.
type Mirror struct {
	root string
}

// New creates a mirror rooted at the given directory.
func New(root string) (*Mirror, error) {
	if root == "" {
		return nil, fmt.Errorf("mirror root required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mirror root: %w", err)
	}
	return &Mirror{root: root}, nil
}

// Root returns the mirror's root directory.
func (m *Mirror) Root() string {
	return m.root
}

// resolve maps (projectID, path) to an absolute path, rejecting anything
// that would escape the project directory.
func (m *Mirror) resolve(projectID, path string) (string, error) {
	if projectID == "" {
		return "", fmt.Errorf("project id required")
	}
	projectDir := filepath.Join(m.root, projectID)
	full := filepath.Join(projectDir, filepath.FromSlash(path))
	rel, err := filepath.Rel(projectDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes project directory", path)
	}
	return full, nil
}

// CreateFile writes content for a new file.
func (m *Mirror) CreateFile(projectID, path, content string) error {
	full, err := m.resolve(projectID, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logging.Mirror("Mirrored %s/%s (%d bytes)", projectID, path, len(content))
	return nil
}

// UpdateFile rewrites content for an existing file. Creating on update is
// deliberate: the record store may hold files the mirror never saw.
func (m *Mirror) UpdateFile(projectID, path, content string) error {
	return m.CreateFile(projectID, path, content)
}

// DeleteFile removes a mirrored file. Deleting a file the mirror never
// saw is not an error.
func (m *Mirror) DeleteFile(projectID, path string) error {
	full, err := m.resolve(projectID, path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// DeleteProject removes a project's entire mirrored tree.
func (m *Mirror) DeleteProject(projectID string) error {
	if projectID == "" {
		return fmt.Errorf("project id required")
	}
	return os.RemoveAll(filepath.Join(m.root, projectID))
}
