package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joeyyy09/clinical-flow/internal/config"
)

// Manager creates output files relative to the configured paths
type Manager struct {
	paths *config.Paths
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// EnsureDirectory creates a directory if it doesn't exist
func (m *Manager) EnsureDirectory(path string) error {
	fullPath := m.resolvePath(path)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fullPath, err)
	}
	return nil
}

// Create opens a fresh file for writing, creating parent directories.
// Bare file names land in the reports directory.
func (m *Manager) Create(path string) (*os.File, error) {
	fullPath := m.ReportPath(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", fullPath, err)
	}

	slog.Debug("Creating output file",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", fullPath, err)
	}
	return f, nil
}

// ReportPath resolves an output path: absolute paths and paths with a
// directory component are kept relative to the base directory, bare names
// go to the reports directory.
func (m *Manager) ReportPath(path string) string {
	if m.paths == nil || filepath.IsAbs(path) {
		return path
	}
	if filepath.Dir(path) == "." {
		return m.paths.GetReportPath(path)
	}
	return m.paths.Resolve(path)
}

func (m *Manager) resolvePath(path string) string {
	if m.paths == nil {
		return path
	}
	return m.paths.Resolve(path)
}
