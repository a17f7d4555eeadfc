package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/joeyyy09/clinical-flow/internal/errors"
)

// Discovery walks local directory trees. Relative roots are resolved against basePath.
type Discovery struct {
	basePath string
	logger   *slog.Logger
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{basePath: basePath, logger: logger}
}

// List walks root recursively and returns every regular file.
// A root that is itself a file is returned as the only entry. Unreadable
// subdirectories are logged and skipped; an unreadable root is an error.
func (d *Discovery) List(ctx context.Context, root string) ([]FileInfo, error) {
	fullPath := d.resolve(root)

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", fullPath, ErrRootNotFound)
		}
		return nil, apperrors.NewSourceError("cannot access root", err).WithContext("root", fullPath)
	}

	if !info.IsDir() {
		return []FileInfo{toFileInfo(fullPath, info)}, nil
	}

	var files []FileInfo
	err = filepath.WalkDir(fullPath, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == fullPath {
				return apperrors.NewSourceError("cannot read root", walkErr).WithContext("root", fullPath)
			}
			d.logger.WarnContext(ctx, "Skipping unreadable path",
				slog.String("path", path),
				slog.String("error", walkErr.Error()))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		fi, err := entry.Info()
		if err != nil {
			d.logger.WarnContext(ctx, "Skipping file without stat info",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		files = append(files, toFileInfo(path, fi))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// ReadFile returns the content of a local file
func (d *Discovery) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(d.resolve(path))
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

func toFileInfo(path string, info fs.FileInfo) FileInfo {
	return FileInfo{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
