package files

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRootNotFound is returned by List when the root location does not exist
var ErrRootNotFound = errors.New("root does not exist")

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Source enumerates and reads candidate workbooks beneath a root location
type Source interface {
	// List returns every regular file beneath root, recursively, in lexical path order.
	// A root that does not exist yields an error wrapping ErrRootNotFound.
	List(ctx context.Context, root string) ([]FileInfo, error)
	// ReadFile returns the full content of one listed file
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// Router dispatches s3:// locations to the object-store source and
// everything else to the local file system.
type Router struct {
	Local Source
	S3    Source
}

// List implements Source
func (r *Router) List(ctx context.Context, root string) ([]FileInfo, error) {
	src, err := r.sourceFor(root)
	if err != nil {
		return nil, err
	}
	return src.List(ctx, root)
}

// ReadFile implements Source
func (r *Router) ReadFile(ctx context.Context, path string) ([]byte, error) {
	src, err := r.sourceFor(path)
	if err != nil {
		return nil, err
	}
	return src.ReadFile(ctx, path)
}

func (r *Router) sourceFor(location string) (Source, error) {
	if IsS3URI(location) {
		if r.S3 == nil {
			return nil, fmt.Errorf("no object-store source configured for %s", location)
		}
		return r.S3, nil
	}
	if r.Local == nil {
		return nil, fmt.Errorf("no local source configured for %s", location)
	}
	return r.Local, nil
}

// IsS3URI reports whether location uses the s3:// scheme
func IsS3URI(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}
