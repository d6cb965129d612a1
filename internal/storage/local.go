package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local serves objects from a directory on disk. Used in development and in
// tests.
type Local struct {
	baseDir string
	baseURL string
}

func NewLocal(baseDir, baseURL string) *Local {
	return &Local{baseDir: baseDir, baseURL: baseURL}
}

func (l *Local) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	clean := filepath.Clean("/" + path)
	full := filepath.Join(l.baseDir, clean)
	if !strings.HasPrefix(full, filepath.Clean(l.baseDir)) {
		return nil, ErrNotFound
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (l *Local) URL(path string) string {
	return joinURL(l.baseURL, path)
}
