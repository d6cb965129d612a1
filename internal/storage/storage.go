package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sajal/assesshub/pkg/config"
)

var ErrNotFound = errors.New("object not found")

// Store is a path-addressed blob store. Paths are storage-relative, the way
// they are persisted on answer and logo records.
type Store interface {
	// Open returns a reader for the object at path, or ErrNotFound.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// URL resolves a storage-relative path to an absolute URL.
	URL(path string) string
}

// New builds the configured backend.
func New(ctx context.Context, cfg *config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "local", "":
		return NewLocal(cfg.BaseDir, cfg.BaseURL), nil
	case "s3":
		var opts []Option
		if cfg.AccessKey != "" {
			opts = append(opts, WithStaticCredentials(cfg.AccessKey, cfg.SecretKey))
		}
		return NewS3(ctx, cfg.Bucket, cfg.Region, cfg.BaseURL, opts...)
	case "gcs":
		return NewGCS(ctx, cfg.Bucket, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
