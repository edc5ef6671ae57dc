// Package storage provides object storage for model artifacts with a local
// filesystem provider and an Azure Blob Storage provider.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/soilguardian/pkg/lifecycle"
)

// System manages object storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that prepares the backing container or directory.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams data to an object at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the object at the given key. The caller must close the reader.
	// Returns ErrNotFound if the object does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object at the given key. Returns ErrNotFound if the object does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether an object exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns the keys that start with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// New creates the storage system selected by cfg.Provider. Clients are
// created eagerly; no I/O happens until Start or the first operation.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderFilesystem:
		return newFilesystem(cfg.Path, logger), nil
	case ProviderAzure:
		return newAzure(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

// validateKey rejects empty keys, absolute keys and keys with a ".."
// segment or backslash.
func validateKey(key string) error {
	if key == "" {
		return &KeyError{Key: key, Err: ErrEmptyKey}
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return &KeyError{Key: key, Err: ErrInvalidKey}
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." {
			return &KeyError{Key: key, Err: ErrInvalidKey}
		}
	}
	return nil
}
