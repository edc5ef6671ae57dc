package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/soilguardian/pkg/formatting"
	"github.com/JaimeStill/soilguardian/pkg/storage"
)

// Registry lazily loads the configured model version from storage and
// caches it for the life of the process. Concurrent first requests share a
// single load.
type Registry struct {
	store   storage.System
	version string
	logger  *slog.Logger
	group   singleflight.Group
	model   atomic.Pointer[Model]
}

// NewRegistry creates a registry that serves the given model version.
func NewRegistry(store storage.System, version string, logger *slog.Logger) *Registry {
	return &Registry{
		store:   store,
		version: version,
		logger:  logger.With("system", "model-registry", "version", version),
	}
}

// Version returns the configured model version.
func (r *Registry) Version() string {
	return r.version
}

// Loaded reports whether a model is cached.
func (r *Registry) Loaded() bool {
	return r.model.Load() != nil
}

// Ready implements lifecycle.ReadinessChecker.
func (r *Registry) Ready() bool {
	return r.Loaded()
}

// Model returns the cached model, loading it on first use. A failed load is
// not cached; the next call retries. Loads are detached from the caller's
// cancellation so one abandoned request cannot fail the others waiting on it.
func (r *Registry) Model(ctx context.Context) (*Model, error) {
	if m := r.model.Load(); m != nil {
		return m, nil
	}

	ch := r.group.DoChan(r.version, func() (any, error) {
		if m := r.model.Load(); m != nil {
			return m, nil
		}
		m, err := r.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		r.model.Store(m)
		return m, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Model), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Install caches m as the served model without touching storage.
func (r *Registry) Install(m *Model) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.model.Store(m)
	return nil
}

// Save writes m to storage under its own version key. If m carries the
// served version it also replaces the cached model.
func (r *Registry) Save(ctx context.Context, m *Model) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return err
	}

	key := Key(m.Version)
	size := formatting.FormatBytes(int64(buf.Len()), 1)
	if err := r.store.Upload(ctx, key, &buf, "application/json"); err != nil {
		return fmt.Errorf("save model %s: %w", m.Version, err)
	}

	if m.Version == r.version {
		r.model.Store(m)
	}

	r.logger.Info("model saved", "key", key, "algorithm", m.Algorithm, "size", size)
	return nil
}

// Versions lists the model versions present in storage.
func (r *Registry) Versions(ctx context.Context) ([]string, error) {
	keys, err := r.store.List(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list model versions: %w", err)
	}

	versions := make([]string, 0, len(keys))
	for _, key := range keys {
		v, ok := strings.CutPrefix(key, KeyPrefix)
		if !ok {
			continue
		}
		v, ok = strings.CutSuffix(v, ".json")
		if !ok || v == "" {
			continue
		}
		versions = append(versions, v)
	}

	slices.Sort(versions)
	return versions, nil
}

// Open returns the stored artifact for version. A missing artifact is a
// storage.ErrNotFound.
func (r *Registry) Open(ctx context.Context, version string) (io.ReadCloser, error) {
	rc, err := r.store.Download(ctx, Key(version))
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", version, err)
	}
	return rc, nil
}

func (r *Registry) load(ctx context.Context) (*Model, error) {
	key := Key(r.version)
	r.logger.Info("loading model", "key", key)

	rc, err := r.store.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.Error("model artifact not found", "key", key)
			return nil, fmt.Errorf("%w: %s not found", ErrModelUnavailable, key)
		}
		r.logger.Error("model download failed", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	defer rc.Close()

	m, err := Decode(rc)
	if err != nil {
		r.logger.Error("model artifact rejected", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	r.logger.Info("model loaded",
		"algorithm", m.Algorithm,
		"classes", len(m.Classes),
		"features", len(m.Features),
	)
	return m, nil
}
