// Package module mounts self-contained HTTP handlers under single-segment
// path prefixes. Each module owns its middleware; the Router dispatches on
// the first path segment and falls back to a native mux.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/soilguardian/pkg/middleware"
)

// Module serves an inner handler beneath prefix. The inner handler sees
// paths with the prefix removed.
type Module struct {
	prefix string
	inner  http.Handler
	stack  *middleware.Stack

	once    sync.Once
	handler http.Handler
}

// New creates a Module for a single-segment prefix such as "/api". It
// panics on an invalid prefix since that is a wiring error.
func New(prefix string, inner http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		inner:  inner,
		stack:  middleware.New(),
	}
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use adds middleware. Middleware must be added before the first request.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.stack.Use(mw)
}

// ServeHTTP strips the prefix and dispatches through the middleware stack.
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.once.Do(func() {
		m.handler = m.stack.Apply(m.inner)
	})
	m.handler.ServeHTTP(w, withPath(r, strings.TrimPrefix(r.URL.Path, m.prefix)))
}

func withPath(r *http.Request, path string) *http.Request {
	if path == "" {
		path = "/"
	}
	r2 := r.Clone(r.Context())
	r2.URL.Path = path
	r2.URL.RawPath = ""
	return r2
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case prefix[0] != '/':
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Contains(prefix[1:], "/"):
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}
