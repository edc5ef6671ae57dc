// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/JaimeStill/soilguardian/internal/config"
	"github.com/JaimeStill/soilguardian/internal/infrastructure"
	"github.com/JaimeStill/soilguardian/internal/metrics"
	"github.com/JaimeStill/soilguardian/pkg/middleware"
	"github.com/JaimeStill/soilguardian/pkg/module"
	"github.com/JaimeStill/soilguardian/pkg/openapi"
	"github.com/JaimeStill/soilguardian/pkg/routes"
)

// NewModule creates the API module with all domain handlers and middleware.
// The module also serves its own OpenAPI document at /openapi.json.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	groups := registerRoutes(mux, domain, cfg, runtime)

	spec, err := BuildSpec(cfg, groups...)
	if err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.MaxBytes(cfg.API.MaxBodySizeBytes()))
	m.Use(middleware.Observe(func(method, route string, status int, d time.Duration) {
		metrics.RecordHTTPRequest(method, cfg.API.BasePath+route, status, d)
	}))

	return m, nil
}

// BuildSpec serializes the OpenAPI document describing groups, served under
// the API base path.
func BuildSpec(cfg *config.Config, groups ...routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	for _, url := range cfg.OpenAPI.Servers {
		spec.AddServer(url)
	}

	routes.Describe(spec, "", groups...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}
	return data, nil
}
