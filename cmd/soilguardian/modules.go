package main

import (
	"net/http"

	"github.com/JaimeStill/soilguardian/internal/api"
	"github.com/JaimeStill/soilguardian/internal/config"
	"github.com/JaimeStill/soilguardian/internal/infrastructure"
	"github.com/JaimeStill/soilguardian/internal/metrics"
	"github.com/JaimeStill/soilguardian/pkg/handlers"
	"github.com/JaimeStill/soilguardian/pkg/lifecycle"
	"github.com/JaimeStill/soilguardian/pkg/middleware"
	"github.com/JaimeStill/soilguardian/pkg/module"
	"github.com/JaimeStill/soilguardian/web/scalar"
)

const scalarPrefix = "/scalar"

type statusResponse struct {
	Status       string `json:"status"`
	APIVersion   string `json:"api_version"`
	ModelVersion string `json:"model_version"`
	Description  string `json:"description"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// buildRouter mounts the API and reference modules and registers the
// process-level endpoints (status, health, readiness, metrics) at the root.
func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) (*module.Router, error) {
	router := module.NewRouter()

	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}
	router.Mount(apiModule)

	reference, err := scalar.NewModule(scalarPrefix, cfg.API.BasePath+"/openapi.json", cfg.OpenAPI.Title)
	if err != nil {
		return nil, err
	}
	reference.Use(middleware.Logger(infra.Logger))
	router.Mount(reference)

	router.HandleNative("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, statusResponse{
			Status:       "online",
			APIVersion:   cfg.Version,
			ModelVersion: cfg.Model.Version,
			Description:  "SoilGuardian Crop Recommendation API",
		})
	})

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, healthResponse{
			Status:      "healthy",
			ModelLoaded: infra.Registry.Loaded(),
		})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !lifecycle.AllReady(infra.Checkers()...) {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	router.HandleNative("GET /metrics", metrics.Handler().ServeHTTP)

	return router, nil
}
