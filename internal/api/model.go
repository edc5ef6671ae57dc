package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/soilguardian/internal/agronomy"
	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/soil"
	"github.com/JaimeStill/soilguardian/pkg/handlers"
	"github.com/JaimeStill/soilguardian/pkg/openapi"
	"github.com/JaimeStill/soilguardian/pkg/routes"
	"github.com/JaimeStill/soilguardian/pkg/storage"
)

type modelHandler struct {
	registry *classifier.Registry
	tables   *agronomy.Tables
	logger   *slog.Logger
}

func newModelHandler(
	registry *classifier.Registry,
	tables *agronomy.Tables,
	logger *slog.Logger,
) *modelHandler {
	return &modelHandler{
		registry: registry,
		tables:   tables,
		logger:   logger.With("handler", "model"),
	}
}

type modelInfo struct {
	ModelVersion     string               `json:"model_version"`
	ModelLoaded      bool                 `json:"model_loaded"`
	RequiredFeatures []string             `json:"required_features"`
	AllFeatures      []string             `json:"all_features"`
	ModelType        classifier.Algorithm `json:"model_type,omitempty"`
	SupportedCrops   []string             `json:"supported_crops"`
	Metrics          *classifier.Metrics  `json:"metrics,omitempty"`
	Samples          int                  `json:"samples,omitempty"`
	TrainedAt        *time.Time           `json:"trained_at,omitempty"`
	Error            string               `json:"error,omitempty"`
}

type versionsResponse struct {
	Current  string   `json:"current"`
	Versions []string `json:"versions"`
}

func (h *modelHandler) routes() routes.Group {
	return routes.Group{
		Prefix:      "/model",
		Tags:        []string{"Model"},
		Description: "Served classifier model and stored artifacts",
		Routes: []routes.Route{
			{
				Method: "GET", Pattern: "", Handler: h.info,
				OpenAPI: &openapi.Operation{
					Summary:     "Describe the served model",
					Description: "Attempts to load the model when it is not yet loaded. Reports model_loaded=false instead of failing.",
					Responses: map[int]*openapi.Response{
						200: {Description: "Model information"},
					},
				},
			},
			{
				Method: "GET", Pattern: "/versions", Handler: h.versions,
				OpenAPI: &openapi.Operation{
					Summary: "List model versions in artifact storage",
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseSchema("Stored versions, sorted", &openapi.Schema{
							Type: "object",
							Properties: map[string]*openapi.Schema{
								"current":  {Type: "string", Description: "Version the service is configured to serve"},
								"versions": openapi.ArrayOf(&openapi.Schema{Type: "string"}),
							},
						}),
					},
				},
			},
			{
				Method: "GET", Pattern: "/versions/{version}", Handler: h.download,
				OpenAPI: &openapi.Operation{
					Summary: "Download a model artifact",
					Parameters: []*openapi.Parameter{
						openapi.PathParam("version", "Model version"),
					},
					Responses: map[int]*openapi.Response{
						200: {Description: "Model artifact JSON"},
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}

func (h *modelHandler) info(w http.ResponseWriter, r *http.Request) {
	resp := modelInfo{
		ModelVersion:     h.registry.Version(),
		RequiredFeatures: soil.Required,
		AllFeatures:      soil.All,
		SupportedCrops:   h.tables.CropNames(),
	}

	m, err := h.registry.Model(r.Context())
	if err != nil {
		h.logger.Warn("model info without model", "error", err)
		resp.Error = err.Error()
		handlers.RespondJSON(w, http.StatusOK, resp)
		return
	}

	resp.ModelLoaded = true
	resp.ModelType = m.Algorithm
	resp.SupportedCrops = m.Classes
	resp.Metrics = &m.Metrics
	resp.Samples = m.Samples
	if !m.TrainedAt.IsZero() {
		resp.TrainedAt = &m.TrainedAt
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

func (h *modelHandler) versions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.registry.Versions(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, versionsResponse{
		Current:  h.registry.Version(),
		Versions: versions,
	})
}

func (h *modelHandler) download(w http.ResponseWriter, r *http.Request) {
	version := r.PathValue("version")

	rc, err := h.registry.Open(r.Context(), version)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+classifier.Key(version)+`"`)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, rc)
}
