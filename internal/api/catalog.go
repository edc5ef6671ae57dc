package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/soilguardian/internal/agronomy"
	"github.com/JaimeStill/soilguardian/pkg/handlers"
	"github.com/JaimeStill/soilguardian/pkg/openapi"
	"github.com/JaimeStill/soilguardian/pkg/routes"
)

// errUnknownCrop is returned for crops outside the catalog.
var errUnknownCrop = errors.New("crop not found")

type catalogHandler struct {
	tables *agronomy.Tables
	logger *slog.Logger
}

func newCatalogHandler(tables *agronomy.Tables, logger *slog.Logger) *catalogHandler {
	return &catalogHandler{
		tables: tables,
		logger: logger.With("handler", "catalog"),
	}
}

type cropsResponse struct {
	Crops []string `json:"crops"`
}

type conditionResponse struct {
	Property string  `json:"property"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

type cropResponse struct {
	Name       string              `json:"name"`
	Conditions []conditionResponse `json:"conditions"`
	Irrigation agronomy.Stages     `json:"irrigation_stages"`
}

func (h *catalogHandler) routes() routes.Group {
	return routes.Group{
		Prefix:      "/crops",
		Tags:        []string{"Catalog"},
		Description: "Crop agronomy reference data",
		Routes: []routes.Route{
			{
				Method: "GET", Pattern: "", Handler: h.list,
				OpenAPI: &openapi.Operation{
					Summary: "List supported crops",
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseSchema("Crop names in catalog order", &openapi.Schema{
							Type: "object",
							Properties: map[string]*openapi.Schema{
								"crops": openapi.ArrayOf(&openapi.Schema{Type: "string"}),
							},
						}),
					},
				},
			},
			{
				Method: "GET", Pattern: "/{name}", Handler: h.find,
				OpenAPI: &openapi.Operation{
					Summary: "Optimal soil conditions and irrigation stages for a crop",
					Parameters: []*openapi.Parameter{
						openapi.PathParam("name", "Crop name, case-insensitive"),
					},
					Responses: map[int]*openapi.Response{
						200: {Description: "Catalog entry"},
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}

func (h *catalogHandler) list(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, cropsResponse{Crops: h.tables.CropNames()})
}

func (h *catalogHandler) find(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	crop, ok := h.tables.Crop(name)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, fmt.Errorf("%w: %s", errUnknownCrop, name))
		return
	}

	resp := cropResponse{
		Name:       crop.Name,
		Conditions: make([]conditionResponse, len(crop.Conditions)),
		Irrigation: h.tables.IrrigationStages(crop.Name),
	}
	for i, c := range crop.Conditions {
		resp.Conditions[i] = conditionResponse{
			Property: c.Property,
			Min:      c.Range.Min.Value,
			Max:      c.Range.Max.Value,
		}
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
