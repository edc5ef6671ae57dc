package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/soilguardian/internal/store"
	"github.com/JaimeStill/soilguardian/pkg/handlers"
	"github.com/JaimeStill/soilguardian/pkg/openapi"
	"github.com/JaimeStill/soilguardian/pkg/routes"
)

type storeHandler struct {
	store  store.Store
	logger *slog.Logger
}

func newStoreHandler(st store.Store, logger *slog.Logger) *storeHandler {
	return &storeHandler{
		store:  st,
		logger: logger.With("handler", "store"),
	}
}

type farmsResponse struct {
	Farms []store.Farm `json:"farms"`
}

type readingsResponse struct {
	Days     int                 `json:"days"`
	Readings []store.SoilReading `json:"readings"`
}

func (h *storeHandler) routes() routes.Group {
	return routes.Group{
		Prefix:      "",
		Tags:        []string{"Farms"},
		Description: "Farm registry and soil reading history",
		Routes: []routes.Route{
			{
				Method: "GET", Pattern: "/farms", Handler: h.farms,
				OpenAPI: &openapi.Operation{
					Summary: "List farms",
					Parameters: []*openapi.Parameter{
						openapi.QueryParam("user_id", nil, "Restrict to one user's farms"),
					},
					Responses: map[int]*openapi.Response{
						200: {Description: "Farms sorted by name"},
					},
				},
			},
			{
				Method: "GET", Pattern: "/soil-readings", Handler: h.readings,
				OpenAPI: &openapi.Operation{
					Summary: "List recent soil readings",
					Parameters: []*openapi.Parameter{
						openapi.QueryParam("days", &openapi.Schema{Type: "integer", Minimum: openapi.Bound(1), Default: 30}, "Look-back window in days"),
						openapi.QueryParam("farm_id", nil, "Restrict to one farm"),
					},
					Responses: map[int]*openapi.Response{
						200: {Description: "Readings, newest first"},
						400: openapi.ResponseRef("BadRequest"),
					},
				},
			},
		},
	}
}

func (h *storeHandler) farms(w http.ResponseWriter, r *http.Request) {
	var userID *string
	if v := r.URL.Query().Get("user_id"); v != "" {
		userID = &v
	}

	farms, err := h.store.Farms(r.Context(), userID)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, farmsResponse{Farms: farms})
}

func (h *storeHandler) readings(w http.ResponseWriter, r *http.Request) {
	days, err := store.DaysFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, store.MapHTTPStatus(err), err)
		return
	}

	farmID, err := store.FarmIDFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, store.MapHTTPStatus(err), err)
		return
	}

	readings, err := h.store.RecentSoilReadings(r.Context(), days, farmID)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, readingsResponse{Days: days, Readings: readings})
}
