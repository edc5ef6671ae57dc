package recommendations

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/soil"
	"github.com/JaimeStill/soilguardian/internal/store"
	"github.com/JaimeStill/soilguardian/pkg/handlers"
	"github.com/JaimeStill/soilguardian/pkg/pagination"
	"github.com/JaimeStill/soilguardian/pkg/routes"
	"github.com/JaimeStill/soilguardian/pkg/validation"
)

// Handler provides HTTP endpoints for recommendation operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
	cfg        Config
}

// BatchRequest is the body of a batch recommendation.
type BatchRequest struct {
	Readings []soil.Reading `json:"readings" validate:"required,min=1,max=500,dive"`
	TopN     int            `json:"top_n,omitempty"`
}

// BatchResponse pairs each submitted reading with its ranked crops, in
// request order.
type BatchResponse struct {
	Results [][]classifier.CropRecommendation `json:"results"`
}

// NewHandler creates a Handler with the given system, logger, pagination config and limits.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	cfg Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "recommendations"),
		pagination: pagination,
		cfg:        cfg,
	}
}

// Routes returns the route group definition for recommendation endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "",
		Tags:        []string{"Recommendations"},
		Description: "Crop ranking for soil readings",
		Schemas:     Spec.Schemas,
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/recommend", Handler: h.Recommend, OpenAPI: Spec.Recommend},
			{Method: "POST", Pattern: "/recommend/batch", Handler: h.RecommendBatch, OpenAPI: Spec.Batch},
			{Method: "GET", Pattern: "/recommendations", Handler: h.List, OpenAPI: Spec.List},
		},
	}
}

// Recommend ranks crops for a soil reading. Query parameters top_n,
// include_comprehensive and farm_id are optional.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	opts, err := h.optionsFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	var reading soil.Reading
	if err := handlers.DecodeJSON(r, &reading); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	if err := validation.Struct(reading); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Recommend(r.Context(), reading.Sample(), opts)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// RecommendBatch ranks crops for many readings at once.
func (h *Handler) RecommendBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	if err := validation.Struct(req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if req.TopN == 0 {
		req.TopN = h.cfg.DefaultTopN
	}

	samples := make([]soil.Sample, len(req.Readings))
	for i, reading := range req.Readings {
		samples[i] = reading.Sample()
	}

	results, err := h.sys.RecommendBatch(r.Context(), samples, req.TopN)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, BatchResponse{Results: results})
}

// List returns a paginated list of stored recommendations filtered by
// farm_id and crop.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	filters, err := store.FiltersFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) optionsFromQuery(values url.Values) (Options, error) {
	opts := Options{
		TopN:                 h.cfg.DefaultTopN,
		IncludeComprehensive: true,
	}

	if s := values.Get("top_n"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return opts, fmt.Errorf("%w: top_n must be an integer", ErrInvalidRequest)
		}
		opts.TopN = n
	}

	if s := values.Get("include_comprehensive"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return opts, fmt.Errorf("%w: include_comprehensive must be a boolean", ErrInvalidRequest)
		}
		opts.IncludeComprehensive = b
	}

	id, err := store.FarmIDFromQuery(values)
	if err != nil {
		return opts, err
	}
	opts.FarmID = id

	return opts, nil
}
