package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/soilguardian/internal/api"
	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/config"
	"github.com/JaimeStill/soilguardian/internal/infrastructure"
	"github.com/JaimeStill/soilguardian/internal/soil"
	"github.com/JaimeStill/soilguardian/internal/store"
	"github.com/JaimeStill/soilguardian/pkg/module"
	"github.com/JaimeStill/soilguardian/pkg/storage"
)

const wheatJSON = `{"pH": 6.5, "nitrogen": 45, "phosphorus": 30, "potassium": 150, "moisture": 50, "temperature": 20}`

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Storage: storage.Config{
			Provider: storage.ProviderFilesystem,
			Path:     t.TempDir(),
		},
		Store: store.Config{Provider: store.ProviderMemory},
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return cfg
}

func setupInfra(t *testing.T, cfg *config.Config, withModel bool) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	if !withModel {
		return infra
	}

	samples, labels := classifier.Synthesize(infra.Tables, 450, 3)
	ds, err := classifier.NewDataset(samples, labels)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	opts := classifier.DefaultTrainOptions()
	opts.Version = cfg.Model.Version
	m, err := classifier.Train(ds, opts)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if err := infra.Registry.Save(context.Background(), m); err != nil {
		t.Fatalf("save model: %v", err)
	}
	return infra
}

func setupRouter(t *testing.T, cfg *config.Config, infra *infrastructure.Infrastructure) *module.Router {
	t.Helper()
	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if m.Prefix() != "/api" {
		t.Errorf("prefix = %s, want /api", m.Prefix())
	}

	router := module.NewRouter()
	router.Mount(m)
	return router
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestCrops(t *testing.T) {
	cfg := validConfig(t)
	router := setupRouter(t, cfg, setupInfra(t, cfg, false))

	rec := do(t, router, http.MethodGet, "/api/crops", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[struct {
		Crops []string `json:"crops"`
	}](t, rec)
	if !slices.Contains(body.Crops, "Wheat") || !slices.Contains(body.Crops, "Rice") {
		t.Errorf("crops = %v", body.Crops)
	}

	rec = do(t, router, http.MethodGet, "/api/crops/Wheat", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("crop status = %d", rec.Code)
	}
	crop := decode[struct {
		Name       string `json:"name"`
		Conditions []struct {
			Property string  `json:"property"`
			Min      float64 `json:"min"`
			Max      float64 `json:"max"`
		} `json:"conditions"`
	}](t, rec)
	if crop.Name != "Wheat" || len(crop.Conditions) != 3 {
		t.Fatalf("crop = %+v", crop)
	}
	if c := crop.Conditions[0]; c.Property != soil.PH || c.Min != 6.0 || c.Max != 7.0 {
		t.Errorf("first condition = %+v", c)
	}

	for _, name := range []string{"wheat", "WHEAT", "wHeAt"} {
		rec := do(t, router, http.MethodGet, "/api/crops/"+name, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", name, rec.Code)
			continue
		}
		if got := decode[struct {
			Name string `json:"name"`
		}](t, rec); got.Name != "Wheat" {
			t.Errorf("%s name = %q, want Wheat", name, got.Name)
		}
	}

	if rec := do(t, router, http.MethodGet, "/api/crops/Quinoa", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown crop status = %d, want 404", rec.Code)
	}
}

type modelInfo struct {
	ModelVersion     string   `json:"model_version"`
	ModelLoaded      bool     `json:"model_loaded"`
	RequiredFeatures []string `json:"required_features"`
	AllFeatures      []string `json:"all_features"`
	ModelType        string   `json:"model_type"`
	SupportedCrops   []string `json:"supported_crops"`
	Error            string   `json:"error"`
}

func TestModelInfo(t *testing.T) {
	t.Run("loaded", func(t *testing.T) {
		cfg := validConfig(t)
		router := setupRouter(t, cfg, setupInfra(t, cfg, true))

		rec := do(t, router, http.MethodGet, "/api/model", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		info := decode[modelInfo](t, rec)
		if !info.ModelLoaded || info.ModelType != string(classifier.GaussianNB) {
			t.Errorf("info = %+v", info)
		}
		if info.ModelVersion != "1.0.0" {
			t.Errorf("version = %s", info.ModelVersion)
		}
		if len(info.RequiredFeatures) != len(soil.Required) || len(info.AllFeatures) != len(soil.All) {
			t.Errorf("features = %v / %v", info.RequiredFeatures, info.AllFeatures)
		}
		if len(info.SupportedCrops) == 0 {
			t.Error("supported crops empty")
		}
	})

	t.Run("missing", func(t *testing.T) {
		cfg := validConfig(t)
		router := setupRouter(t, cfg, setupInfra(t, cfg, false))

		rec := do(t, router, http.MethodGet, "/api/model", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		info := decode[modelInfo](t, rec)
		if info.ModelLoaded {
			t.Error("model should not be loaded")
		}
		if info.Error == "" || len(info.SupportedCrops) == 0 {
			t.Errorf("info = %+v", info)
		}
	})
}

func TestModelVersions(t *testing.T) {
	cfg := validConfig(t)
	router := setupRouter(t, cfg, setupInfra(t, cfg, true))

	rec := do(t, router, http.MethodGet, "/api/model/versions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[struct {
		Current  string   `json:"current"`
		Versions []string `json:"versions"`
	}](t, rec)
	if body.Current != "1.0.0" || !slices.Equal(body.Versions, []string{"1.0.0"}) {
		t.Errorf("versions = %+v", body)
	}

	rec = do(t, router, http.MethodGet, "/api/model/versions/1.0.0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if _, err := classifier.Decode(rec.Body); err != nil {
		t.Errorf("downloaded artifact does not decode: %v", err)
	}

	if rec := do(t, router, http.MethodGet, "/api/model/versions/9.9.9", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing version status = %d, want 404", rec.Code)
	}
}

func TestRecommend(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg, true)
	router := setupRouter(t, cfg, infra)

	rec := do(t, router, http.MethodPost, "/api/recommend?top_n=2", wheatJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var recs []classifier.CropRecommendation
	if err := json.Unmarshal(body["recommendations"], &recs); err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("recommendations = %d, want 2", len(recs))
	}
	if string(body["comprehensive_recommendation"]) == "null" {
		t.Error("comprehensive recommendation should be included by default")
	}

	rec = do(t, router, http.MethodGet, "/api/recommendations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	page := decode[struct {
		Total int `json:"total"`
	}](t, rec)
	if page.Total != 1 {
		t.Errorf("stored recommendations = %d, want 1", page.Total)
	}
}

func TestRecommendModelUnavailable(t *testing.T) {
	cfg := validConfig(t)
	router := setupRouter(t, cfg, setupInfra(t, cfg, false))

	rec := do(t, router, http.MethodPost, "/api/recommend", wheatJSON)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	cfg := validConfig(t)
	cfg.API.MaxBodySize = "32B"
	router := setupRouter(t, cfg, setupInfra(t, cfg, true))

	rec := do(t, router, http.MethodPost, "/api/recommend", wheatJSON)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413 for oversized body", rec.Code)
	}
}

func TestFarmsAndReadings(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg, false)

	mem, ok := infra.Store.(*store.Memory)
	if !ok {
		t.Fatalf("store = %T, want *store.Memory", infra.Store)
	}
	north := mem.AddFarm(store.Farm{UserID: "u1", Name: "North"})
	mem.AddFarm(store.Farm{UserID: "u2", Name: "South"})
	mem.AddSoilReading(store.SoilReading{
		FarmID: north.ID,
		Sample: soil.Sample{PH: 6.5, Nitrogen: 45, Phosphorus: 30, Potassium: 150, Moisture: 50, Temperature: 20},
	})

	router := setupRouter(t, cfg, infra)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCount  int
		field      string
	}{
		{name: "all farms", target: "/api/farms", wantStatus: http.StatusOK, wantCount: 2, field: "farms"},
		{name: "user farms", target: "/api/farms?user_id=u1", wantStatus: http.StatusOK, wantCount: 1, field: "farms"},
		{name: "readings", target: "/api/soil-readings", wantStatus: http.StatusOK, wantCount: 1, field: "readings"},
		{name: "readings by farm", target: "/api/soil-readings?farm_id=" + north.ID.String(), wantStatus: http.StatusOK, wantCount: 1, field: "readings"},
		{name: "bad days", target: "/api/soil-readings?days=0", wantStatus: http.StatusBadRequest},
		{name: "bad farm id", target: "/api/soil-readings?farm_id=x", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.target, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			body := decode[map[string]json.RawMessage](t, rec)
			var items []json.RawMessage
			if err := json.Unmarshal(body[tt.field], &items); err != nil {
				t.Fatalf("%s: %v", tt.field, err)
			}
			if len(items) != tt.wantCount {
				t.Errorf("%s = %d, want %d", tt.field, len(items), tt.wantCount)
			}
		})
	}
}

func TestOpenAPISpec(t *testing.T) {
	cfg := validConfig(t)
	router := setupRouter(t, cfg, setupInfra(t, cfg, false))

	rec := do(t, router, http.MethodGet, "/api/openapi.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	spec := decode[struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Tags []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"tags"`
		Paths map[string]map[string]struct {
			OperationID string   `json:"operationId"`
			Tags        []string `json:"tags"`
		} `json:"paths"`
		Components struct {
			Schemas map[string]json.RawMessage `json:"schemas"`
		} `json:"components"`
	}](t, rec)

	if spec.OpenAPI != "3.1.0" || spec.Info.Title != "SoilGuardian API" {
		t.Errorf("header = %s %s", spec.OpenAPI, spec.Info.Title)
	}
	if len(spec.Servers) != 1 || spec.Servers[0].URL != "/api" {
		t.Errorf("servers = %+v", spec.Servers)
	}

	for path, method := range map[string]string{
		"/recommend":       "post",
		"/recommend/batch": "post",
		"/recommendations": "get",
		"/crops":           "get",
		"/crops/{name}":    "get",
		"/model":           "get",
		"/model/versions":  "get",
		"/farms":           "get",
		"/soil-readings":   "get",
	} {
		op, ok := spec.Paths[path][method]
		if !ok {
			t.Errorf("missing %s %s", method, path)
			continue
		}
		if len(op.Tags) == 0 {
			t.Errorf("%s %s has no tags", method, path)
		}
	}

	ids := map[string]string{}
	for path, item := range spec.Paths {
		for method, op := range item {
			if op.OperationID == "" {
				t.Errorf("%s %s has no operationId", method, path)
				continue
			}
			if prev, dup := ids[op.OperationID]; dup {
				t.Errorf("operationId %s used by %s and %s %s", op.OperationID, prev, method, path)
			}
			ids[op.OperationID] = method + " " + path
		}
	}
	if got := ids["postRecommend"]; got != "post /recommend" {
		t.Errorf("postRecommend = %q, want post /recommend", got)
	}

	described := map[string]bool{}
	for _, tag := range spec.Tags {
		described[tag.Name] = tag.Description != ""
	}
	for _, name := range []string{"Recommendations", "Catalog", "Model", "Farms"} {
		if !described[name] {
			t.Errorf("tag %s missing or undescribed", name)
		}
	}

	if _, ok := spec.Components.Schemas["SoilReading"]; !ok {
		t.Error("SoilReading schema missing")
	}
}
