package tracking_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/soilguardian/internal/tracking"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enabledConfig(t *testing.T, uri string) *tracking.Config {
	t.Helper()
	enabled := true
	cfg := &tracking.Config{Enabled: &enabled, URI: uri, FailureThreshold: 2}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return cfg
}

type fakeMLflow struct {
	mu       sync.Mutex
	calls    []string
	logBatch map[string]any
	status   string
}

func (f *fakeMLflow) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.URL.Path)

	var body map[string]any
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	switch r.URL.Path {
	case "/api/2.0/mlflow/experiments/get-by-name":
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error_code":"RESOURCE_DOES_NOT_EXIST"}`))
	case "/api/2.0/mlflow/experiments/create":
		w.Write([]byte(`{"experiment_id":"7"}`))
	case "/api/2.0/mlflow/runs/create":
		w.Write([]byte(`{"run":{"info":{"run_id":"run-1"}}}`))
	case "/api/2.0/mlflow/runs/log-batch":
		f.logBatch = body
		w.Write([]byte(`{}`))
	case "/api/2.0/mlflow/runs/update":
		f.status, _ = body["status"].(string)
		w.Write([]byte(`{}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func TestLogRun(t *testing.T) {
	fake := &fakeMLflow{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	tr := tracking.New(enabledConfig(t, srv.URL), discardLogger())

	run := tracking.Run{
		Name:    "gaussian_nb-1.0.0",
		Params:  map[string]string{"n_samples": "1500", "algorithm": "gaussian_nb"},
		Metrics: map[string]float64{"accuracy": 0.9},
	}

	for range 2 {
		id, err := tr.LogRun(context.Background(), run)
		if err != nil {
			t.Fatalf("LogRun() error = %v", err)
		}
		if id != "run-1" {
			t.Errorf("run id = %q, want run-1", id)
		}
	}

	want := []string{
		"/api/2.0/mlflow/experiments/get-by-name",
		"/api/2.0/mlflow/experiments/create",
		"/api/2.0/mlflow/runs/create",
		"/api/2.0/mlflow/runs/log-batch",
		"/api/2.0/mlflow/runs/update",
		"/api/2.0/mlflow/runs/create",
		"/api/2.0/mlflow/runs/log-batch",
		"/api/2.0/mlflow/runs/update",
	}
	if diff := cmp.Diff(want, fake.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	params := fake.logBatch["params"].([]any)
	first := params[0].(map[string]any)
	if first["key"] != "algorithm" {
		t.Errorf("params not sorted by key: %v", params)
	}
	if fake.status != "FINISHED" {
		t.Errorf("status = %q, want FINISHED", fake.status)
	}
}

func TestLogRunOpensCircuit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := tracking.New(enabledConfig(t, srv.URL), discardLogger())

	for i := range 2 {
		if _, err := tr.LogRun(context.Background(), tracking.Run{}); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	_, err := tr.LogRun(context.Background(), tracking.Run{})
	if !errors.Is(err, tracking.ErrUnavailable) {
		t.Errorf("LogRun() error = %v, want ErrUnavailable", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestDisabledTrackerIsNoop(t *testing.T) {
	cfg := &tracking.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if cfg.IsEnabled() {
		t.Fatal("tracking should default to disabled")
	}

	id, err := tracking.New(cfg, discardLogger()).LogRun(context.Background(), tracking.Run{Name: "x"})
	if err != nil || id != "" {
		t.Errorf("LogRun() = %q, %v, want empty and nil", id, err)
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_TRACKING_ENABLED", "true")
	t.Setenv("TEST_TRACKING_URI", "http://mlflow:5000")

	cfg := &tracking.Config{}
	err := cfg.Finalize(&tracking.Env{Enabled: "TEST_TRACKING_ENABLED", URI: "TEST_TRACKING_URI"})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if !cfg.IsEnabled() || cfg.URI != "http://mlflow:5000" {
		t.Errorf("env overrides not applied: enabled=%v uri=%s", cfg.IsEnabled(), cfg.URI)
	}
	if cfg.Experiment != "crop_recommendation" {
		t.Errorf("Experiment = %q, want crop_recommendation", cfg.Experiment)
	}

	bad := &tracking.Config{URI: "::not a uri"}
	if err := bad.Finalize(nil); err == nil {
		t.Error("expected error for invalid uri")
	}
}
