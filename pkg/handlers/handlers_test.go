package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/soilguardian/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	type crop struct {
		Crop string  `json:"crop"`
		Rank int     `json:"rank"`
		Conf float64 `json:"confidence"`
	}

	rec := httptest.NewRecorder()
	handlers.RespondJSON(rec, http.StatusCreated, crop{Crop: "Wheat", Rank: 1, Conf: 87.5})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}

	var got map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{"crop": "Wheat", "rank": float64(1), "confidence": 87.5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
		wantMsg   string
	}{
		{http.StatusBadRequest, "level=WARN", "request rejected"},
		{http.StatusNotFound, "level=WARN", "request rejected"},
		{http.StatusServiceUnavailable, "level=ERROR", "handler error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))

			rec := httptest.NewRecorder()
			handlers.RespondError(rec, logger, tt.status, errors.New("model unavailable"))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(map[string]string{"error": "model unavailable"}, body); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}

			line := logs.String()
			if !strings.Contains(line, tt.wantLevel) || !strings.Contains(line, tt.wantMsg) {
				t.Errorf("log = %q, want %s %q", line, tt.wantLevel, tt.wantMsg)
			}
		})
	}
}
