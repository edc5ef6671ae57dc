package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/soilguardian/pkg/module"
)

func TestNewPrefixValidation(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		wantPanic bool
	}{
		{"api", "/api", false},
		{"scalar", "/scalar", false},
		{"empty", "", true},
		{"no leading slash", "api", true},
		{"nested path", "/api/v1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); (r != nil) != tt.wantPanic {
					t.Errorf("panic = %v, want panic %v", r, tt.wantPanic)
				}
			}()
			m := module.New(tt.prefix, http.NewServeMux())
			if m.Prefix() != tt.prefix {
				t.Errorf("prefix: got %s, want %s", m.Prefix(), tt.prefix)
			}
		})
	}
}

func TestServeStripsPrefix(t *testing.T) {
	var received []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		received = append(received, r.URL.Path)
	})

	m := module.New("/api", mux)
	var middlewareCalls int
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			middlewareCalls++
			next.ServeHTTP(w, r)
		})
	})

	for _, target := range []string{"/api/crops/Wheat", "/api"} {
		m.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", target, nil))
	}

	if len(received) != 2 || received[0] != "/crops/Wheat" || received[1] != "/" {
		t.Errorf("inner paths: got %v, want [/crops/Wheat /]", received)
	}
	if middlewareCalls != 2 {
		t.Errorf("middleware calls: got %d, want 2", middlewareCalls)
	}
}

func TestRouter(t *testing.T) {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /crops", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("api"))
	})

	scalarMux := http.NewServeMux()
	scalarMux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("scalar"))
	})

	router := module.NewRouter()
	router.Mount(module.New("/api", apiMux))
	router.Mount(module.New("/scalar", scalarMux))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"api module", "/api/crops", http.StatusOK, "api"},
		{"trailing slash", "/api/crops/", http.StatusOK, "api"},
		{"scalar module", "/scalar", http.StatusOK, "scalar"},
		{"native fallback", "/healthz", http.StatusOK, "ok"},
		{"unknown", "/nowhere", http.StatusNotFound, ""},
		{"segment boundary", "/apiary", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body: got %s, want %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
