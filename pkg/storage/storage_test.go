package storage_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/soilguardian/pkg/lifecycle"
	"github.com/JaimeStill/soilguardian/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func newFilesystem(t *testing.T) (storage.System, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "models")
	sys, err := storage.New(&storage.Config{
		Provider: storage.ProviderFilesystem,
		Path:     root,
	}, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return sys, root
}

func TestNewProviders(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr error
		anyErr  bool
	}{
		{
			name: "filesystem",
			cfg:  storage.Config{Provider: storage.ProviderFilesystem, Path: "models"},
		},
		{
			name: "azure connection string",
			cfg:  storage.Config{Provider: storage.ProviderAzure, ContainerName: "models", ConnectionString: azuriteConnString},
		},
		{
			name:   "azure bad connection string",
			cfg:    storage.Config{Provider: storage.ProviderAzure, ContainerName: "models", ConnectionString: "not-a-connection-string"},
			anyErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     storage.Config{Provider: "s3"},
			wantErr: storage.ErrUnsupportedProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, err := storage.New(&tt.cfg, slog.Default())
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Error("expected error, got nil")
				}
			default:
				if err != nil || sys == nil {
					t.Errorf("New() = %v, %v; want system", sys, err)
				}
			}
		})
	}
}

func TestFilesystemRoundTrip(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	payload := []byte(`{"version":"1.0.0"}`)
	if err := sys.Upload(ctx, "models/1.0.0.json", bytes.NewReader(payload), "application/json"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	ok, err := sys.Exists(ctx, "models/1.0.0.json")
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v; want true", ok, err)
	}

	rc, err := sys.Download(ctx, "models/1.0.0.json")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Download() = %s, want %s", got, payload)
	}

	if err := sys.Delete(ctx, "models/1.0.0.json"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := sys.Exists(ctx, "models/1.0.0.json"); ok {
		t.Error("object still exists after Delete")
	}
}

func TestFilesystemNotFound(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	if _, err := sys.Download(ctx, "models/9.9.9.json"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() err = %v, want ErrNotFound", err)
	}
	if err := sys.Delete(ctx, "models/9.9.9.json"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() err = %v, want ErrNotFound", err)
	}
}

func TestFilesystemList(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	keys, err := sys.List(ctx, "models/")
	if err != nil {
		t.Fatalf("List() before any upload error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("List() = %v, want empty", keys)
	}

	for _, key := range []string{"models/2.0.0.json", "models/1.0.0.json", "other/notes.txt"} {
		if err := sys.Upload(ctx, key, bytes.NewReader([]byte("x")), "text/plain"); err != nil {
			t.Fatal(err)
		}
	}

	keys, err = sys.List(ctx, "models/")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"models/1.0.0.json", "models/2.0.0.json"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilesystemStartCreatesRoot(t *testing.T) {
	sys, root := newFilesystem(t)

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatal(err)
	}
	lc.WaitForStartup()

	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("root not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("root is not a directory")
	}
}

func TestKeyValidation(t *testing.T) {
	sys, _ := newFilesystem(t)
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"empty", "", storage.ErrEmptyKey},
		{"traversal", "../escape.json", storage.ErrInvalidKey},
		{"nested traversal", "models/../../escape.json", storage.ErrInvalidKey},
		{"absolute", "/etc/passwd", storage.ErrInvalidKey},
		{"backslash", "models\\..\\x.json", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sys.Upload(ctx, tt.key, bytes.NewReader(nil), "text/plain")
			if !errors.Is(err, tt.want) {
				t.Errorf("Upload(%q) err = %v, want %v", tt.key, err, tt.want)
			}
			if _, err := sys.Download(ctx, tt.key); !errors.Is(err, tt.want) {
				t.Errorf("Download(%q) err = %v, want %v", tt.key, err, tt.want)
			}
			var keyErr *storage.KeyError
			if !errors.As(err, &keyErr) || keyErr.Key != tt.key {
				t.Errorf("Upload(%q) err = %v, want *KeyError for the key", tt.key, err)
			}
		})
	}

	t.Run("dots inside a segment", func(t *testing.T) {
		if err := sys.Upload(ctx, "models/1..2.json", bytes.NewReader(nil), "application/json"); err != nil {
			t.Errorf("Upload() err = %v, want nil", err)
		}
	})
}

func TestUploadHonorsCancellation(t *testing.T) {
	sys, _ := newFilesystem(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sys.Upload(ctx, "models/x.json", bytes.NewReader([]byte("data")), "application/json")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Upload() err = %v, want context.Canceled", err)
	}
	if ok, _ := sys.Exists(context.Background(), "models/x.json"); ok {
		t.Error("cancelled upload left an object behind")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{fmt.Errorf("open model 1.0.0: %w", storage.ErrNotFound), http.StatusNotFound},
		{&storage.KeyError{Key: "", Err: storage.ErrEmptyKey}, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		env     map[string]string
		want    storage.Config
		wantErr bool
	}{
		{
			name: "defaults",
			want: storage.Config{
				Provider:      storage.ProviderFilesystem,
				Path:          "models",
				ContainerName: "models",
				MaxListSize:   50,
			},
		},
		{
			name: "env overrides",
			env: map[string]string{
				"TEST_STORAGE_PROVIDER":  "azure",
				"TEST_STORAGE_CONN":      azuriteConnString,
				"TEST_STORAGE_MAX_LIST":  "99999",
				"TEST_STORAGE_CONTAINER": "artifacts",
			},
			want: storage.Config{
				Provider:         storage.ProviderAzure,
				Path:             "models",
				ContainerName:    "artifacts",
				ConnectionString: azuriteConnString,
				MaxListSize:      storage.MaxListCap,
			},
		},
		{
			name:    "azure without credentials",
			cfg:     storage.Config{Provider: storage.ProviderAzure},
			wantErr: true,
		},
		{
			name: "azure negative page size",
			cfg: storage.Config{
				Provider:         storage.ProviderAzure,
				ConnectionString: azuriteConnString,
				MaxListSize:      -5,
			},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     storage.Config{Provider: "s3"},
			wantErr: true,
		},
	}

	env := &storage.Env{
		Provider:         "TEST_STORAGE_PROVIDER",
		ContainerName:    "TEST_STORAGE_CONTAINER",
		ConnectionString: "TEST_STORAGE_CONN",
		MaxListSize:      "TEST_STORAGE_MAX_LIST",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := tt.cfg
			err := cfg.Finalize(env)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, cfg); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := storage.Config{Provider: storage.ProviderFilesystem, Path: "models", MaxListSize: 50}
	base.Merge(&storage.Config{Path: "/var/lib/soilguardian", MaxListSize: 10})

	want := storage.Config{Provider: storage.ProviderFilesystem, Path: "/var/lib/soilguardian", MaxListSize: 10}
	if diff := cmp.Diff(want, base); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
