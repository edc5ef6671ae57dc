// Package web serves embedded static assets.
package web

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/JaimeStill/soilguardian/pkg/routes"
)

// Asset is a static file read into memory once. It serves with a strong
// ETag so clients revalidate instead of refetching.
type Asset struct {
	Name string
	data []byte
	etag string
}

// LoadAssets reads each file from subdir of fsys. A missing file is an
// error rather than a route that always answers 404.
func LoadAssets(fsys fs.FS, subdir string, files ...string) ([]Asset, error) {
	assets := make([]Asset, 0, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, path.Join(subdir, file))
		if err != nil {
			return nil, fmt.Errorf("load asset %s: %w", file, err)
		}
		sum := sha256.Sum256(data)
		assets = append(assets, Asset{
			Name: file,
			data: data,
			etag: `"` + hex.EncodeToString(sum[:8]) + `"`,
		})
	}
	return assets, nil
}

func (a Asset) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", a.etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, a.Name, time.Time{}, bytes.NewReader(a.data))
}

// AssetRoutes generates a GET route serving each asset at /<name>.
func AssetRoutes(assets []Asset) []routes.Route {
	out := make([]routes.Route, len(assets))
	for i, a := range assets {
		out[i] = routes.Route{
			Method:  "GET",
			Pattern: "/" + a.Name,
			Handler: a.ServeHTTP,
		}
	}
	return out
}
