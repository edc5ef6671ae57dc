// Package scalar serves the interactive API reference for the OpenAPI
// document published by the API module.
package scalar

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/JaimeStill/soilguardian/pkg/module"
	"github.com/JaimeStill/soilguardian/pkg/web"
)

//go:embed index.html scalar.css
var staticFS embed.FS

type page struct {
	Title    string
	BasePath string
	SpecURL  string
}

// NewModule creates a module that serves the Scalar API reference UI at
// basePath, pointed at the OpenAPI document at specURL.
func NewModule(basePath, specURL, title string) (*module.Module, error) {
	handler, err := buildRouter(page{
		Title:    title,
		BasePath: basePath,
		SpecURL:  specURL,
	})
	if err != nil {
		return nil, err
	}
	return module.New(basePath, handler), nil
}

func buildRouter(p page) (http.Handler, error) {
	tmpl, err := template.ParseFS(staticFS, "index.html")
	if err != nil {
		return nil, fmt.Errorf("parse scalar index: %w", err)
	}
	assets, err := web.LoadAssets(staticFS, ".", "scalar.css")
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		tmpl.Execute(w, p)
	})
	for _, route := range web.AssetRoutes(assets) {
		mux.HandleFunc(route.Method+" "+route.Pattern, route.Handler)
	}

	return mux, nil
}
