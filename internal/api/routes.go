package api

import (
	"net/http"

	"github.com/JaimeStill/soilguardian/internal/config"
	"github.com/JaimeStill/soilguardian/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) []routes.Group {
	groups := []routes.Group{
		domain.Recommendations.Handler().Routes(),
		newCatalogHandler(runtime.Tables, runtime.Logger).routes(),
		newModelHandler(runtime.Registry, runtime.Tables, runtime.Logger).routes(),
		newStoreHandler(runtime.Store, runtime.Logger).routes(),
	}

	routes.Register(mux, groups...)
	return groups
}
