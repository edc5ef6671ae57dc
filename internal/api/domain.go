package api

import (
	"github.com/JaimeStill/soilguardian/internal/recommendations"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Recommendations recommendations.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	return &Domain{
		Recommendations: recommendations.New(
			runtime.Registry,
			runtime.Tables,
			runtime.Store,
			runtime.Model.Recommendations(),
			runtime.Logger,
			runtime.Pagination,
		),
	}
}
