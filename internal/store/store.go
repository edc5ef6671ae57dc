// Package store persists farms, soil readings and served recommendations.
// Persistence is optional: the default provider keeps nothing, and callers
// treat save failures as non-fatal.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/soil"
	"github.com/JaimeStill/soilguardian/pkg/pagination"
)

// Farm is a named field owned by a user.
type Farm struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Location     string    `json:"location,omitempty"`
	AreaHectares *float64  `json:"area_hectares,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SoilReading is one sample recorded on a farm.
type SoilReading struct {
	ID     uuid.UUID `json:"id"`
	FarmID uuid.UUID `json:"farm_id"`
	soil.Sample
	RecordedAt time.Time `json:"recorded_at"`
}

// Recommendation is a served recommendation response.
type Recommendation struct {
	ID              uuid.UUID                       `json:"id"`
	FarmID          *uuid.UUID                      `json:"farm_id,omitempty"`
	FarmName        *string                         `json:"farm_name,omitempty"`
	ModelVersion    string                          `json:"model_version"`
	TopCrop         string                          `json:"top_crop"`
	Input           soil.Sample                     `json:"input"`
	Recommendations []classifier.CropRecommendation `json:"recommendations"`
	Comprehensive   json.RawMessage                 `json:"comprehensive_recommendation,omitempty"`
	CreatedAt       time.Time                       `json:"created_at"`
}

// Store is the persistence boundary.
type Store interface {
	// RecentSoilReadings returns readings recorded within the last days days,
	// newest first, optionally restricted to one farm.
	RecentSoilReadings(ctx context.Context, days int, farmID *uuid.UUID) ([]SoilReading, error)
	// Farms returns farms, optionally restricted to one user.
	Farms(ctx context.Context, userID *string) ([]Farm, error)
	// SaveRecommendation stores rec and returns it with ID and CreatedAt set.
	SaveRecommendation(ctx context.Context, rec Recommendation) (Recommendation, error)
	// ListRecommendations returns a page of stored recommendations ordered by
	// page.Sort, newest first by default.
	ListRecommendations(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Recommendation], error)
}

// New creates the store selected by cfg.Provider. db is required only for
// the postgres provider.
func New(cfg *Config, db *sql.DB, pg pagination.Config, logger *slog.Logger) (Store, error) {
	logger = logger.With("system", "store", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderNoop:
		return Noop{}, nil
	case ProviderMemory:
		return NewMemory(pg), nil
	case ProviderPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres store requires a database connection")
		}
		return NewPostgres(db, pg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

func stamp(rec Recommendation, now time.Time) Recommendation {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	return rec
}
