package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/soilguardian/pkg/pagination"
)

// Noop keeps nothing. Reads return empty results and saves echo the input.
type Noop struct{}

func (Noop) RecentSoilReadings(context.Context, int, *uuid.UUID) ([]SoilReading, error) {
	return []SoilReading{}, nil
}

func (Noop) Farms(context.Context, *string) ([]Farm, error) {
	return []Farm{}, nil
}

func (Noop) SaveRecommendation(_ context.Context, rec Recommendation) (Recommendation, error) {
	return stamp(rec, time.Now()), nil
}

func (Noop) ListRecommendations(_ context.Context, page pagination.PageRequest, _ Filters) (*pagination.PageResult[Recommendation], error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize < 1 {
		page.PageSize = 1
	}
	result := pagination.NewPageResult[Recommendation](nil, 0, page.Page, page.PageSize)
	return &result, nil
}
