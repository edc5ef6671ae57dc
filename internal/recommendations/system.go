// Package recommendations turns soil samples into ranked crop
// recommendations and, for the top crop, a comprehensive management plan.
package recommendations

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/soilguardian/internal/advisory"
	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/soil"
	"github.com/JaimeStill/soilguardian/internal/store"
	"github.com/JaimeStill/soilguardian/pkg/pagination"
)

// Options controls a single recommendation.
type Options struct {
	TopN                 int
	IncludeComprehensive bool
	FarmID               *uuid.UUID
}

// Result is the recommendation response. Comprehensive is nil when it was
// not requested.
type Result struct {
	Recommendations []classifier.CropRecommendation `json:"recommendations"`
	Comprehensive   *advisory.Comprehensive         `json:"comprehensive_recommendation"`
}

// Config bounds request parameters and sets the confidence tiers.
type Config struct {
	DefaultTopN int
	MaxTopN     int
	Thresholds  classifier.Thresholds
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		DefaultTopN: 3,
		MaxTopN:     10,
		Thresholds:  classifier.DefaultThresholds(),
	}
}

// System defines the public contract for recommendation operations.
type System interface {
	Handler() *Handler

	// Recommend ranks crops for one sample and persists the result on a
	// best-effort basis.
	Recommend(ctx context.Context, sample soil.Sample, opts Options) (*Result, error)

	// RecommendBatch ranks crops for every sample against one model. Nothing
	// is persisted.
	RecommendBatch(ctx context.Context, samples []soil.Sample, topN int) ([][]classifier.CropRecommendation, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters store.Filters,
	) (*pagination.PageResult[store.Recommendation], error)
}
