package classifier

import (
	"fmt"
	"math"
	"sort"
)

// Tier is a coarse confidence bucket.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Thresholds are the inclusive lower bounds, in percent, of the High and
// Medium tiers. They are fixed for the lifetime of a request.
type Thresholds struct {
	High   float64
	Medium float64
}

// DefaultThresholds returns the standard tier bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 80, Medium: 60}
}

// Tier buckets a confidence percentage.
func (t Thresholds) Tier(confidence float64) Tier {
	switch {
	case confidence >= t.High:
		return TierHigh
	case confidence >= t.Medium:
		return TierMedium
	default:
		return TierLow
	}
}

// CropRecommendation is one ranked crop suggestion.
type CropRecommendation struct {
	Crop            string  `json:"crop"`
	Confidence      float64 `json:"confidence"`
	ConfidenceLevel Tier    `json:"confidence_level"`
	Rank            int     `json:"rank"`
	Reasoning       string  `json:"reasoning"`
}

// Rank orders classes by descending probability and keeps the first topN.
// Ties keep class order. Confidence is the probability as a percentage
// rounded to two decimals; the tier is taken from the unrounded value.
// Reasoning is left for the caller to fill.
func Rank(probs []float64, classes []string, topN int, th Thresholds) ([]CropRecommendation, error) {
	if len(probs) != len(classes) {
		return nil, fmt.Errorf("%w: %d probabilities for %d classes", ErrInvalidModel, len(probs), len(classes))
	}
	if topN <= 0 {
		return []CropRecommendation{}, nil
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] > probs[order[b]]
	})

	n := min(topN, len(order))
	out := make([]CropRecommendation, n)
	for r, idx := range order[:n] {
		pct := probs[idx] * 100
		out[r] = CropRecommendation{
			Crop:            classes[idx],
			Confidence:      math.Round(pct*100) / 100,
			ConfidenceLevel: th.Tier(pct),
			Rank:            r + 1,
		}
	}
	return out, nil
}
