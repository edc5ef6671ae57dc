// Package advisory turns a chosen crop and a soil sample into human-readable
// guidance: per-property reasoning for a recommendation and the comprehensive
// management plan built from the agronomy rule tables.
package advisory

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/soilguardian/internal/agronomy"
	"github.com/JaimeStill/soilguardian/internal/soil"
)

// Status places a measured value relative to an optimal range.
type Status string

const (
	BelowOptimal  Status = "below_optimal"
	WithinOptimal Status = "optimal"
	AboveOptimal  Status = "above_optimal"
)

// Compare places v relative to r. Bounds are inclusive.
func Compare(v float64, r agronomy.Range) Status {
	switch {
	case r.Contains(v):
		return WithinOptimal
	case v < r.Min.Value:
		return BelowOptimal
	default:
		return AboveOptimal
	}
}

func (s Status) phrase() string {
	switch s {
	case BelowOptimal:
		return "slightly below"
	case AboveOptimal:
		return "slightly above"
	default:
		return "within"
	}
}

// Reasoning explains why a crop suits the sample. It produces one clause per
// catalog condition whose property was measured, in catalog order, joined
// with " and ". A crop outside the catalog, or a sample sharing no property
// with it, gets a generic sentence.
func Reasoning(tables *agronomy.Tables, crop string, features soil.Features) string {
	entry, ok := tables.Crop(crop)
	if !ok {
		return genericReason(crop)
	}

	clauses := make([]string, 0, len(entry.Conditions))
	for _, c := range entry.Conditions {
		actual, ok := features[c.Property]
		if !ok {
			continue
		}
		clauses = append(clauses, fmt.Sprintf(
			"%s (%.1f) is %s the optimal range for %s (%s-%s)",
			c.Property,
			actual,
			Compare(actual, c.Range).phrase(),
			crop,
			c.Range.Min.Label,
			c.Range.Max.Label,
		))
	}

	if len(clauses) == 0 {
		return genericReason(crop)
	}
	return strings.Join(clauses, " and ") + "."
}

func genericReason(crop string) string {
	return crop + " is suitable based on overall soil conditions."
}
