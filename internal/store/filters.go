package store

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/soilguardian/pkg/query"
)

// DefaultDays is the look-back window for recent soil readings.
const DefaultDays = 30

// Filters narrows ListRecommendations. Nil fields are ignored.
type Filters struct {
	FarmID *uuid.UUID `json:"farm_id,omitempty"`
	Crop   *string    `json:"crop,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("FarmID", f.FarmID).
		WhereEquals("TopCrop", f.Crop)
}

func (f Filters) match(rec Recommendation) bool {
	if f.FarmID != nil && (rec.FarmID == nil || *rec.FarmID != *f.FarmID) {
		return false
	}
	if f.Crop != nil && !strings.EqualFold(rec.TopCrop, *f.Crop) {
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	id, err := FarmIDFromQuery(values)
	if err != nil {
		return f, err
	}
	f.FarmID = id

	if c := values.Get("crop"); c != "" {
		f.Crop = &c
	}
	return f, nil
}

// FarmIDFromQuery parses the optional farm_id parameter.
func FarmIDFromQuery(values url.Values) (*uuid.UUID, error) {
	s := values.Get("farm_id")
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: farm_id: %w", ErrInvalidFilter, err)
	}
	return &id, nil
}

// DaysFromQuery parses the optional days parameter, defaulting to
// DefaultDays. Values must be positive.
func DaysFromQuery(values url.Values) (int, error) {
	s := values.Get("days")
	if s == "" {
		return DefaultDays, nil
	}
	days, err := strconv.Atoi(s)
	if err != nil || days < 1 {
		return 0, fmt.Errorf("%w: days must be a positive integer", ErrInvalidFilter)
	}
	return days, nil
}
