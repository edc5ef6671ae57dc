// Package soil models soil sensor readings and the feature scaling applied
// to them before classification.
package soil

import (
	"fmt"
	"math"
)

// Canonical feature names. These are the keys used in Features, in the model
// artifact, and in the JSON form of a Sample.
const (
	PH            = "pH"
	Nitrogen      = "nitrogen"
	Phosphorus    = "phosphorus"
	Potassium     = "potassium"
	Moisture      = "moisture"
	Temperature   = "temperature"
	OrganicMatter = "organicMatter"
	Conductivity  = "conductivity"
	Salinity      = "salinity"
)

// Required lists the features every reading must carry.
var Required = []string{PH, Nitrogen, Phosphorus, Potassium, Moisture, Temperature}

// Optional lists the features a reading may omit.
var Optional = []string{OrganicMatter, Conductivity, Salinity}

// All lists every known feature in canonical order.
var All = append(append([]string{}, Required...), Optional...)

// Features maps a canonical feature name to its value.
type Features map[string]float64

// Sample is one validated soil reading. Optional properties are nil when
// they were not measured.
type Sample struct {
	PH            float64  `json:"pH"`
	Nitrogen      float64  `json:"nitrogen"`
	Phosphorus    float64  `json:"phosphorus"`
	Potassium     float64  `json:"potassium"`
	Moisture      float64  `json:"moisture"`
	Temperature   float64  `json:"temperature"`
	OrganicMatter *float64 `json:"organicMatter,omitempty"`
	Conductivity  *float64 `json:"conductivity,omitempty"`
	Salinity      *float64 `json:"salinity,omitempty"`
}

// Features returns the measured properties of the sample. Unmeasured
// optional properties are absent from the result.
func (s Sample) Features() Features {
	f := Features{
		PH:          s.PH,
		Nitrogen:    s.Nitrogen,
		Phosphorus:  s.Phosphorus,
		Potassium:   s.Potassium,
		Moisture:    s.Moisture,
		Temperature: s.Temperature,
	}
	if s.OrganicMatter != nil {
		f[OrganicMatter] = *s.OrganicMatter
	}
	if s.Conductivity != nil {
		f[Conductivity] = *s.Conductivity
	}
	if s.Salinity != nil {
		f[Salinity] = *s.Salinity
	}
	return f
}

// Value returns the named property and whether it was measured.
func (s Sample) Value(name string) (float64, bool) {
	v, ok := s.Features()[name]
	return v, ok
}

// Validate rejects samples carrying NaN or infinite values.
func (s Sample) Validate() error {
	for name, v := range s.Features() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidValue, name, v)
		}
	}
	return nil
}

// FromFeatures builds a Sample from a feature map. Required features that
// are missing are reported in the returned error.
func FromFeatures(f Features) (Sample, error) {
	var missing []string
	for _, name := range Required {
		if _, ok := f[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Sample{}, fmt.Errorf("%w: missing %v", ErrInvalidValue, missing)
	}

	s := Sample{
		PH:          f[PH],
		Nitrogen:    f[Nitrogen],
		Phosphorus:  f[Phosphorus],
		Potassium:   f[Potassium],
		Moisture:    f[Moisture],
		Temperature: f[Temperature],
	}
	if v, ok := f[OrganicMatter]; ok {
		s.OrganicMatter = &v
	}
	if v, ok := f[Conductivity]; ok {
		s.Conductivity = &v
	}
	if v, ok := f[Salinity]; ok {
		s.Salinity = &v
	}
	return s, nil
}

// Ptr returns a pointer to v. It is a convenience for populating optional
// Sample fields.
func Ptr(v float64) *float64 {
	return &v
}
