// Package agronomy holds the static agronomic rule tables: the crop catalog
// with optimal growing conditions, fertilizer rates, irrigation guidance per
// growth stage, and soil amendment advice, together with the bucketing
// functions that key into them.
package agronomy

import (
	_ "embed"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// DefaultKey names the fallback entry used for crops without their own table.
const DefaultKey = "default"

//go:embed tables.toml
var tablesTOML []byte

// Bound is one end of an optimal range. Label preserves the precision the
// bound was declared with ("6.0", "15").
type Bound struct {
	Value float64
	Label string
}

// Range is a closed optimal interval.
type Range struct {
	Min Bound
	Max Bound
}

// Contains reports whether v lies within the range, inclusive.
func (r Range) Contains(v float64) bool {
	return v >= r.Min.Value && v <= r.Max.Value
}

// Condition is the optimal range of one soil property for a crop.
type Condition struct {
	Property string
	Range    Range
}

// Crop is a catalog entry. Conditions keep their declared order.
type Crop struct {
	Name       string
	Conditions []Condition
}

// Amendment describes a soil treatment.
type Amendment struct {
	Method string `json:"method" toml:"method"`
	Rate   string `json:"rate" toml:"rate"`
	Notes  string `json:"notes" toml:"notes"`
}

// Tables is the loaded, immutable rule set. It is safe for concurrent use.
type Tables struct {
	crops         []Crop
	index         map[string]int
	fertilizer    map[string]map[string]map[string]string
	irrigation    map[string]Stages
	phAdjustment  map[string]Amendment
	organicMatter map[string]Amendment
	targetPH      string
}

type rawCondition struct {
	Property string `toml:"property"`
	Min      any    `toml:"min"`
	Max      any    `toml:"max"`
}

type rawCrop struct {
	Name       string         `toml:"name"`
	Conditions []rawCondition `toml:"conditions"`
}

type rawTables struct {
	TargetPH      string                                  `toml:"target_ph"`
	Crops         []rawCrop                               `toml:"crop"`
	Fertilizer    map[string]map[string]map[string]string `toml:"fertilizer"`
	Irrigation    map[string]Stages                       `toml:"irrigation"`
	PHAdjustment  map[string]Amendment                    `toml:"ph_adjustment"`
	OrganicMatter map[string]Amendment                    `toml:"organic_matter"`
}

var loadDefault = sync.OnceValues(func() (*Tables, error) {
	return Load(tablesTOML)
})

// Default returns the embedded rule tables, parsed once per process.
func Default() (*Tables, error) {
	return loadDefault()
}

// Load parses rule tables from TOML and verifies that every fallback entry
// the lookups rely on is present.
func Load(data []byte) (*Tables, error) {
	var raw rawTables
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}

	t := &Tables{
		crops:         make([]Crop, 0, len(raw.Crops)),
		index:         make(map[string]int, len(raw.Crops)),
		fertilizer:    raw.Fertilizer,
		irrigation:    raw.Irrigation,
		phAdjustment:  raw.PHAdjustment,
		organicMatter: raw.OrganicMatter,
		targetPH:      raw.TargetPH,
	}

	for _, rc := range raw.Crops {
		crop, err := rc.crop()
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(crop.Name)
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("duplicate crop %q", crop.Name)
		}
		t.index[key] = len(t.crops)
		t.crops = append(t.crops, crop)
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Crops returns the catalog in declared order.
func (t *Tables) Crops() []Crop {
	return slices.Clone(t.crops)
}

// CropNames returns the catalog crop names in declared order.
func (t *Tables) CropNames() []string {
	names := make([]string, len(t.crops))
	for i, c := range t.crops {
		names[i] = c.Name
	}
	return names
}

// Crop looks up a catalog entry by name, ignoring case.
func (t *Tables) Crop(name string) (Crop, bool) {
	i, ok := t.index[strings.ToLower(name)]
	if !ok {
		return Crop{}, false
	}
	return t.crops[i], true
}

// FertilizerRate returns the application rate for a crop, nutrient and level.
// Crops without their own table use the default table. The boolean is false
// only when no table carries the entry.
func (t *Tables) FertilizerRate(crop, nutrient string, level Level) (string, bool) {
	table, ok := t.fertilizer[crop]
	if !ok {
		table = t.fertilizer[DefaultKey]
	}
	rate, ok := table[nutrient][string(level)]
	return rate, ok
}

// IrrigationStages returns stage guidance for a crop, falling back to the
// default stages.
func (t *Tables) IrrigationStages(crop string) Stages {
	if stages, ok := t.irrigation[crop]; ok {
		return slices.Clone(stages)
	}
	return slices.Clone(t.irrigation[DefaultKey])
}

// PHAdjustment returns the treatment for a pH bucket. Optimal pH has none.
func (t *Tables) PHAdjustment(level Level) (Amendment, bool) {
	a, ok := t.phAdjustment[string(level)]
	return a, ok
}

// OrganicMatterAmendment returns the treatment for an organic matter bucket.
func (t *Tables) OrganicMatterAmendment(level Level) (Amendment, bool) {
	a, ok := t.organicMatter[string(level)]
	return a, ok
}

// TargetPH returns the pH range that adjustments aim for.
func (t *Tables) TargetPH() string {
	return t.targetPH
}

func (t *Tables) validate() error {
	if len(t.crops) == 0 {
		return fmt.Errorf("crop catalog is empty")
	}
	if t.targetPH == "" {
		return fmt.Errorf("target_ph required")
	}

	def, ok := t.fertilizer[DefaultKey]
	if !ok {
		return fmt.Errorf("fertilizer: %s table required", DefaultKey)
	}
	for _, nutrient := range Nutrients {
		for _, level := range []Level{Low, Medium, High} {
			if _, ok := def[nutrient][string(level)]; !ok {
				return fmt.Errorf("fertilizer: %s table missing %s.%s", DefaultKey, nutrient, level)
			}
		}
	}

	if len(t.irrigation[DefaultKey]) == 0 {
		return fmt.Errorf("irrigation: %s stages required", DefaultKey)
	}

	for _, level := range []Level{Low, High} {
		if _, ok := t.phAdjustment[string(level)]; !ok {
			return fmt.Errorf("ph_adjustment: %s required", level)
		}
	}
	for _, level := range []Level{Low, Medium, High} {
		if _, ok := t.organicMatter[string(level)]; !ok {
			return fmt.Errorf("organic_matter: %s required", level)
		}
	}
	return nil
}

func (rc rawCrop) crop() (Crop, error) {
	if rc.Name == "" {
		return Crop{}, fmt.Errorf("crop name required")
	}

	crop := Crop{
		Name:       rc.Name,
		Conditions: make([]Condition, 0, len(rc.Conditions)),
	}
	for _, c := range rc.Conditions {
		lo, err := bound(c.Min)
		if err != nil {
			return Crop{}, fmt.Errorf("crop %s: %s min: %w", rc.Name, c.Property, err)
		}
		hi, err := bound(c.Max)
		if err != nil {
			return Crop{}, fmt.Errorf("crop %s: %s max: %w", rc.Name, c.Property, err)
		}
		if hi.Value < lo.Value {
			return Crop{}, fmt.Errorf("crop %s: %s range inverted", rc.Name, c.Property)
		}
		crop.Conditions = append(crop.Conditions, Condition{
			Property: c.Property,
			Range:    Range{Min: lo, Max: hi},
		})
	}
	return crop, nil
}

func bound(v any) (Bound, error) {
	switch n := v.(type) {
	case int64:
		return Bound{Value: float64(n), Label: strconv.FormatInt(n, 10)}, nil
	case float64:
		return Bound{Value: n, Label: FormatNumber(n)}, nil
	default:
		return Bound{}, fmt.Errorf("bound must be a number, got %T", v)
	}
}

// FormatNumber renders a float with the shortest exact representation while
// keeping one decimal place for whole numbers (6 -> "6.0", 6.25 -> "6.25").
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
