package advisory

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/soilguardian/internal/agronomy"
	"github.com/JaimeStill/soilguardian/internal/soil"
)

// Yield potential descriptions, from best to worst soil fit.
const (
	YieldUnassessed = "Medium to high with proper management"
	YieldHigh       = "High yield potential with proper management"
	YieldMediumHigh = "Medium to high yield potential with proper management"
	YieldMedium     = "Medium yield potential with additional soil amendments and proper management"
)

// Assessment compares one measured property with the crop's optimal range.
type Assessment struct {
	Actual       float64    `json:"actual"`
	OptimalRange [2]float64 `json:"optimal_range"`
	Status       Status     `json:"status"`
}

// PlantingGuidelines is generic planting guidance.
type PlantingGuidelines struct {
	Season   string `json:"season"`
	SeedRate string `json:"seed_rate"`
	Spacing  string `json:"spacing"`
	Depth    string `json:"depth"`
}

var plantingGuidelines = PlantingGuidelines{
	Season:   "Consult local agricultural extension for optimal planting dates",
	SeedRate: "Standard seed rate for local conditions",
	Spacing:  "Standard spacing for local conditions",
	Depth:    "Standard planting depth for local conditions",
}

// Comprehensive is the full management plan for a crop. A fallback plan
// carries only Crop, Timestamp and Summary.
type Comprehensive struct {
	Crop           string                `json:"crop"`
	Timestamp      time.Time             `json:"timestamp"`
	SoilData       soil.Features         `json:"soil_data,omitempty"`
	Suitability    map[string]Assessment `json:"suitability_assessment,omitempty"`
	Fertilizer     *Fertilizer           `json:"fertilizer,omitempty"`
	Irrigation     *Irrigation           `json:"irrigation,omitempty"`
	Amendments     *Amendments           `json:"soil_amendments,omitempty"`
	Planting       *PlantingGuidelines   `json:"planting_guidelines,omitempty"`
	YieldPotential string                `json:"yield_potential,omitempty"`
	Summary        string                `json:"summary"`
}

// Fallback reports whether the plan is the degraded form produced after an
// internal failure.
func (c *Comprehensive) Fallback() bool {
	return c.Fertilizer == nil
}

// Assembler builds comprehensive plans. It never fails: internal errors and
// panics are logged and replaced by a fallback plan.
type Assembler struct {
	tables  *agronomy.Tables
	planner *Planner
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock overrides the time source used for plan timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// NewAssembler creates an Assembler over the given rule tables.
func NewAssembler(tables *agronomy.Tables, logger *slog.Logger, opts ...Option) *Assembler {
	logger = logger.With("system", "advisory")
	a := &Assembler{
		tables:  tables,
		planner: NewPlanner(tables, logger),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the plan for crop from sample. The result depends only on
// its inputs and the clock.
func (a *Assembler) Assemble(crop string, sample soil.Sample) (result *Comprehensive) {
	timestamp := a.now()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("comprehensive recommendation panicked", "crop", crop, "panic", r)
			result = fallback(crop, timestamp)
		}
	}()

	plan, err := a.assemble(crop, sample, timestamp)
	if err != nil {
		a.logger.Error("comprehensive recommendation failed", "crop", crop, "error", err)
		return fallback(crop, timestamp)
	}
	return plan
}

func (a *Assembler) assemble(crop string, sample soil.Sample, timestamp time.Time) (*Comprehensive, error) {
	if err := sample.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComputation, err)
	}

	features := sample.Features()

	fertilizer, err := a.planner.Fertilizer(crop, sample)
	if err != nil {
		return nil, err
	}
	irrigation := a.planner.Irrigation(crop, features)
	suitability := a.suitability(crop, features)
	planting := plantingGuidelines

	return &Comprehensive{
		Crop:           crop,
		Timestamp:      timestamp,
		SoilData:       features,
		Suitability:    suitability,
		Fertilizer:     fertilizer,
		Irrigation:     irrigation,
		Amendments:     a.planner.Amendments(features),
		Planting:       &planting,
		YieldPotential: YieldPotential(suitability),
		Summary: fmt.Sprintf(
			"%s is recommended with specific management practices. %s %s",
			crop,
			fertilizer.Summary,
			irrigation.Summary,
		),
	}, nil
}

func (a *Assembler) suitability(crop string, features soil.Features) map[string]Assessment {
	out := make(map[string]Assessment)

	entry, ok := a.tables.Crop(crop)
	if !ok {
		return out
	}

	for _, c := range entry.Conditions {
		actual, ok := features[c.Property]
		if !ok {
			continue
		}
		out[c.Property] = Assessment{
			Actual:       actual,
			OptimalRange: [2]float64{c.Range.Min.Value, c.Range.Max.Value},
			Status:       Compare(actual, c.Range),
		}
	}
	return out
}

// YieldPotential grades the fit of the soil from its suitability assessment.
// Integer halving means one optimal property out of three grades as
// medium to high.
func YieldPotential(suitability map[string]Assessment) string {
	if len(suitability) == 0 {
		return YieldUnassessed
	}

	optimal := 0
	for _, a := range suitability {
		if a.Status == WithinOptimal {
			optimal++
		}
	}

	switch {
	case optimal == len(suitability):
		return YieldHigh
	case optimal >= len(suitability)/2:
		return YieldMediumHigh
	default:
		return YieldMedium
	}
}

func fallback(crop string, timestamp time.Time) *Comprehensive {
	return &Comprehensive{
		Crop:      crop,
		Timestamp: timestamp,
		Summary:   crop + " is recommended, but there was an error generating detailed recommendations.",
	}
}
