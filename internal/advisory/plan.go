package advisory

import (
	"fmt"
	"log/slog"

	"github.com/JaimeStill/soilguardian/internal/agronomy"
	"github.com/JaimeStill/soilguardian/internal/soil"
)

const fertilizerInstructions = "Apply 40-50% of nitrogen and all phosphorus and potassium at planting. " +
	"Apply remaining nitrogen in 1-2 split applications during peak growth stages."

// NutrientAdvice is the fertilizer recommendation for one nutrient.
type NutrientAdvice struct {
	Level          agronomy.Level `json:"level"`
	Value          float64        `json:"value"`
	Recommendation string         `json:"recommendation"`
}

// Fertilizer is the fertilizer section of a comprehensive recommendation.
type Fertilizer struct {
	Nutrients    map[string]NutrientAdvice `json:"nutrients"`
	Summary      string                    `json:"summary"`
	Instructions string                    `json:"instructions"`
}

// Irrigation is the irrigation section of a comprehensive recommendation.
type Irrigation struct {
	CurrentMoisture      float64                 `json:"current_moisture"`
	MoistureStatus       agronomy.MoistureStatus `json:"moisture_status"`
	InitialStrategy      string                  `json:"initial_strategy"`
	StageRecommendations agronomy.Stages         `json:"stage_recommendations"`
	Summary              string                  `json:"summary"`
}

// PHAdjustment is a pH amendment with the reading that triggered it.
type PHAdjustment struct {
	agronomy.Amendment
	CurrentPH float64 `json:"current_ph"`
	TargetPH  string  `json:"target_ph"`
}

// OrganicMatter is an organic matter amendment with the measured level.
type OrganicMatter struct {
	agronomy.Amendment
	CurrentOM float64 `json:"current_om"`
}

// Amendments holds soil treatments. Either entry may be absent.
type Amendments struct {
	PHAdjustment  *PHAdjustment  `json:"ph_adjustment,omitempty"`
	OrganicMatter *OrganicMatter `json:"organic_matter,omitempty"`
}

// Planner builds the individual sections of a management plan from the
// rule tables. Its methods are pure.
type Planner struct {
	tables *agronomy.Tables
	logger *slog.Logger
}

// NewPlanner creates a Planner over the given rule tables.
func NewPlanner(tables *agronomy.Tables, logger *slog.Logger) *Planner {
	return &Planner{
		tables: tables,
		logger: logger,
	}
}

// Fertilizer buckets each nutrient and looks up its application rate. It
// fails only when the rule tables lack an entry the buckets require.
func (p *Planner) Fertilizer(crop string, sample soil.Sample) (*Fertilizer, error) {
	features := sample.Features()
	nutrients := make(map[string]NutrientAdvice, len(agronomy.Nutrients))

	for _, nutrient := range agronomy.Nutrients {
		value := features[nutrient]
		level, known := agronomy.NutrientLevel(nutrient, value)
		if !known {
			p.logger.Warn("unknown nutrient, assuming medium", "nutrient", nutrient)
		}
		rate, ok := p.tables.FertilizerRate(crop, nutrient, level)
		if !ok {
			return nil, fmt.Errorf("%w: fertilizer rate %s/%s/%s", ErrComputation, crop, nutrient, level)
		}
		nutrients[nutrient] = NutrientAdvice{
			Level:          level,
			Value:          value,
			Recommendation: rate,
		}
	}

	return &Fertilizer{
		Nutrients: nutrients,
		Summary: fmt.Sprintf(
			"Apply %s of N, %s of P, and %s of K for optimal %s growth.",
			nutrients[agronomy.Nitrogen].Recommendation,
			nutrients[agronomy.Phosphorus].Recommendation,
			nutrients[agronomy.Potassium].Recommendation,
			crop,
		),
		Instructions: fertilizerInstructions,
	}, nil
}

// Irrigation derives the moisture status and stage guidance for a crop.
func (p *Planner) Irrigation(crop string, features soil.Features) *Irrigation {
	moisture, ok := features[soil.Moisture]
	if !ok {
		moisture = agronomy.DefaultMoisture
	}
	status := agronomy.Moisture(moisture)

	return &Irrigation{
		CurrentMoisture:      moisture,
		MoistureStatus:       status,
		InitialStrategy:      status.Strategy(),
		StageRecommendations: p.tables.IrrigationStages(crop),
		Summary: fmt.Sprintf(
			"Current soil moisture is %s (%s%%). %s.",
			status,
			agronomy.FormatNumber(moisture),
			status.Strategy(),
		),
	}
}

// Amendments recommends pH and organic matter treatments. Optimal pH
// produces no pH entry; organic matter advice requires a measurement.
func (p *Planner) Amendments(features soil.Features) *Amendments {
	out := &Amendments{}

	if ph, ok := features[soil.PH]; ok {
		if a, ok := p.tables.PHAdjustment(agronomy.PHLevel(ph)); ok {
			out.PHAdjustment = &PHAdjustment{
				Amendment: a,
				CurrentPH: ph,
				TargetPH:  p.tables.TargetPH(),
			}
		}
	}

	if om, ok := features[soil.OrganicMatter]; ok {
		if a, ok := p.tables.OrganicMatterAmendment(agronomy.OrganicMatterLevel(om)); ok {
			out.OrganicMatter = &OrganicMatter{
				Amendment: a,
				CurrentOM: om,
			}
		}
	}

	return out
}
