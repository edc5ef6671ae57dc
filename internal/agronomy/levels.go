package agronomy

// Level is a bucket label applied to a measured value.
type Level string

const (
	Low     Level = "low"
	Medium  Level = "medium"
	High    Level = "high"
	Optimal Level = "optimal"
)

// Nutrient names used as fertilizer table keys.
const (
	Nitrogen   = "nitrogen"
	Phosphorus = "phosphorus"
	Potassium  = "potassium"
)

// Nutrients lists the fertilizer nutrients in reporting order.
var Nutrients = []string{Nitrogen, Phosphorus, Potassium}

type thresholds struct {
	low    float64
	medium float64
}

var nutrientThresholds = map[string]thresholds{
	Nitrogen:   {low: 40, medium: 80},
	Phosphorus: {low: 20, medium: 40},
	Potassium:  {low: 50, medium: 100},
}

// NutrientLevel buckets a nutrient value. Values below the low threshold are
// Low, values below the medium threshold are Medium, anything else is High.
// An unknown nutrient reports Medium with ok set to false.
func NutrientLevel(nutrient string, value float64) (level Level, ok bool) {
	th, ok := nutrientThresholds[nutrient]
	if !ok {
		return Medium, false
	}
	switch {
	case value < th.low:
		return Low, true
	case value < th.medium:
		return Medium, true
	default:
		return High, true
	}
}

// PHLevel buckets soil pH: below 5.5 is Low, up to and including 7.0 is
// Optimal, above is High.
func PHLevel(ph float64) Level {
	switch {
	case ph < 5.5:
		return Low
	case ph <= 7.0:
		return Optimal
	default:
		return High
	}
}

// OrganicMatterLevel buckets organic matter percentage.
func OrganicMatterLevel(om float64) Level {
	switch {
	case om < 2:
		return Low
	case om < 5:
		return Medium
	default:
		return High
	}
}

// MoistureStatus describes how wet the soil currently is.
type MoistureStatus string

const (
	Dry      MoistureStatus = "dry"
	Moderate MoistureStatus = "moderate"
	Adequate MoistureStatus = "adequate"
)

// DefaultMoisture is assumed when a sample carries no moisture reading.
const DefaultMoisture = 50.0

// Moisture buckets soil moisture percentage.
func Moisture(moisture float64) MoistureStatus {
	switch {
	case moisture < 30:
		return Dry
	case moisture < 60:
		return Moderate
	default:
		return Adequate
	}
}

// Strategy returns the initial irrigation strategy for a moisture status.
func (s MoistureStatus) Strategy() string {
	switch s {
	case Dry:
		return "Immediate irrigation needed"
	case Moderate:
		return "Monitor soil moisture closely"
	default:
		return "Maintain current moisture levels"
	}
}
