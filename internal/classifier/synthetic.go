package classifier

import (
	"math/rand/v2"

	"github.com/JaimeStill/soilguardian/internal/agronomy"
	"github.com/JaimeStill/soilguardian/internal/soil"
)

// inRangeRate is the share of generated values drawn inside a crop's
// optimal range for a catalogued property.
const inRangeRate = 0.8

// backgroundRanges bound the uniform draws for required properties a crop
// does not constrain.
var backgroundRanges = map[string]soil.Range{
	soil.PH:          {Min: 5, Max: 8},
	soil.Nitrogen:    {Min: 10, Max: 150},
	soil.Phosphorus:  {Min: 5, Max: 100},
	soil.Potassium:   {Min: 10, Max: 200},
	soil.Moisture:    {Min: 20, Max: 80},
	soil.Temperature: {Min: 15, Max: 35},
}

type optionalDraw struct {
	rate  float64
	bound soil.Range
}

var optionalDraws = map[string]optionalDraw{
	soil.OrganicMatter: {rate: 0.8, bound: soil.Range{Min: 1, Max: 10}},
	soil.Conductivity:  {rate: 0.7, bound: soil.Range{Min: 0.1, Max: 2.0}},
	soil.Salinity:      {rate: 0.7, bound: soil.Range{Min: 0.1, Max: 1.5}},
}

// Synthesize generates a labeled training set from the crop catalog. Each
// crop receives n/len(crops) samples; properties the catalog constrains land
// inside the optimal range most of the time and just outside it otherwise.
// Optional properties are sometimes left unmeasured. The output is shuffled
// and fully determined by seed.
func Synthesize(tables *agronomy.Tables, n int, seed uint64) ([]soil.Sample, []string) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	crops := tables.Crops()
	if len(crops) == 0 || n <= 0 {
		return nil, nil
	}

	perCrop := n / len(crops)
	samples := make([]soil.Sample, 0, perCrop*len(crops))
	labels := make([]string, 0, perCrop*len(crops))

	for _, crop := range crops {
		for range perCrop {
			f := make(soil.Features, len(soil.All))
			for _, name := range soil.Required {
				f[name] = uniform(rng, backgroundRanges[name])
			}
			for _, cond := range crop.Conditions {
				f[cond.Property] = conditionValue(rng, cond.Range)
			}
			for _, name := range soil.Optional {
				d := optionalDraws[name]
				if rng.Float64() < d.rate {
					f[name] = uniform(rng, d.bound)
				}
			}

			s, err := soil.FromFeatures(f)
			if err != nil {
				continue
			}
			samples = append(samples, s)
			labels = append(labels, crop.Name)
		}
	}

	rng.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
		labels[i], labels[j] = labels[j], labels[i]
	})
	return samples, labels
}

func conditionValue(rng *rand.Rand, r agronomy.Range) float64 {
	lo, hi := r.Min.Value, r.Max.Value
	if rng.Float64() < inRangeRate {
		return uniform(rng, soil.Range{Min: lo, Max: hi})
	}
	if rng.Float64() < 0.5 {
		return uniform(rng, soil.Range{Min: max(0, lo*0.7), Max: lo})
	}
	return uniform(rng, soil.Range{Min: hi, Max: hi * 1.3})
}

func uniform(rng *rand.Rand, r soil.Range) float64 {
	return r.Min + rng.Float64()*r.Width()
}
