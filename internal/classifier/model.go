// Package classifier scores soil samples against crop classes. It owns the
// serialized model artifact, the probabilistic algorithms that read it,
// ranking of class probabilities into crop recommendations, the lazily
// loaded model registry, and training.
package classifier

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/JaimeStill/soilguardian/internal/soil"
)

// Algorithm names a classification algorithm.
type Algorithm string

const (
	// GaussianNB is Gaussian naive Bayes over normalized features.
	GaussianNB Algorithm = "gaussian_nb"
	// NearestCentroid scores classes by a softmax over negative squared
	// distance to each class centroid.
	NearestCentroid Algorithm = "nearest_centroid"
)

// Algorithms lists the supported algorithms.
var Algorithms = []Algorithm{GaussianNB, NearestCentroid}

// ParseAlgorithm validates an algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown algorithm %q", s)
}

const keyPattern = "crop_recommendation_model_v%s.json"

// KeyPrefix is the storage key prefix shared by every model artifact.
const KeyPrefix = "crop_recommendation_model_v"

// Key returns the storage key of the artifact for a model version.
func Key(version string) string {
	return fmt.Sprintf(keyPattern, version)
}

// Predictor produces a probability for every class, in class order.
type Predictor interface {
	PredictProba(x []float64) ([]float64, error)
}

// Metrics summarizes held-out evaluation of a model.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Model is a trained classifier artifact. It is immutable once loaded.
// Temperature scales centroid distances and is only used by NearestCentroid.
type Model struct {
	Version     string      `json:"version"`
	Algorithm   Algorithm   `json:"algorithm"`
	Features    []string    `json:"features"`
	Classes     []string    `json:"classes"`
	Priors      []float64   `json:"priors"`
	Means       [][]float64 `json:"means"`
	Variances   [][]float64 `json:"variances,omitempty"`
	Temperature float64     `json:"temperature,omitempty"`
	Metrics     Metrics     `json:"metrics"`
	Samples     int         `json:"samples"`
	TrainedAt   time.Time   `json:"trained_at"`
}

// Validate checks that the artifact is internally consistent.
func (m *Model) Validate() error {
	if len(m.Features) == 0 {
		return fmt.Errorf("%w: no features", ErrInvalidModel)
	}
	if len(m.Classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidModel)
	}
	if len(m.Priors) != len(m.Classes) || len(m.Means) != len(m.Classes) {
		return fmt.Errorf("%w: parameter count does not match %d classes", ErrInvalidModel, len(m.Classes))
	}
	for i, p := range m.Priors {
		if !finite(p) || p <= 0 {
			return fmt.Errorf("%w: class %s prior %v must be positive", ErrInvalidModel, m.Classes[i], p)
		}
	}
	for i, mean := range m.Means {
		if len(mean) != len(m.Features) {
			return fmt.Errorf("%w: class %s has %d means for %d features",
				ErrInvalidModel, m.Classes[i], len(mean), len(m.Features))
		}
		if !finite(mean...) {
			return fmt.Errorf("%w: class %s has a non-finite mean", ErrInvalidModel, m.Classes[i])
		}
	}

	switch m.Algorithm {
	case GaussianNB:
		if len(m.Variances) != len(m.Classes) {
			return fmt.Errorf("%w: variances missing", ErrInvalidModel)
		}
		for i, v := range m.Variances {
			if len(v) != len(m.Features) {
				return fmt.Errorf("%w: class %s variance width", ErrInvalidModel, m.Classes[i])
			}
			for _, x := range v {
				if !finite(x) || x <= 0 {
					return fmt.Errorf("%w: class %s has non-positive variance", ErrInvalidModel, m.Classes[i])
				}
			}
		}
	case NearestCentroid:
		if !finite(m.Temperature) || m.Temperature <= 0 {
			return fmt.Errorf("%w: temperature must be positive", ErrInvalidModel)
		}
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidModel, m.Algorithm)
	}
	return nil
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Vector orders normalized features the way the model expects. Optional
// features the sample lacks are filled from soil.Defaults after scaling;
// any other missing feature is an ErrFeatureMismatch.
func (m *Model) Vector(normalized soil.Features) ([]float64, error) {
	x := make([]float64, len(m.Features))
	var missing []string

	for i, name := range m.Features {
		v, ok := normalized[name]
		if !ok {
			fill, ok := defaultNormalized(name)
			if !ok {
				missing = append(missing, name)
				continue
			}
			v = fill
		}
		x[i] = v
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrFeatureMismatch, missing)
	}
	return x, nil
}

// PredictProba returns the class probabilities for a feature vector.
func (m *Model) PredictProba(x []float64) ([]float64, error) {
	if len(x) != len(m.Features) {
		return nil, fmt.Errorf("%w: got %d values for %d features", ErrFeatureMismatch, len(x), len(m.Features))
	}

	scores := make([]float64, len(m.Classes))
	for c := range m.Classes {
		switch m.Algorithm {
		case GaussianNB:
			scores[c] = m.gaussianLogLikelihood(c, x)
		case NearestCentroid:
			scores[c] = -squaredDistance(x, m.Means[c]) / m.Temperature
		default:
			return nil, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidModel, m.Algorithm)
		}
	}
	return softmax(scores), nil
}

func (m *Model) gaussianLogLikelihood(c int, x []float64) float64 {
	ll := math.Log(m.Priors[c])
	for j, v := range x {
		variance := m.Variances[c][j]
		d := v - m.Means[c][j]
		ll += -0.5*math.Log(2*math.Pi*variance) - (d*d)/(2*variance)
	}
	return ll
}

// Encode writes the model as JSON.
func Encode(w io.Writer, m *Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return nil
}

// Decode reads and validates a JSON model.
func Decode(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidModel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func defaultNormalized(name string) (float64, bool) {
	v, ok := soil.Defaults[name]
	if !ok {
		return 0, false
	}
	r, ok := soil.Ranges[name]
	if !ok || r.Width() <= 0 {
		return v, true
	}
	return max(0, min(1, (v-r.Min)/r.Width())), true
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// softmax converts log-scores to probabilities with the log-sum-exp shift.
func softmax(scores []float64) []float64 {
	hi := math.Inf(-1)
	for _, s := range scores {
		hi = max(hi, s)
	}

	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
