package classifier

import (
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/JaimeStill/soilguardian/internal/soil"
)

// Dataset is a normalized, imputed design matrix in soil.All feature order.
type Dataset struct {
	Features []string
	X        [][]float64
	Y        []string
}

// NewDataset imputes and normalizes samples with the same policy applied at
// prediction time, so that trained parameters and served vectors agree.
func NewDataset(samples []soil.Sample, labels []string) (*Dataset, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("%d samples for %d labels", len(samples), len(labels))
	}

	ds := &Dataset{
		Features: slices.Clone(soil.All),
		X:        make([][]float64, len(samples)),
		Y:        slices.Clone(labels),
	}

	for i, s := range soil.ImputeBatch(samples) {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		normalized, err := soil.Normalize(s.Features(), soil.Ranges)
		if err != nil {
			return nil, err
		}
		row := make([]float64, len(ds.Features))
		for j, name := range ds.Features {
			row[j] = normalized[name]
		}
		ds.X[i] = row
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Y)
}

// Split shuffles rows with a seeded generator and holds out testFraction of
// them. The same seed always yields the same split.
func (d *Dataset) Split(testFraction float64, seed uint64) (train, test *Dataset) {
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(d.Len())

	nTest := int(math.Round(float64(d.Len()) * testFraction))
	nTest = max(0, min(nTest, d.Len()-1))

	pick := func(idx []int) *Dataset {
		out := &Dataset{
			Features: d.Features,
			X:        make([][]float64, len(idx)),
			Y:        make([]string, len(idx)),
		}
		for i, j := range idx {
			out.X[i] = d.X[j]
			out.Y[i] = d.Y[j]
		}
		return out
	}

	return pick(perm[nTest:]), pick(perm[:nTest])
}

// TrainOptions controls Train.
type TrainOptions struct {
	Algorithm    Algorithm
	Version      string
	Seed         uint64
	TestFraction float64
	// VarSmoothing is added to every variance as a fraction of the largest
	// feature variance.
	VarSmoothing float64
	Temperature  float64
}

// DefaultTrainOptions returns the options used by the train command.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Algorithm:    GaussianNB,
		Version:      "1.0.0",
		Seed:         42,
		TestFraction: 0.2,
		VarSmoothing: 1e-9,
		Temperature:  0.05,
	}
}

// Train fits a model on a seeded training split of ds and records its
// metrics on the held-out remainder.
func Train(ds *Dataset, opts TrainOptions) (*Model, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	train, test := ds.Split(opts.TestFraction, opts.Seed)

	m, err := fit(train, opts)
	if err != nil {
		return nil, err
	}

	if test.Len() == 0 {
		test = train
	}
	metrics, err := Evaluate(m, m.Classes, test)
	if err != nil {
		return nil, err
	}
	m.Metrics = metrics
	return m, nil
}

func fit(ds *Dataset, opts TrainOptions) (*Model, error) {
	if ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	classes := slices.Clone(ds.Y)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	width := len(ds.Features)
	counts := make([]float64, len(classes))
	means := make([][]float64, len(classes))
	variances := make([][]float64, len(classes))
	for c := range classes {
		means[c] = make([]float64, width)
		variances[c] = make([]float64, width)
	}

	for i, row := range ds.X {
		c := index[ds.Y[i]]
		counts[c]++
		for j, v := range row {
			means[c][j] += v
		}
	}
	for c := range classes {
		for j := range width {
			means[c][j] /= counts[c]
		}
	}

	for i, row := range ds.X {
		c := index[ds.Y[i]]
		for j, v := range row {
			d := v - means[c][j]
			variances[c][j] += d * d
		}
	}

	epsilon := opts.VarSmoothing * maxFeatureVariance(ds)
	if epsilon <= 0 {
		epsilon = 1e-9
	}
	for c := range classes {
		for j := range width {
			variances[c][j] = variances[c][j]/counts[c] + epsilon
		}
	}

	priors := make([]float64, len(classes))
	for c := range classes {
		priors[c] = counts[c] / float64(ds.Len())
	}

	m := &Model{
		Version:   opts.Version,
		Algorithm: opts.Algorithm,
		Features:  slices.Clone(ds.Features),
		Classes:   classes,
		Priors:    priors,
		Means:     means,
		Samples:   ds.Len(),
		TrainedAt: time.Now().UTC(),
	}

	switch opts.Algorithm {
	case GaussianNB:
		m.Variances = variances
	case NearestCentroid:
		m.Temperature = opts.Temperature
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func maxFeatureVariance(ds *Dataset) float64 {
	width := len(ds.Features)
	mean := make([]float64, width)
	for _, row := range ds.X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(ds.Len())
	}

	var hi float64
	for j := range width {
		var sum float64
		for _, row := range ds.X {
			d := row[j] - mean[j]
			sum += d * d
		}
		hi = max(hi, sum/float64(ds.Len()))
	}
	return hi
}

// Evaluate scores p on ds. Precision, recall and F1 are averaged over the
// classes present in ds, weighted by their support.
func Evaluate(p Predictor, classes []string, ds *Dataset) (Metrics, error) {
	if ds.Len() == 0 {
		return Metrics{}, ErrEmptyDataset
	}

	type tally struct{ tp, fp, fn, support float64 }
	stats := make(map[string]*tally)
	get := func(c string) *tally {
		t, ok := stats[c]
		if !ok {
			t = &tally{}
			stats[c] = t
		}
		return t
	}

	var correct float64
	for i, row := range ds.X {
		probs, err := p.PredictProba(row)
		if err != nil {
			return Metrics{}, err
		}
		predicted := classes[argmax(probs)]
		actual := ds.Y[i]

		get(actual).support++
		if predicted == actual {
			correct++
			get(actual).tp++
		} else {
			get(actual).fn++
			get(predicted).fp++
		}
	}

	var m Metrics
	total := float64(ds.Len())
	for _, c := range slices.Sorted(maps.Keys(stats)) {
		t := stats[c]
		if t.support == 0 {
			continue
		}
		precision := safeDiv(t.tp, t.tp+t.fp)
		recall := safeDiv(t.tp, t.tp+t.fn)
		f1 := safeDiv(2*precision*recall, precision+recall)

		w := t.support / total
		m.Precision += w * precision
		m.Recall += w * recall
		m.F1 += w * f1
	}
	m.Accuracy = correct / total
	return m, nil
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
