package classifier_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/JaimeStill/soilguardian/internal/agronomy"
	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/soil"
	"github.com/JaimeStill/soilguardian/pkg/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureModel(version string) *classifier.Model {
	return &classifier.Model{
		Version:   version,
		Algorithm: classifier.GaussianNB,
		Features:  []string{soil.PH, soil.Moisture},
		Classes:   []string{"Dry", "Wet"},
		Priors:    []float64{0.5, 0.5},
		Means:     [][]float64{{0.5, 0.2}, {0.5, 0.8}},
		Variances: [][]float64{{0.01, 0.01}, {0.01, 0.01}},
	}
}

func newStore(t *testing.T) storage.System {
	t.Helper()
	sys, err := storage.New(&storage.Config{
		Provider: storage.ProviderFilesystem,
		Path:     t.TempDir(),
	}, discardLogger())
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	return sys
}

func TestKey(t *testing.T) {
	if got, want := classifier.Key("1.0.0"), "crop_recommendation_model_v1.0.0.json"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range classifier.Algorithms {
		got, err := classifier.ParseAlgorithm(string(a))
		if err != nil || got != a {
			t.Errorf("ParseAlgorithm(%q) = %q, %v", a, got, err)
		}
	}
	if _, err := classifier.ParseAlgorithm("random_forest"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestThresholdsTier(t *testing.T) {
	th := classifier.DefaultThresholds()

	tests := []struct {
		confidence float64
		want       classifier.Tier
	}{
		{100, classifier.TierHigh},
		{80, classifier.TierHigh},
		{79.99, classifier.TierMedium},
		{60, classifier.TierMedium},
		{59.99, classifier.TierLow},
		{0, classifier.TierLow},
	}

	for _, tt := range tests {
		if got := th.Tier(tt.confidence); got != tt.want {
			t.Errorf("Tier(%v) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	classes := []string{"A", "B", "C"}

	tests := []struct {
		name  string
		probs []float64
		topN  int
		want  []classifier.CropRecommendation
	}{
		{
			name:  "top two",
			probs: []float64{0.1, 0.5, 0.4},
			topN:  2,
			want: []classifier.CropRecommendation{
				{Crop: "B", Confidence: 50, ConfidenceLevel: classifier.TierLow, Rank: 1},
				{Crop: "C", Confidence: 40, ConfidenceLevel: classifier.TierLow, Rank: 2},
			},
		},
		{
			name:  "top n exceeds classes",
			probs: []float64{0.85, 0.1, 0.05},
			topN:  10,
			want: []classifier.CropRecommendation{
				{Crop: "A", Confidence: 85, ConfidenceLevel: classifier.TierHigh, Rank: 1},
				{Crop: "B", Confidence: 10, ConfidenceLevel: classifier.TierLow, Rank: 2},
				{Crop: "C", Confidence: 5, ConfidenceLevel: classifier.TierLow, Rank: 3},
			},
		},
		{
			name:  "ties keep class order",
			probs: []float64{0.2, 0.4, 0.4},
			topN:  2,
			want: []classifier.CropRecommendation{
				{Crop: "B", Confidence: 40, ConfidenceLevel: classifier.TierLow, Rank: 1},
				{Crop: "C", Confidence: 40, ConfidenceLevel: classifier.TierLow, Rank: 2},
			},
		},
		{
			name:  "rounds to two decimals",
			probs: []float64{0.654321, 0.345679, 0},
			topN:  1,
			want: []classifier.CropRecommendation{
				{Crop: "A", Confidence: 65.43, ConfidenceLevel: classifier.TierMedium, Rank: 1},
			},
		},
		{
			name:  "zero top n",
			probs: []float64{0.2, 0.3, 0.5},
			topN:  0,
			want:  []classifier.CropRecommendation{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifier.Rank(tt.probs, classes, tt.topN, classifier.DefaultThresholds())
			if err != nil {
				t.Fatalf("Rank() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Rank() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRankTierUsesUnroundedConfidence(t *testing.T) {
	got, err := classifier.Rank([]float64{0.799999, 0.200001}, []string{"A", "B"}, 1, classifier.DefaultThresholds())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got[0].Confidence != 80 {
		t.Errorf("Confidence = %v, want 80", got[0].Confidence)
	}
	if got[0].ConfidenceLevel != classifier.TierMedium {
		t.Errorf("ConfidenceLevel = %s, want %s", got[0].ConfidenceLevel, classifier.TierMedium)
	}
}

func TestRankLengthMismatch(t *testing.T) {
	_, err := classifier.Rank([]float64{1}, []string{"A", "B"}, 1, classifier.DefaultThresholds())
	if !errors.Is(err, classifier.ErrInvalidModel) {
		t.Errorf("Rank() error = %v, want ErrInvalidModel", err)
	}
}

func TestPredictProba(t *testing.T) {
	gaussian := fixtureModel("1.0.0")

	centroid := fixtureModel("1.0.0")
	centroid.Algorithm = classifier.NearestCentroid
	centroid.Variances = nil
	centroid.Temperature = 0.05

	for _, m := range []*classifier.Model{gaussian, centroid} {
		t.Run(string(m.Algorithm), func(t *testing.T) {
			if err := m.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}

			probs, err := m.PredictProba([]float64{0.5, 0.25})
			if err != nil {
				t.Fatalf("PredictProba() error = %v", err)
			}

			var sum float64
			for _, p := range probs {
				if p < 0 || p > 1 {
					t.Errorf("probability %v outside [0, 1]", p)
				}
				sum += p
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("probabilities sum to %v, want 1", sum)
			}
			if probs[0] <= probs[1] {
				t.Errorf("probs = %v, want Dry ahead of Wet", probs)
			}
		})
	}
}

func TestPredictProbaWidthMismatch(t *testing.T) {
	_, err := fixtureModel("1.0.0").PredictProba([]float64{0.5})
	if !errors.Is(err, classifier.ErrFeatureMismatch) {
		t.Errorf("PredictProba() error = %v, want ErrFeatureMismatch", err)
	}
}

func TestVector(t *testing.T) {
	m := fixtureModel("1.0.0")
	m.Features = []string{soil.PH, soil.OrganicMatter}

	x, err := m.Vector(soil.Features{soil.PH: 0.5})
	if err != nil {
		t.Fatalf("Vector() error = %v", err)
	}
	if diff := cmp.Diff([]float64{0.5, 0.25}, x); diff != "" {
		t.Errorf("Vector() mismatch (-want +got):\n%s", diff)
	}

	m.Features = []string{soil.PH, soil.Nitrogen}
	if _, err := m.Vector(soil.Features{soil.PH: 0.5}); !errors.Is(err, classifier.ErrFeatureMismatch) {
		t.Errorf("Vector() error = %v, want ErrFeatureMismatch", err)
	}
}

func TestDecodeRejectsInvalidModel(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"version":`},
		{"no classes", `{"version":"1","algorithm":"gaussian_nb","features":["pH"]}`},
		{"unknown algorithm", `{"version":"1","algorithm":"svm","features":["pH"],"classes":["A"],"priors":[1],"means":[[0.5]]}`},
		{"zero variance", `{"version":"1","algorithm":"gaussian_nb","features":["pH"],"classes":["A"],"priors":[1],"means":[[0.5]],"variances":[[0]]}`},
		{"zero priors", `{"version":"1","algorithm":"gaussian_nb","features":["pH"],"classes":["A","B"],"priors":[0,0],"means":[[0.2],[0.8]],"variances":[[0.1],[0.1]]}`},
		{"negative prior", `{"version":"1","algorithm":"nearest_centroid","features":["pH"],"classes":["A","B"],"priors":[1.5,-0.5],"means":[[0.2],[0.8]],"temperature":0.05}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classifier.Decode(strings.NewReader(tt.body))
			if !errors.Is(err, classifier.ErrInvalidModel) {
				t.Errorf("Decode() error = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestValidateRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*classifier.Model)
	}{
		{"NaN prior", func(m *classifier.Model) { m.Priors[0] = math.NaN() }},
		{"infinite mean", func(m *classifier.Model) { m.Means[1][0] = math.Inf(1) }},
		{"NaN variance", func(m *classifier.Model) { m.Variances[0][0] = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fixtureModel("1.0.0")
			tt.mutate(m)
			if err := m.Validate(); !errors.Is(err, classifier.ErrInvalidModel) {
				t.Errorf("Validate() error = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	want := fixtureModel("2.1.0")

	var buf bytes.Buffer
	if err := classifier.Encode(&buf, want); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := classifier.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"model unavailable", classifier.ErrModelUnavailable, http.StatusServiceUnavailable},
		{"feature mismatch", classifier.ErrFeatureMismatch, http.StatusBadRequest},
		{"invalid model", classifier.ErrInvalidModel, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

type countingStore struct {
	storage.System
	downloads atomic.Int32
}

func (c *countingStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	c.downloads.Add(1)
	return c.System.Download(ctx, key)
}

func TestRegistryMissingModel(t *testing.T) {
	reg := classifier.NewRegistry(newStore(t), "9.9.9", discardLogger())

	_, err := reg.Model(context.Background())
	if !errors.Is(err, classifier.ErrModelUnavailable) {
		t.Fatalf("Model() error = %v, want ErrModelUnavailable", err)
	}
	if reg.Loaded() {
		t.Error("Loaded() = true after failed load")
	}
}

func TestRegistrySaveThenLoad(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	writer := classifier.NewRegistry(store, "0.0.1", discardLogger())
	if err := writer.Save(ctx, fixtureModel("1.0.0")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if writer.Loaded() {
		t.Error("saving another version should not replace the served model")
	}

	reader := classifier.NewRegistry(store, "1.0.0", discardLogger())
	m, err := reader.Model(ctx)
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	if diff := cmp.Diff(fixtureModel("1.0.0"), m); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}
	if !reader.Ready() {
		t.Error("Ready() = false after load")
	}
}

func TestRegistryCoalescesLoads(t *testing.T) {
	base := newStore(t)
	ctx := context.Background()

	if err := classifier.NewRegistry(base, "1.0.0", discardLogger()).Save(ctx, fixtureModel("1.0.0")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	store := &countingStore{System: base}
	reg := classifier.NewRegistry(store, "1.0.0", discardLogger())

	var wg sync.WaitGroup
	models := make([]*classifier.Model, 16)
	for i := range models {
		wg.Go(func() {
			m, err := reg.Model(ctx)
			if err != nil {
				t.Errorf("Model() error = %v", err)
				return
			}
			models[i] = m
		})
	}
	wg.Wait()

	if got := store.downloads.Load(); got != 1 {
		t.Errorf("downloads = %d, want 1", got)
	}
	for i, m := range models {
		if m != models[0] {
			t.Errorf("caller %d received a different model instance", i)
		}
	}
}

func TestRegistryVersions(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	reg := classifier.NewRegistry(store, "1.0.0", discardLogger())

	for _, v := range []string{"1.1.0", "1.0.0"} {
		if err := reg.Save(ctx, fixtureModel(v)); err != nil {
			t.Fatalf("Save(%s) error = %v", v, err)
		}
	}
	if err := store.Upload(ctx, "notes.txt", strings.NewReader("x"), "text/plain"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	got, err := reg.Versions(ctx)
	if err != nil {
		t.Fatalf("Versions() error = %v", err)
	}
	if diff := cmp.Diff([]string{"1.0.0", "1.1.0"}, got); diff != "" {
		t.Errorf("Versions() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryInstallRejectsInvalid(t *testing.T) {
	reg := classifier.NewRegistry(newStore(t), "1.0.0", discardLogger())
	m := fixtureModel("1.0.0")
	m.Priors = nil

	if err := reg.Install(m); !errors.Is(err, classifier.ErrInvalidModel) {
		t.Errorf("Install() error = %v, want ErrInvalidModel", err)
	}
}

func TestSynthesize(t *testing.T) {
	tables, err := agronomy.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	samples, labels := classifier.Synthesize(tables, 1500, 42)
	if len(samples) != 1500 || len(labels) != 1500 {
		t.Fatalf("got %d samples and %d labels, want 1500", len(samples), len(labels))
	}

	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	for _, name := range tables.CropNames() {
		if counts[name] != 100 {
			t.Errorf("crop %s has %d samples, want 100", name, counts[name])
		}
	}

	again, _ := classifier.Synthesize(tables, 1500, 42)
	if diff := cmp.Diff(samples, again); diff != "" {
		t.Errorf("same seed produced different samples:\n%s", diff)
	}
}

func TestTrain(t *testing.T) {
	tables, err := agronomy.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	samples, labels := classifier.Synthesize(tables, 1500, 42)
	ds, err := classifier.NewDataset(samples, labels)
	if err != nil {
		t.Fatalf("NewDataset() error = %v", err)
	}

	for _, algo := range classifier.Algorithms {
		t.Run(string(algo), func(t *testing.T) {
			opts := classifier.DefaultTrainOptions()
			opts.Algorithm = algo

			m, err := classifier.Train(ds, opts)
			if err != nil {
				t.Fatalf("Train() error = %v", err)
			}
			if len(m.Classes) != len(tables.CropNames()) {
				t.Errorf("classes = %d, want %d", len(m.Classes), len(tables.CropNames()))
			}
			if diff := cmp.Diff(soil.All, m.Features); diff != "" {
				t.Errorf("features mismatch (-want +got):\n%s", diff)
			}

			chance := 1 / float64(len(m.Classes))
			if m.Metrics.Accuracy <= 1.5*chance {
				t.Errorf("accuracy = %.3f, want better than %.3f", m.Metrics.Accuracy, 1.5*chance)
			}

			again, err := classifier.Train(ds, opts)
			if err != nil {
				t.Fatalf("Train() error = %v", err)
			}
			if diff := cmp.Diff(m, again, cmpopts.IgnoreFields(classifier.Model{}, "TrainedAt")); diff != "" {
				t.Errorf("same seed produced different models:\n%s", diff)
			}
		})
	}
}

func TestNewDatasetEmpty(t *testing.T) {
	if _, err := classifier.NewDataset(nil, nil); !errors.Is(err, classifier.ErrEmptyDataset) {
		t.Errorf("NewDataset() error = %v, want ErrEmptyDataset", err)
	}
}

func TestReadCSV(t *testing.T) {
	data := "pH,Nitrogen,phosphorus,potassium,moisture,temperature,organicMatter,crop\n" +
		"6.5,60,30,40,65,25,,Wheat\n" +
		"5.9,90,40,50,70,26,3.2,Rice\n"

	samples, labels, err := classifier.ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	want := []soil.Sample{
		{PH: 6.5, Nitrogen: 60, Phosphorus: 30, Potassium: 40, Moisture: 65, Temperature: 25},
		{PH: 5.9, Nitrogen: 90, Phosphorus: 40, Potassium: 50, Moisture: 70, Temperature: 26, OrganicMatter: soil.Ptr(3.2)},
	}
	if diff := cmp.Diff(want, samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Wheat", "Rice"}, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"no label column", "pH,nitrogen\n6.5,60\n"},
		{"missing required", "pH,crop\n6.5,Wheat\n"},
		{"bad number", "pH,nitrogen,phosphorus,potassium,moisture,temperature,crop\nx,60,30,40,65,25,Wheat\n"},
		{"header only", "pH,nitrogen,phosphorus,potassium,moisture,temperature,crop\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := classifier.ReadCSV(strings.NewReader(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
