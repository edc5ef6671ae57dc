package soil_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/soilguardian/internal/soil"
)

func TestNormalizeBounds(t *testing.T) {
	tests := []struct {
		name    string
		feature string
		value   float64
		want    float64
	}{
		{"pH at min", soil.PH, 0, 0},
		{"pH at max", soil.PH, 14, 1},
		{"pH midpoint", soil.PH, 7, 0.5},
		{"nitrogen above max clips", soil.Nitrogen, 250, 1},
		{"temperature below min clips", soil.Temperature, -5, 0},
		{"salinity inside", soil.Salinity, 1.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := soil.Normalize(soil.Features{tt.feature: tt.value}, soil.Ranges)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if math.Abs(got[tt.feature]-tt.want) > 1e-9 {
				t.Errorf("Normalize()[%s] = %v, want %v", tt.feature, got[tt.feature], tt.want)
			}
		})
	}
}

func TestNormalizeAllWithinUnitInterval(t *testing.T) {
	f := soil.Features{
		soil.PH:            -3,
		soil.Nitrogen:      1e6,
		soil.Phosphorus:    75,
		soil.Potassium:     -1,
		soil.Moisture:      101,
		soil.Temperature:   60,
		soil.OrganicMatter: 10,
		soil.Conductivity:  9,
		soil.Salinity:      0,
	}

	got, err := soil.Normalize(f, soil.Ranges)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	for name, v := range got {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v, outside [0, 1]", name, v)
		}
	}
}

func TestNormalizePassesThroughUnknownFeatures(t *testing.T) {
	got, err := soil.Normalize(soil.Features{"elevation": 1200}, soil.Ranges)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got["elevation"] != 1200 {
		t.Errorf("elevation = %v, want 1200", got["elevation"])
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := soil.Features{soil.PH: 7}
	if _, err := soil.Normalize(in, soil.Ranges); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if in[soil.PH] != 7 {
		t.Errorf("input mutated: pH = %v", in[soil.PH])
	}
}

func TestNormalizeZeroWidthRange(t *testing.T) {
	ranges := map[string]soil.Range{soil.PH: {Min: 5, Max: 5}}

	_, err := soil.Normalize(soil.Features{soil.PH: 5}, ranges)
	if !errors.Is(err, soil.ErrInvalidRange) {
		t.Fatalf("Normalize() error = %v, want ErrInvalidRange", err)
	}
}

func TestImpute(t *testing.T) {
	om := 3.2
	s := soil.Sample{PH: 6.5, OrganicMatter: &om}

	got := soil.Impute(s)

	if *got.OrganicMatter != 3.2 {
		t.Errorf("OrganicMatter = %v, want measured 3.2", *got.OrganicMatter)
	}
	if *got.Conductivity != 1.0 {
		t.Errorf("Conductivity = %v, want 1.0", *got.Conductivity)
	}
	if *got.Salinity != 1.0 {
		t.Errorf("Salinity = %v, want 1.0", *got.Salinity)
	}
	if s.Conductivity != nil {
		t.Error("Impute mutated its input")
	}
}

func TestImputeBatchMatchesSingle(t *testing.T) {
	samples := []soil.Sample{
		{PH: 6.0, OrganicMatter: soil.Ptr(12)},
		{PH: 7.0},
	}

	batch := soil.ImputeBatch(samples)
	for i, s := range samples {
		if diff := cmp.Diff(soil.Impute(s), batch[i]); diff != "" {
			t.Errorf("sample %d mismatch (-single +batch):\n%s", i, diff)
		}
	}
}

func TestSampleFeaturesOmitsUnmeasured(t *testing.T) {
	s := soil.Sample{PH: 6.5, Salinity: soil.Ptr(0.4)}
	f := s.Features()

	if _, ok := f[soil.OrganicMatter]; ok {
		t.Error("organicMatter should be absent")
	}
	if f[soil.Salinity] != 0.4 {
		t.Errorf("salinity = %v, want 0.4", f[soil.Salinity])
	}
	if len(f) != len(soil.Required)+1 {
		t.Errorf("len(features) = %d, want %d", len(f), len(soil.Required)+1)
	}
}

func TestSampleValidate(t *testing.T) {
	tests := []struct {
		name    string
		sample  soil.Sample
		wantErr bool
	}{
		{"finite", soil.Sample{PH: 6.5, Moisture: 40}, false},
		{"NaN required", soil.Sample{PH: math.NaN()}, true},
		{"Inf optional", soil.Sample{Conductivity: soil.Ptr(math.Inf(1))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, soil.ErrInvalidValue) {
				t.Errorf("Validate() error = %v, want ErrInvalidValue", err)
			}
		})
	}
}

func TestFromFeatures(t *testing.T) {
	f := soil.Features{
		soil.PH: 6.5, soil.Nitrogen: 60, soil.Phosphorus: 30,
		soil.Potassium: 80, soil.Moisture: 55, soil.Temperature: 20,
		soil.Salinity: 0.5,
	}

	s, err := soil.FromFeatures(f)
	if err != nil {
		t.Fatalf("FromFeatures() error = %v", err)
	}
	if diff := cmp.Diff(f, s.Features()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	delete(f, soil.Moisture)
	if _, err := soil.FromFeatures(f); !errors.Is(err, soil.ErrInvalidValue) {
		t.Errorf("FromFeatures() without moisture error = %v, want ErrInvalidValue", err)
	}
}

func TestReadingSample(t *testing.T) {
	r := soil.Reading{
		PH:          soil.Ptr(6.2),
		Nitrogen:    soil.Ptr(40),
		Phosphorus:  soil.Ptr(20),
		Potassium:   soil.Ptr(90),
		Moisture:    soil.Ptr(55),
		Temperature: soil.Ptr(22),
	}

	want := soil.Sample{PH: 6.2, Nitrogen: 40, Phosphorus: 20, Potassium: 90, Moisture: 55, Temperature: 22}
	if diff := cmp.Diff(want, r.Sample()); diff != "" {
		t.Errorf("Sample() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadingFromRoundTrip(t *testing.T) {
	want := soil.Sample{
		PH: 7.1, Nitrogen: 60, Phosphorus: 25, Potassium: 110, Moisture: 48, Temperature: 19,
		Salinity: soil.Ptr(0.4),
	}

	r := soil.ReadingFrom(want)
	if r.OrganicMatter != nil {
		t.Error("unmeasured organic matter should stay nil")
	}
	if diff := cmp.Diff(want, r.Sample()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
