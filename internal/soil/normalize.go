package soil

import "fmt"

// Range is a closed reference interval used for min-max scaling.
type Range struct {
	Min float64
	Max float64
}

// Width returns Max - Min.
func (r Range) Width() float64 {
	return r.Max - r.Min
}

// Ranges holds the reference interval of every known feature.
var Ranges = map[string]Range{
	PH:            {Min: 0, Max: 14},
	Nitrogen:      {Min: 0, Max: 200},
	Phosphorus:    {Min: 0, Max: 150},
	Potassium:     {Min: 0, Max: 300},
	Moisture:      {Min: 0, Max: 100},
	Temperature:   {Min: 0, Max: 50},
	OrganicMatter: {Min: 0, Max: 20},
	Conductivity:  {Min: 0, Max: 5},
	Salinity:      {Min: 0, Max: 3},
}

// Normalize scales every feature that has a reference range into [0, 1],
// clipping values outside the range. Features without a range are copied
// unchanged. The input is not modified.
//
// A range whose width is zero or negative fails with ErrInvalidRange before
// any scaling is attempted.
func Normalize(f Features, ranges map[string]Range) (Features, error) {
	for name := range f {
		if r, ok := ranges[name]; ok && r.Width() <= 0 {
			return nil, fmt.Errorf("%w: %s [%v, %v]", ErrInvalidRange, name, r.Min, r.Max)
		}
	}

	out := make(Features, len(f))
	for name, v := range f {
		r, ok := ranges[name]
		if !ok {
			out[name] = v
			continue
		}
		out[name] = clip((v-r.Min)/r.Width(), 0, 1)
	}
	return out, nil
}

func clip(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
