package soil

// Reading is the wire form of a soil measurement as received from clients.
// Every field is a pointer so that an omitted required property can be told
// apart from a zero value.
type Reading struct {
	PH            *float64 `json:"pH" validate:"required,gte=0,lte=14"`
	Nitrogen      *float64 `json:"nitrogen" validate:"required,gte=0"`
	Phosphorus    *float64 `json:"phosphorus" validate:"required,gte=0"`
	Potassium     *float64 `json:"potassium" validate:"required,gte=0"`
	Moisture      *float64 `json:"moisture" validate:"required,gte=0,lte=100"`
	Temperature   *float64 `json:"temperature" validate:"required,gte=-10,lte=60"`
	OrganicMatter *float64 `json:"organicMatter,omitempty" validate:"omitempty,gte=0,lte=100"`
	Conductivity  *float64 `json:"conductivity,omitempty" validate:"omitempty,gte=0"`
	Salinity      *float64 `json:"salinity,omitempty" validate:"omitempty,gte=0"`
}

// Sample converts a validated reading into a Sample. Callers must validate
// the reading first; missing required fields read as zero.
func (r Reading) Sample() Sample {
	return Sample{
		PH:            deref(r.PH),
		Nitrogen:      deref(r.Nitrogen),
		Phosphorus:    deref(r.Phosphorus),
		Potassium:     deref(r.Potassium),
		Moisture:      deref(r.Moisture),
		Temperature:   deref(r.Temperature),
		OrganicMatter: r.OrganicMatter,
		Conductivity:  r.Conductivity,
		Salinity:      r.Salinity,
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// ReadingFrom converts a Sample back to its wire form so that samples built
// outside an HTTP request can pass through the same validation.
func ReadingFrom(s Sample) Reading {
	return Reading{
		PH:            &s.PH,
		Nitrogen:      &s.Nitrogen,
		Phosphorus:    &s.Phosphorus,
		Potassium:     &s.Potassium,
		Moisture:      &s.Moisture,
		Temperature:   &s.Temperature,
		OrganicMatter: s.OrganicMatter,
		Conductivity:  s.Conductivity,
		Salinity:      s.Salinity,
	}
}
