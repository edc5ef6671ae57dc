package soil

// Defaults holds the fill value for each optional feature. The same values
// are used for single and batch imputation so that a sample scores the same
// regardless of how it arrives.
var Defaults = map[string]float64{
	OrganicMatter: 5.0,
	Conductivity:  1.0,
	Salinity:      1.0,
}

// Impute returns a copy of s with every unmeasured optional property filled
// from Defaults.
func Impute(s Sample) Sample {
	if s.OrganicMatter == nil {
		s.OrganicMatter = Ptr(Defaults[OrganicMatter])
	}
	if s.Conductivity == nil {
		s.Conductivity = Ptr(Defaults[Conductivity])
	}
	if s.Salinity == nil {
		s.Salinity = Ptr(Defaults[Salinity])
	}
	return s
}

// ImputeBatch applies Impute to every sample.
func ImputeBatch(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	for i, s := range samples {
		out[i] = Impute(s)
	}
	return out
}
