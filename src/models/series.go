package models

// -----------------------------------------------------------------------------
// Historical series, as served by /charts/stock/{symbol}.
// Every channel is index-aligned with Labels; history grows by append only.
// -----------------------------------------------------------------------------

// PriceChannel is the channel name carrying the price samples.
const PriceChannel = "Price"

type MSeries struct {
	Title    string               `json:"title"`
	Labels   []string             `json:"labels"`
	Channels map[string][]float64 `json:"channels"`
}

// -----------------------------------------------------------------------------

// Prices returns the price channel, or nil when absent.
func (s *MSeries) Prices() []float64 {
	if s == nil || s.Channels == nil {
		return nil
	}
	return s.Channels[PriceChannel]
}

// -----------------------------------------------------------------------------

// Len returns the number of samples (labels) in the series.
func (s *MSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Labels)
}

// -----------------------------------------------------------------------------

// Append adds one sample to the series, keeping all channels aligned.
// Channels missing a value for this sample get 0 to preserve alignment.
func (s *MSeries) Append(label string, values map[string]float64) {
	s.Labels = append(s.Labels, label)
	if s.Channels == nil {
		s.Channels = make(map[string][]float64)
	}
	for name := range s.Channels {
		v, ok := values[name]
		if !ok {
			v = 0
		}
		s.Channels[name] = append(s.Channels[name], v)
	}
	// New channels introduced by this sample are backfilled with zeros.
	for name, v := range values {
		if _, ok := s.Channels[name]; !ok {
			padded := make([]float64, len(s.Labels))
			padded[len(s.Labels)-1] = v
			s.Channels[name] = padded
		}
	}
}

// -----------------------------------------------------------------------------

// Aligned reports whether every channel has exactly one value per label.
func (s *MSeries) Aligned() bool {
	for _, ch := range s.Channels {
		if len(ch) != len(s.Labels) {
			return false
		}
	}
	return true
}
