package spectral

import (
	"gonum.org/v1/gonum/floats"
)

// Summary condenses a spectrum into the few numbers a display needs
type Summary struct {
	DC            float64 `json:"dc"`
	PeakFrequency float64 `json:"peak_frequency"` // strongest non-DC bin
	PeakMagnitude float64 `json:"peak_magnitude"`
	Nyquist       float64 `json:"nyquist"`
}

// Summarize extracts DC level, dominant non-DC component and Nyquist limit.
// With fewer than two bins the peak fields stay zero.
func Summarize(s *Spectrum) Summary {
	summary := Summary{Nyquist: s.SampleRate / 2}
	if s.Len() == 0 {
		return summary
	}

	summary.DC = s.Magnitudes[0]
	if s.Len() < 2 {
		return summary
	}

	idx := floats.MaxIdx(s.Magnitudes[1:]) + 1
	summary.PeakFrequency = s.Frequencies[idx]
	summary.PeakMagnitude = s.Magnitudes[idx]
	return summary
}
