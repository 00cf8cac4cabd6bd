package windowing

import (
	"fmt"
	"math"
)

// Type names a window function
type Type string

const (
	Rectangular Type = "rectangular"
	Hann        Type = "hann"
	Hamming     Type = "hamming"
)

// Window holds the coefficients of a periodic window of a fixed size
type Window struct {
	kind         Type
	coefficients []float64
}

// New creates a periodic window of the given type and size. An empty type
// selects Rectangular.
func New(kind Type, size int) (*Window, error) {
	if size < 0 {
		return nil, fmt.Errorf("window size must be non-negative, got %d", size)
	}
	if kind == "" {
		kind = Rectangular
	}

	coeffs := make([]float64, size)
	n := float64(size)

	switch kind {
	case Rectangular:
		for i := range coeffs {
			coeffs[i] = 1.0
		}
	case Hann:
		for i := range coeffs {
			coeffs[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/n))
		}
	case Hamming:
		for i := range coeffs {
			coeffs[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/n)
		}
	default:
		return nil, fmt.Errorf("unknown window type %q", kind)
	}

	return &Window{kind: kind, coefficients: coeffs}, nil
}

// Apply returns signal multiplied by the window. The lengths must match.
func (w *Window) Apply(signal []float64) ([]float64, error) {
	if len(signal) != len(w.coefficients) {
		return nil, fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(w.coefficients))
	}

	windowed := make([]float64, len(signal))
	if w.kind == Rectangular {
		copy(windowed, signal)
		return windowed, nil
	}
	for i, v := range signal {
		windowed[i] = v * w.coefficients[i]
	}
	return windowed, nil
}

// Coefficients returns a copy of the window coefficients
func (w *Window) Coefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// Size returns the window size
func (w *Window) Size() int {
	return len(w.coefficients)
}

// Type returns the window type
func (w *Window) Type() Type {
	return w.kind
}
