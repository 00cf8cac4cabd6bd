package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Small numeric helpers shared by the spectral, stability and synthesis code

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, 2) / math.Sqrt(float64(len(data)))
}

// Clamp constrains a value to [lo, hi]
func Clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// UnitNormalize maps value from [lo, hi] onto [0, 1], clamping outside the range.
func UnitNormalize(value, lo, hi float64) float64 {
	return Clamp((value-lo)/(hi-lo), 0, 1)
}

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo finds the smallest power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	if IsPowerOfTwo(n) {
		return n
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

// ZeroPad returns a copy of data extended with trailing zeros to length n.
// If n <= len(data) the copy is returned unpadded.
func ZeroPad(data []float64, n int) []float64 {
	padded := make([]float64, max(n, len(data)))
	copy(padded, data)
	return padded
}

// TimeGrid returns n instants t_i = i*step. Each instant is computed from i
// directly so no error accumulates along the grid.
func TimeGrid(n int, step float64) []float64 {
	if n <= 0 {
		return []float64{}
	}
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * step
	}
	return times
}
