package common

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 1},
		{1, 1},
		{3, 4},
		{1000, 1024},
		{1024, 1024},
		{3200, 4096},
		{40000, 65536},
	}
	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.n, got, tt.want)
		}
		if tt.n > 0 && !IsPowerOfTwo(NextPowerOfTwo(tt.n)) {
			t.Errorf("NextPowerOfTwo(%d) is not a power of two", tt.n)
		}
	}
}

func TestClampAndUnitNormalize(t *testing.T) {
	if got := Clamp(5000, -880, 2000); got != 2000 {
		t.Errorf("Clamp above range = %v", got)
	}
	if got := Clamp(-1000, -880, 2000); got != -880 {
		t.Errorf("Clamp below range = %v", got)
	}
	if got := UnitNormalize(2.75e-12, 2.0e-12, 3.5e-12); !scalar.EqualWithinAbs(got, 0.5, 1e-12) {
		t.Errorf("UnitNormalize midpoint = %v", got)
	}
	if got := UnitNormalize(1e-12, 2.0e-12, 3.5e-12); got != 0 {
		t.Errorf("UnitNormalize below range = %v", got)
	}
	if got := UnitNormalize(9e-12, 2.0e-12, 3.5e-12); got != 1 {
		t.Errorf("UnitNormalize above range = %v", got)
	}
}

func TestZeroPad(t *testing.T) {
	got := ZeroPad([]float64{1, 2, 3}, 4)
	want := []float64{1, 2, 3, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTimeGridHasNoDrift(t *testing.T) {
	n := 40000
	step := 1.0 / float64(n)
	grid := TimeGrid(n, step)

	if len(grid) != n {
		t.Fatalf("len = %d, want %d", len(grid), n)
	}
	for _, i := range []int{0, 1, 12345, n - 1} {
		if grid[i] != float64(i)*step {
			t.Errorf("grid[%d] = %v, want %v", i, grid[i], float64(i)*step)
		}
	}
}

func TestMeanAndRMS(t *testing.T) {
	data := []float64{1, -1, 1, -1}
	if got := Mean(data); got != 0 {
		t.Errorf("Mean = %v", got)
	}
	if got := RMS(data); math.Abs(got-1) > 1e-12 {
		t.Errorf("RMS = %v", got)
	}
	if Mean(nil) != 0 || RMS(nil) != 0 {
		t.Error("empty input should give 0")
	}
}
