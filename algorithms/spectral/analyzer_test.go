package spectral

import (
	"math"
	"testing"

	"github.com/RyanBlaney/diesel-sonar/algorithms/windowing"
	"github.com/RyanBlaney/diesel-sonar/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func init() {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
}

func newAnalyzer(t *testing.T, cfg Config) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer(%+v): %v", cfg, err)
	}
	return a
}

func sine(n int, rate, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	return out
}

func TestAnalyzeShape(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())

	tests := []struct {
		name     string
		n        int
		rate     float64
		wantSize int
	}{
		{"acoustic", 40000, 40000, 65536},
		{"accelerometer", 3200, 3200, 4096},
		{"slow channels", 1000, 1000, 1024},
		{"single sample", 1, 1000, 1},
		{"exact power of two", 512, 512, 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := a.Analyze(make([]float64, tt.n), tt.rate)
			if err != nil {
				t.Fatal(err)
			}
			if s.FFTSize != tt.wantSize {
				t.Errorf("FFTSize = %d, want %d", s.FFTSize, tt.wantSize)
			}
			if s.Len() != tt.wantSize/2 || len(s.Frequencies) != tt.wantSize/2 {
				t.Errorf("bins = %d/%d, want %d", s.Len(), len(s.Frequencies), tt.wantSize/2)
			}
			for k, f := range s.Frequencies {
				if f != float64(k)*tt.rate/float64(tt.wantSize) {
					t.Fatalf("Frequencies[%d] = %v, want %v", k, f, float64(k)*tt.rate/float64(tt.wantSize))
				}
			}
		})
	}
}

func TestAnalyzeEmptySeries(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())
	s, err := a.Analyze(nil, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 || len(s.Frequencies) != 0 || s.FFTSize != 0 {
		t.Errorf("expected empty spectrum, got %+v", s)
	}
}

func TestAnalyzeZeroSignal(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())
	s, err := a.Analyze(make([]float64, 40000), 40000)
	if err != nil {
		t.Fatal(err)
	}
	if m := floats.Max(s.Magnitudes); m > 1e-15 {
		t.Errorf("max magnitude of zero signal = %v", m)
	}
}

func TestAnalyzeSinusoidAmplitude(t *testing.T) {
	// 1024 samples at 1024 Hz puts 50 Hz exactly on bin 50
	a := newAnalyzer(t, DefaultConfig())
	s, err := a.Analyze(sine(1024, 1024, 50, 2), 1024)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(s.Magnitudes[50], 1.0, 1e-9) {
		t.Errorf("Magnitudes[50] = %v, want 1.0 (amplitude/2)", s.Magnitudes[50])
	}
	if s.Magnitudes[49] > 1e-9 || s.Magnitudes[51] > 1e-9 {
		t.Errorf("leakage into neighbours: %v %v", s.Magnitudes[49], s.Magnitudes[51])
	}

	sum := Summarize(s)
	if sum.PeakFrequency != 50 || sum.Nyquist != 512 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestAnalyzeConstantPaddedDC(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())
	values := make([]float64, 1000)
	floats.AddConst(25.0, values)

	s, err := a.Analyze(values, 1000)
	if err != nil {
		t.Fatal(err)
	}
	want := 25.0 * 1000 / 1024
	if !scalar.EqualWithinAbsOrRel(s.Magnitudes[0], want, 1e-12, 1e-12) {
		t.Errorf("DC = %v, want %v", s.Magnitudes[0], want)
	}
	if got := Summarize(s).DC; got != s.Magnitudes[0] {
		t.Errorf("Summary.DC = %v", got)
	}
}

func TestBackendsAgree(t *testing.T) {
	values := sine(3200, 3200, 50, 0.3)
	floats.AddConst(1.8, values)

	goDSP := newAnalyzer(t, Config{Backend: BackendGoDSP})
	gonum := newAnalyzer(t, Config{Backend: BackendGonum})

	a, err := goDSP.Analyze(values, 3200)
	if err != nil {
		t.Fatal(err)
	}
	b, err := gonum.Analyze(values, 3200)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(a.Magnitudes, b.Magnitudes, 1e-9) {
		t.Error("go-dsp and gonum magnitudes differ")
	}
	if !floats.Equal(a.Frequencies, b.Frequencies) {
		t.Error("frequency axes differ")
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := newAnalyzer(t, DefaultConfig())
	values := sine(40000, 40000, 120, 0.05)

	first, err := a.Analyze(values, 40000)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Analyze(values, 40000)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(first.Magnitudes, second.Magnitudes) {
		t.Error("repeated analysis differs")
	}
}

func TestHannWindowScalesDC(t *testing.T) {
	a := newAnalyzer(t, Config{Window: windowing.Hann})
	values := make([]float64, 1000)
	floats.AddConst(1.0, values)

	s, err := a.Analyze(values, 1000)
	if err != nil {
		t.Fatal(err)
	}
	// periodic Hann coefficients sum to n/2
	want := 500.0 / 1024
	if !scalar.EqualWithinAbs(s.Magnitudes[0], want, 1e-9) {
		t.Errorf("DC = %v, want %v", s.Magnitudes[0], want)
	}
	if values[0] != 1.0 {
		t.Error("window modified the caller's series")
	}
}

func TestNewAnalyzerDefaults(t *testing.T) {
	a := newAnalyzer(t, Config{})
	if a.Config().Backend != BackendGoDSP || a.Config().Window != windowing.Rectangular {
		t.Errorf("defaults not applied: %+v", a.Config())
	}
	if _, err := NewAnalyzer(Config{Backend: "fftw"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := NewAnalyzer(Config{Window: "kaiser"}); err == nil {
		t.Error("expected error for unknown window")
	}
}
