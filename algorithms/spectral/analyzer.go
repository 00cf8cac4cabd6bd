package spectral

import (
	"fmt"
	"math/cmplx"

	"github.com/RyanBlaney/diesel-sonar/algorithms/common"
	"github.com/RyanBlaney/diesel-sonar/algorithms/windowing"
	"github.com/RyanBlaney/diesel-sonar/logging"
)

// Config selects the FFT backend and the analysis window
type Config struct {
	Backend Backend        `json:"backend"`
	Window  windowing.Type `json:"window"`
}

// DefaultConfig returns the go-dsp backend with no windowing
func DefaultConfig() Config {
	return Config{
		Backend: BackendGoDSP,
		Window:  windowing.Rectangular,
	}
}

// Spectrum is a one-sided magnitude spectrum of length FFTSize/2
type Spectrum struct {
	SampleRate  float64   `json:"sample_rate"`
	FFTSize     int       `json:"fft_size"`
	Frequencies []float64 `json:"frequencies"` // Hz, bin k = k*SampleRate/FFTSize
	Magnitudes  []float64 `json:"magnitudes"`  // |X[k]| / FFTSize
}

// Len returns the number of frequency bins
func (s *Spectrum) Len() int {
	return len(s.Magnitudes)
}

// Resolution returns the bin spacing in Hz
func (s *Spectrum) Resolution() float64 {
	if s.FFTSize == 0 {
		return 0
	}
	return s.SampleRate / float64(s.FFTSize)
}

// Analyzer turns a uniformly sampled series into a zero-padded, one-sided
// magnitude spectrum. It holds no per-call state.
type Analyzer struct {
	config Config
	fft    *FFT
	logger logging.Logger
}

// NewAnalyzer creates an analyzer for the given configuration
func NewAnalyzer(config Config) (*Analyzer, error) {
	fftCalc, err := NewFFT(config.Backend)
	if err != nil {
		return nil, err
	}
	config.Backend = fftCalc.Backend()

	// validate the window type once up front
	if _, err := windowing.New(config.Window, 0); err != nil {
		return nil, err
	}
	if config.Window == "" {
		config.Window = windowing.Rectangular
	}

	return &Analyzer{
		config: config,
		fft:    fftCalc,
		logger: logging.WithFields(logging.Fields{
			"component": "spectral_analyzer",
			"backend":   string(config.Backend),
			"window":    string(config.Window),
		}),
	}, nil
}

// Config returns the analyzer configuration
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze computes the spectrum of values sampled at sampleRate. The series
// is zero-padded to the next power of two. An empty series yields an empty
// spectrum.
func (a *Analyzer) Analyze(values []float64, sampleRate float64) (*Spectrum, error) {
	n := len(values)
	if n == 0 {
		return &Spectrum{
			SampleRate:  sampleRate,
			Frequencies: []float64{},
			Magnitudes:  []float64{},
		}, nil
	}

	fftSize := common.NextPowerOfTwo(n)

	input := values
	if a.config.Window != windowing.Rectangular {
		w, err := windowing.New(a.config.Window, n)
		if err != nil {
			return nil, err
		}
		if input, err = w.Apply(values); err != nil {
			return nil, fmt.Errorf("apply window: %w", err)
		}
	}

	coeffs := a.fft.Forward(common.ZeroPad(input, fftSize))

	bins := fftSize / 2
	spectrum := &Spectrum{
		SampleRate:  sampleRate,
		FFTSize:     fftSize,
		Frequencies: make([]float64, bins),
		Magnitudes:  make([]float64, bins),
	}
	scale := float64(fftSize)
	for k := 0; k < bins; k++ {
		spectrum.Frequencies[k] = float64(k) * sampleRate / scale
		spectrum.Magnitudes[k] = cmplx.Abs(coeffs[k]) / scale
	}

	a.logger.Debug("Spectrum computed", logging.Fields{
		"samples":  n,
		"fft_size": fftSize,
		"bins":     bins,
	})

	return spectrum, nil
}
