package spectral

import (
	"fmt"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend selects the FFT implementation
type Backend string

const (
	BackendGoDSP Backend = "go-dsp"
	BackendGonum Backend = "gonum"
)

// FFT computes unnormalized forward transforms of real sequences
type FFT struct {
	backend Backend

	mu    sync.Mutex
	plans map[int]*fourier.FFT // gonum plans keep work buffers, so reuse is serialised by mu
}

// NewFFT creates an FFT calculator. An empty backend selects go-dsp.
func NewFFT(backend Backend) (*FFT, error) {
	switch backend {
	case "":
		backend = BackendGoDSP
	case BackendGoDSP, BackendGonum:
	default:
		return nil, fmt.Errorf("unknown FFT backend %q", backend)
	}

	return &FFT{
		backend: backend,
		plans:   make(map[int]*fourier.FFT),
	}, nil
}

// Backend returns the selected implementation
func (f *FFT) Backend() Backend {
	return f.backend
}

// Forward returns the non-negative frequency half of the transform of x:
// coefficients X[0..len(x)/2], i.e. len(x)/2+1 values.
func (f *FFT) Forward(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	if f.backend == BackendGonum {
		return f.forwardGonum(x)
	}

	// go-dsp returns the full two-sided transform
	full := fft.FFTReal(x)
	return full[:len(x)/2+1]
}

func (f *FFT) forwardGonum(x []float64) []complex128 {
	f.mu.Lock()
	defer f.mu.Unlock()

	plan, ok := f.plans[len(x)]
	if !ok {
		plan = fourier.NewFFT(len(x))
		f.plans[len(x)] = plan
	}
	return plan.Coefficients(nil, x)
}
