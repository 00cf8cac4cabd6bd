package stability

import (
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/diesel-sonar/algorithms/common"
)

// Config carries the fixed coefficients of the pole placement. The defaults
// reproduce the reference behaviour exactly; they have no physical derivation.
type Config struct {
	SamplingPeriod float64 `json:"-"` // Ts of z = exp(s*Ts)

	CapacitanceMin float64 `json:"capacitance_min"` // F, maps to normCap 0
	CapacitanceMax float64 `json:"capacitance_max"` // F, maps to normCap 1

	SigmaBase          float64 `json:"sigma_base"`
	SigmaCapacitance   float64 `json:"sigma_capacitance"` // subtracted per unit normCap
	SigmaCeiling       float64 `json:"sigma_ceiling"`
	VibrationReference float64 `json:"vibration_reference"` // g
	VibrationGain      float64 `json:"vibration_gain"`

	RPMReference float64 `json:"rpm_reference"`
	OmegaBase    float64 `json:"omega_base"`
	OmegaRPMGain float64 `json:"omega_rpm_gain"`

	StaticPoles []complex128 `json:"-"`
	Zeros       []complex128 `json:"-"`
}

// DefaultConfig returns the reference coefficients
func DefaultConfig() Config {
	return Config{
		SamplingPeriod:     0.1,
		CapacitanceMin:     2.0e-12,
		CapacitanceMax:     3.5e-12,
		SigmaBase:          -0.2,
		SigmaCapacitance:   1.3,
		SigmaCeiling:       -0.1,
		VibrationReference: 3.0,
		VibrationGain:      0.2,
		RPMReference:       3000.0,
		OmegaBase:          1.0,
		OmegaRPMGain:       2.0,
		StaticPoles:        []complex128{complex(-1.0, 0), complex(-0.8, 0.5), complex(-0.8, -0.5)},
		Zeros:              []complex128{complex(0.1, 0), complex(-0.5, 0)},
	}
}

// Input holds the channel readings that drive the dynamic pole pair
type Input struct {
	OilCapacitance float64 `json:"oil_capacitance"` // F
	RPM            float64 `json:"rpm"`
	AccelAmplitude float64 `json:"accel_amplitude"` // g, the accelerometer amplitude parameter
}

// PoleZeroMap is the s-plane pole set and its z-plane image. ZPoles[i] is
// always exp(SPoles[i]*Ts); zeros exist only in the z-plane.
type PoleZeroMap struct {
	SamplingPeriod float64      `json:"sampling_period"`
	SPoles         []complex128 `json:"s_poles"`
	ZPoles         []complex128 `json:"z_poles"`
	ZZeros         []complex128 `json:"z_zeros"`
}

// StableS reports whether every s-plane pole lies in the open left half-plane
func (m *PoleZeroMap) StableS() bool {
	for _, p := range m.SPoles {
		if real(p) >= 0 {
			return false
		}
	}
	return true
}

// StableZ reports whether every z-plane pole lies inside the unit circle
func (m *PoleZeroMap) StableZ() bool {
	for _, p := range m.ZPoles {
		if cmplx.Abs(p) >= 1 {
			return false
		}
	}
	return true
}

// Mapper places the system poles. It is stateless; Map may be called
// concurrently.
type Mapper struct {
	config Config
}

// NewMapper creates a mapper with the given coefficients
func NewMapper(config Config) *Mapper {
	return &Mapper{config: config}
}

// DominantPole returns the upper dynamic pole sigma + j*omega_d
func (m *Mapper) DominantPole(in Input) complex128 {
	c := m.config

	normCap := common.UnitNormalize(in.OilCapacitance, c.CapacitanceMin, c.CapacitanceMax)
	sigma := c.SigmaBase - normCap*c.SigmaCapacitance

	normRPM := math.Min(1, in.RPM/c.RPMReference)
	omega := c.OmegaBase + normRPM*c.OmegaRPMGain

	sigma += (math.Abs(in.AccelAmplitude) / c.VibrationReference) * c.VibrationGain
	sigma = math.Min(sigma, c.SigmaCeiling)

	return complex(sigma, omega)
}

// Map computes the full pole/zero set for in. The s-pole order is fixed:
// dynamic upper, dynamic lower, then the static poles.
func (m *Mapper) Map(in Input) *PoleZeroMap {
	dominant := m.DominantPole(in)

	sPoles := make([]complex128, 0, 2+len(m.config.StaticPoles))
	sPoles = append(sPoles, dominant, cmplx.Conj(dominant))
	sPoles = append(sPoles, m.config.StaticPoles...)

	ts := complex(m.config.SamplingPeriod, 0)
	zPoles := make([]complex128, len(sPoles))
	for i, s := range sPoles {
		zPoles[i] = cmplx.Exp(s * ts)
	}

	zeros := make([]complex128, len(m.config.Zeros))
	copy(zeros, m.config.Zeros)

	return &PoleZeroMap{
		SamplingPeriod: m.config.SamplingPeriod,
		SPoles:         sPoles,
		ZPoles:         zPoles,
		ZZeros:         zeros,
	}
}
