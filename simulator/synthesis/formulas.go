package synthesis

import (
	"math"

	"github.com/RyanBlaney/diesel-sonar/algorithms/common"
	"github.com/RyanBlaney/diesel-sonar/simulator/config"
)

// Closed-form channel models. Noise terms are zero in every model.

// AcousticVoltage is the microphone output at t for the three pressure
// components (Pa), after the source/load impedance divider.
func AcousticVoltage(c config.AcousticConstants, engine, combustion, vibration, t float64) float64 {
	pressure := engine*math.Sin(2*math.Pi*c.EngineFreq*t) +
		combustion*math.Sin(2*math.Pi*c.CombustionFreq*t) +
		vibration*math.Sin(2*math.Pi*c.VibrationFreq*t)
	return c.Sensitivity * pressure * (c.LoadImpedance / (c.LoadImpedance + c.SourceImpedance))
}

// AccelerometerVoltage is the analog output at t for a vibration amplitude
// in g riding on 1 g of gravity.
func AccelerometerVoltage(c config.AccelerometerConstants, amplitude, t float64) float64 {
	accel := amplitude*math.Sin(2*math.Pi*c.VibrationFreq*t) + c.Gravity
	return c.ZeroGOffset + c.Sensitivity*accel
}

// TemperatureCelsius converts a raw sensor code, clamped to the sensor range.
func TemperatureCelsius(c config.TemperatureConstants, raw float64) float64 {
	return common.Clamp(raw, c.RawMin, c.RawMax) * c.LSB
}

// OilCapacitance is the parallel-plate probe capacitance in farads for the
// given vacuum permittivity setting.
func OilCapacitance(c config.OilQualityConstants, epsilon0 float64) float64 {
	return epsilon0 * c.RelativePermittivity * (c.PlateArea / c.PlateDistance)
}

// RPM converts a pulse count over window seconds with pulsesPerRev pulses per
// revolution. A non-positive window or pulse rate gives 0.
func RPM(c config.RPMConstants, count, window, pulsesPerRev float64) float64 {
	if window <= 0 || pulsesPerRev <= 0 {
		return 0
	}
	return c.SecondsPerMinute * (count / (window * pulsesPerRev))
}
