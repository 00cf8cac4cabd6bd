package simulator

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/diesel-sonar/simulator/config"
	"github.com/RyanBlaney/diesel-sonar/simulator/parameters"
)

// Formula renders a channel's model with its current parameter values.
// The text is for display only.
func (s *Simulator) Formula(channel config.ChannelID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formula(channel)
}

// SystemFormula renders the output vector y(t) of all five channels.
func (s *Simulator) SystemFormula() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.displayValues()
	if err != nil {
		return "", err
	}
	c := s.config.Constants

	var b strings.Builder
	b.WriteString("y(t) = [\n")
	fmt.Fprintf(&b, "   RPM      = %.0f * %s / (%s * %s)\n",
		c.RPM.SecondsPerMinute, v[config.ParamPulseCount], v[config.ParamWindow], v[config.ParamPulsesPerRev])
	fmt.Fprintf(&b, "   V_accel  = %.1f + %.3f * (%s*sin(2π*%.0ft) + %.1fg)\n",
		c.Accelerometer.ZeroGOffset, c.Accelerometer.Sensitivity, v[config.ParamAccelAmplitude],
		c.Accelerometer.VibrationFreq, c.Accelerometer.Gravity)
	fmt.Fprintf(&b, "   T_temp   = %s * %.4f\n", v[config.ParamTemperatureRaw], c.Temperature.LSB)
	fmt.Fprintf(&b, "   V_sound  = %.4f * (%s) * (%.0f / (%.0f + %.0f))\n",
		c.Acoustic.Sensitivity, s.pressureTerm(v), c.Acoustic.LoadImpedance, c.Acoustic.LoadImpedance, c.Acoustic.SourceImpedance)
	fmt.Fprintf(&b, "   C_oil    = %s * %.1f * %.1e / %.1e\n",
		v[config.ParamPermittivity], c.OilQuality.RelativePermittivity, c.OilQuality.PlateArea, c.OilQuality.PlateDistance)
	b.WriteString("]\n")
	return b.String(), nil
}

func (s *Simulator) formula(channel config.ChannelID) (string, error) {
	v, err := s.displayValues()
	if err != nil {
		return "", err
	}
	c := s.config.Constants

	var b strings.Builder
	switch channel {
	case config.ChannelAcoustic:
		b.WriteString("v_out(t) = S * P_total(t) * (RL / (RL + Rs))\n")
		fmt.Fprintf(&b, "S = %.4f V/Pa\n", c.Acoustic.Sensitivity)
		fmt.Fprintf(&b, "Rs = %.0f Ω\n", c.Acoustic.SourceImpedance)
		fmt.Fprintf(&b, "RL = %.0f Ω\n", c.Acoustic.LoadImpedance)
		fmt.Fprintf(&b, "P_total(t) = %s", s.pressureTerm(v))

	case config.ChannelAccelerometer:
		b.WriteString("V_out(t) = V0 + S * a(t)\n")
		fmt.Fprintf(&b, "V0 = %.1f V\n", c.Accelerometer.ZeroGOffset)
		fmt.Fprintf(&b, "S = %.3f V/g\n", c.Accelerometer.Sensitivity)
		fmt.Fprintf(&b, "a(t) = %sg*sin(2π*%.0ft) + %.1fg",
			v[config.ParamAccelAmplitude], c.Accelerometer.VibrationFreq, c.Accelerometer.Gravity)

	case config.ChannelTemperature:
		b.WriteString("T(°C) = raw * LSB\n")
		fmt.Fprintf(&b, "LSB = %.4f °C\n", c.Temperature.LSB)
		fmt.Fprintf(&b, "raw = %s (range %.0f to %.0f)", v[config.ParamTemperatureRaw], c.Temperature.RawMin, c.Temperature.RawMax)

	case config.ChannelOilQuality:
		b.WriteString("C = ε0 * εr * (A / d)\n")
		fmt.Fprintf(&b, "ε0 = %s F/m\n", v[config.ParamPermittivity])
		fmt.Fprintf(&b, "εr = %.1f\n", c.OilQuality.RelativePermittivity)
		fmt.Fprintf(&b, "A = %.1e m²\n", c.OilQuality.PlateArea)
		fmt.Fprintf(&b, "d = %.1e m", c.OilQuality.PlateDistance)

	case config.ChannelRPM:
		b.WriteString("RPM = 60 * (count / (T_win * N))\n")
		fmt.Fprintf(&b, "count = %s pulses\n", v[config.ParamPulseCount])
		fmt.Fprintf(&b, "T_win = %s s\n", v[config.ParamWindow])
		fmt.Fprintf(&b, "N = %s pulses/rev", v[config.ParamPulsesPerRev])

	default:
		return "", fmt.Errorf("%w: unknown channel %q", parameters.ErrParameterNotFound, channel)
	}

	return b.String(), nil
}

func (s *Simulator) pressureTerm(v map[string]string) string {
	c := s.config.Constants.Acoustic
	return fmt.Sprintf("%s*sin(2π*%.0ft) + %s*sin(2π*%.0ft) + %s*sin(2π*%.0ft)",
		v[config.ParamEngineAmplitude], c.EngineFreq,
		v[config.ParamCombustionAmplitude], c.CombustionFreq,
		v[config.ParamVibrationAmplitude], c.VibrationFreq)
}

// displayValues formats every parameter with its display format, keyed by
// name. Parameter names are unique across the default channels.
func (s *Simulator) displayValues() (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range config.AllChannels {
		params, err := s.store.Parameters(id)
		if err != nil {
			return nil, err
		}
		for _, p := range params {
			out[p.Name] = p.Display()
		}
	}
	return out, nil
}
