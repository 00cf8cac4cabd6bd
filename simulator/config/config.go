package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/RyanBlaney/diesel-sonar/algorithms/spectral"
	"github.com/RyanBlaney/diesel-sonar/algorithms/stability"
)

// ErrInvalidConfig is returned by Validate for inconsistent configurations
var ErrInvalidConfig = errors.New("invalid simulator config")

// ChannelID identifies an instrumented channel
type ChannelID string

const (
	ChannelAcoustic      ChannelID = "acoustic"
	ChannelAccelerometer ChannelID = "accelerometer"
	ChannelTemperature   ChannelID = "temperature"
	ChannelOilQuality    ChannelID = "oil_quality"
	ChannelRPM           ChannelID = "rpm"
)

// AllChannels lists the channels in display order
var AllChannels = []ChannelID{
	ChannelAcoustic,
	ChannelAccelerometer,
	ChannelTemperature,
	ChannelOilQuality,
	ChannelRPM,
}

// Parameter names. Lookups are exact and case-sensitive.
const (
	ParamEngineAmplitude     = "P_engine"
	ParamCombustionAmplitude = "P_combustion"
	ParamVibrationAmplitude  = "P_vibration"
	ParamAccelAmplitude      = "a_vibration"
	ParamTemperatureRaw      = "raw"
	ParamPermittivity        = "epsilon0"
	ParamPulseCount          = "count"
	ParamWindow              = "T_win"
	ParamPulsesPerRev        = "N_pulses"
)

// RequiredParameters lists the parameters each channel model reads
var RequiredParameters = map[ChannelID][]string{
	ChannelAcoustic:      {ParamEngineAmplitude, ParamCombustionAmplitude, ParamVibrationAmplitude},
	ChannelAccelerometer: {ParamAccelAmplitude},
	ChannelTemperature:   {ParamTemperatureRaw},
	ChannelOilQuality:    {ParamPermittivity},
	ChannelRPM:           {ParamPulseCount, ParamWindow, ParamPulsesPerRev},
}

// ParameterDefinition describes one adjustable parameter. The engineering
// value is RawDefault*ScaleFactor until the first update.
type ParameterDefinition struct {
	Name          string  `json:"name"`
	RawMin        int     `json:"raw_min"`
	RawMax        int     `json:"raw_max"`
	RawDefault    int     `json:"raw_default"`
	ScaleFactor   float64 `json:"scale_factor"`
	DisplayFormat string  `json:"display_format"` // fmt verb for presentation
}

// ChannelConfig describes one channel
type ChannelConfig struct {
	ID         ChannelID             `json:"id"`
	Label      string                `json:"label"`
	SampleRate float64               `json:"sample_rate"` // Hz
	Parameters []ParameterDefinition `json:"parameters"`
}

// AcousticConstants are the microphone front-end constants
type AcousticConstants struct {
	Sensitivity     float64 `json:"sensitivity"`      // V/Pa
	SourceImpedance float64 `json:"source_impedance"` // Ohm
	LoadImpedance   float64 `json:"load_impedance"`   // Ohm
	EngineFreq      float64 `json:"engine_freq"`      // Hz
	CombustionFreq  float64 `json:"combustion_freq"`  // Hz
	VibrationFreq   float64 `json:"vibration_freq"`   // Hz
}

// AccelerometerConstants are the ADXL335-style analog accelerometer constants
type AccelerometerConstants struct {
	ZeroGOffset   float64 `json:"zero_g_offset"` // V
	Sensitivity   float64 `json:"sensitivity"`   // V/g
	VibrationFreq float64 `json:"vibration_freq"`
	Gravity       float64 `json:"gravity"` // g
}

// TemperatureConstants are the DS18B20-style digital thermometer constants
type TemperatureConstants struct {
	LSB    float64 `json:"lsb"` // degC per count
	RawMin float64 `json:"raw_min"`
	RawMax float64 `json:"raw_max"`
}

// OilQualityConstants describe the capacitive oil probe geometry
type OilQualityConstants struct {
	RelativePermittivity float64 `json:"relative_permittivity"`
	PlateArea            float64 `json:"plate_area"`     // m^2
	PlateDistance        float64 `json:"plate_distance"` // m
}

// RPMConstants hold the pulse-count conversion factor
type RPMConstants struct {
	SecondsPerMinute float64 `json:"seconds_per_minute"`
}

// PhysicalConstants groups the immutable per-channel constants
type PhysicalConstants struct {
	Acoustic      AcousticConstants      `json:"acoustic"`
	Accelerometer AccelerometerConstants `json:"accelerometer"`
	Temperature   TemperatureConstants   `json:"temperature"`
	OilQuality    OilQualityConstants    `json:"oil_quality"`
	RPM           RPMConstants           `json:"rpm"`
}

// SimulatorConfig is the complete simulator configuration
type SimulatorConfig struct {
	Duration  float64           `json:"duration"` // seconds of simulated signal per recompute
	Channels  []ChannelConfig   `json:"channels"`
	Constants PhysicalConstants `json:"constants"`
	Spectrum  spectral.Config   `json:"spectrum"`
	Stability stability.Config  `json:"stability"`
}

// DefaultPhysicalConstants returns the sensor datasheet constants
func DefaultPhysicalConstants() PhysicalConstants {
	return PhysicalConstants{
		Acoustic: AcousticConstants{
			Sensitivity:     0.0126,
			SourceImpedance: 300.0,
			LoadImpedance:   1_000_000.0,
			EngineFreq:      25.0,
			CombustionFreq:  50.0,
			VibrationFreq:   120.0,
		},
		Accelerometer: AccelerometerConstants{
			ZeroGOffset:   1.5,
			Sensitivity:   0.300,
			VibrationFreq: 50.0,
			Gravity:       1.0,
		},
		Temperature: TemperatureConstants{
			LSB:    0.0625,
			RawMin: -880,
			RawMax: 2000,
		},
		OilQuality: OilQualityConstants{
			RelativePermittivity: 2.3,
			PlateArea:            2e-4,
			PlateDistance:        2e-3,
		},
		RPM: RPMConstants{
			SecondsPerMinute: 60.0,
		},
	}
}

// DefaultChannels returns the five channels with their default parameters
func DefaultChannels() []ChannelConfig {
	return []ChannelConfig{
		{
			ID:         ChannelAcoustic,
			Label:      "Acoustic (AMM-3738-B-R)",
			SampleRate: 40000,
			Parameters: []ParameterDefinition{
				{Name: ParamEngineAmplitude, RawMin: 0, RawMax: 100, RawDefault: 10, ScaleFactor: 0.01, DisplayFormat: "%.2f"},
				{Name: ParamCombustionAmplitude, RawMin: 0, RawMax: 100, RawDefault: 5, ScaleFactor: 0.005, DisplayFormat: "%.3f"},
				{Name: ParamVibrationAmplitude, RawMin: 0, RawMax: 100, RawDefault: 7, ScaleFactor: 0.007, DisplayFormat: "%.3f"},
			},
		},
		{
			ID:         ChannelAccelerometer,
			Label:      "Accelerometer (ADXL335)",
			SampleRate: 3200,
			Parameters: []ParameterDefinition{
				{Name: ParamAccelAmplitude, RawMin: -300, RawMax: 300, RawDefault: 0, ScaleFactor: 0.01, DisplayFormat: "%.2f"},
			},
		},
		{
			ID:         ChannelTemperature,
			Label:      "Temperature (DS18B20)",
			SampleRate: 1000,
			Parameters: []ParameterDefinition{
				{Name: ParamTemperatureRaw, RawMin: -880, RawMax: 2000, RawDefault: 400, ScaleFactor: 1.0, DisplayFormat: "%.0f"},
			},
		},
		{
			ID:         ChannelOilQuality,
			Label:      "Oil Quality (capacitive probe + AD7745)",
			SampleRate: 1000,
			Parameters: []ParameterDefinition{
				{Name: ParamPermittivity, RawMin: 10, RawMax: 150, RawDefault: 88, ScaleFactor: 1e-13, DisplayFormat: "%.2e"},
			},
		},
		{
			ID:         ChannelRPM,
			Label:      "RPM (Hall effect A3144)",
			SampleRate: 1000,
			Parameters: []ParameterDefinition{
				{Name: ParamPulseCount, RawMin: 0, RawMax: 200, RawDefault: 100, ScaleFactor: 1.0, DisplayFormat: "%.0f"},
				{Name: ParamWindow, RawMin: 1, RawMax: 100, RawDefault: 10, ScaleFactor: 0.1, DisplayFormat: "%.1f"},
				{Name: ParamPulsesPerRev, RawMin: 1, RawMax: 10, RawDefault: 4, ScaleFactor: 1.0, DisplayFormat: "%.0f"},
			},
		},
	}
}

// DefaultSimulatorConfig returns the reference configuration
func DefaultSimulatorConfig() *SimulatorConfig {
	return &SimulatorConfig{
		Duration:  1.0,
		Channels:  DefaultChannels(),
		Constants: DefaultPhysicalConstants(),
		Spectrum:  spectral.DefaultConfig(),
		Stability: stability.DefaultConfig(),
	}
}

// LoadConfig reads a JSON file over the defaults. Fields absent from the
// file keep their default values. A channels array decides which channels
// and parameters exist; each entry is matched to its default by id, and
// each parameter by name, before the file's fields are applied.
func LoadConfig(path string) (*SimulatorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var overlay struct {
		Channels []json.RawMessage `json:"channels"`
	}
	if err := json.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := DefaultSimulatorConfig()
	defaults := cfg.Channels
	cfg.Channels = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Channels = defaults
	if overlay.Channels != nil {
		if cfg.Channels, err = overlayChannels(defaults, overlay.Channels); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlayChannels(defaults []ChannelConfig, entries []json.RawMessage) ([]ChannelConfig, error) {
	byID := make(map[ChannelID]ChannelConfig, len(defaults))
	for _, ch := range defaults {
		byID[ch.ID] = ch
	}

	out := make([]ChannelConfig, 0, len(entries))
	for _, raw := range entries {
		var head struct {
			ID         ChannelID         `json:"id"`
			Parameters []json.RawMessage `json:"parameters"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, err
		}

		ch := byID[head.ID]
		defaultParams := ch.Parameters
		ch.Parameters = nil
		if err := json.Unmarshal(raw, &ch); err != nil {
			return nil, err
		}

		ch.Parameters = defaultParams
		if head.Parameters != nil {
			params, err := overlayParameters(defaultParams, head.Parameters)
			if err != nil {
				return nil, fmt.Errorf("channel %q: %w", head.ID, err)
			}
			ch.Parameters = params
		}
		out = append(out, ch)
	}
	return out, nil
}

func overlayParameters(defaults []ParameterDefinition, entries []json.RawMessage) ([]ParameterDefinition, error) {
	byName := make(map[string]ParameterDefinition, len(defaults))
	for _, p := range defaults {
		byName[p.Name] = p
	}

	out := make([]ParameterDefinition, 0, len(entries))
	for _, raw := range entries {
		var head struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, err
		}
		p := byName[head.Name]
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Channel returns the configuration of id
func (c *SimulatorConfig) Channel(id ChannelID) (*ChannelConfig, bool) {
	for i := range c.Channels {
		if c.Channels[i].ID == id {
			return &c.Channels[i], true
		}
	}
	return nil, false
}

// Validate checks that every known channel is present exactly once with
// positive sample rate and uniquely named parameters, including every
// parameter its model reads.
func (c *SimulatorConfig) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidConfig, c.Duration)
	}
	if c.Stability.SamplingPeriod <= 0 {
		return fmt.Errorf("%w: stability sampling period must be positive", ErrInvalidConfig)
	}
	if c.Stability.CapacitanceMax <= c.Stability.CapacitanceMin {
		return fmt.Errorf("%w: capacitance range is empty", ErrInvalidConfig)
	}

	seen := make(map[ChannelID]bool, len(c.Channels))
	for _, ch := range c.Channels {
		if seen[ch.ID] {
			return fmt.Errorf("%w: channel %q declared twice", ErrInvalidConfig, ch.ID)
		}
		seen[ch.ID] = true

		if ch.SampleRate <= 0 {
			return fmt.Errorf("%w: channel %q sample rate must be positive", ErrInvalidConfig, ch.ID)
		}

		names := make(map[string]bool, len(ch.Parameters))
		for _, p := range ch.Parameters {
			if p.Name == "" {
				return fmt.Errorf("%w: channel %q has an unnamed parameter", ErrInvalidConfig, ch.ID)
			}
			if names[p.Name] {
				return fmt.Errorf("%w: channel %q parameter %q declared twice", ErrInvalidConfig, ch.ID, p.Name)
			}
			if p.RawMin > p.RawMax {
				return fmt.Errorf("%w: channel %q parameter %q has raw_min > raw_max", ErrInvalidConfig, ch.ID, p.Name)
			}
			names[p.Name] = true
		}

		for _, name := range RequiredParameters[ch.ID] {
			if !names[name] {
				return fmt.Errorf("%w: channel %q missing parameter %q", ErrInvalidConfig, ch.ID, name)
			}
		}
	}

	for _, id := range AllChannels {
		if !seen[id] {
			return fmt.Errorf("%w: channel %q missing", ErrInvalidConfig, id)
		}
	}
	return nil
}
