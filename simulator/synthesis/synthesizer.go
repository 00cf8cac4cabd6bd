package synthesis

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/diesel-sonar/algorithms/common"
	"github.com/RyanBlaney/diesel-sonar/logging"
	"github.com/RyanBlaney/diesel-sonar/simulator/config"
	"github.com/RyanBlaney/diesel-sonar/simulator/parameters"
)

// SampleSeries is a uniformly sampled waveform. Times[i] = i*Duration/N.
type SampleSeries struct {
	Channel    config.ChannelID `json:"channel"`
	SampleRate float64          `json:"sample_rate"`
	Times      []float64        `json:"times"`
	Values     []float64        `json:"values"`
}

// Len returns the number of samples
func (s *SampleSeries) Len() int {
	return len(s.Values)
}

// Mean returns the average sample value, 0 for an empty series
func (s *SampleSeries) Mean() float64 {
	return common.Mean(s.Values)
}

// RMS returns the root mean square of the samples
func (s *SampleSeries) RMS() float64 {
	return common.RMS(s.Values)
}

// Synthesizer evaluates the channel models over a time grid. It reads
// parameters through a Source and keeps no state between calls.
type Synthesizer struct {
	constants config.PhysicalConstants
	duration  float64
	rates     map[config.ChannelID]float64
	logger    logging.Logger
}

// NewSynthesizer creates a synthesizer for the channels and constants in cfg
func NewSynthesizer(cfg *config.SimulatorConfig) *Synthesizer {
	rates := make(map[config.ChannelID]float64, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		rates[ch.ID] = ch.SampleRate
	}

	return &Synthesizer{
		constants: cfg.Constants,
		duration:  cfg.Duration,
		rates:     rates,
		logger: logging.WithFields(logging.Fields{
			"component": "signal_synthesizer",
		}),
	}
}

// SampleCount returns N = round(sampleRate*duration) for channel
func (s *Synthesizer) SampleCount(channel config.ChannelID) (int, error) {
	rate, ok := s.rates[channel]
	if !ok {
		return 0, fmt.Errorf("unknown channel %q", channel)
	}
	return int(math.Round(rate * s.duration)), nil
}

// Synthesize produces the full series of channel from the current values in params
func (s *Synthesizer) Synthesize(channel config.ChannelID, params parameters.Source) (*SampleSeries, error) {
	n, err := s.SampleCount(channel)
	if err != nil {
		return nil, err
	}

	waveform, err := s.waveform(channel, params)
	if err != nil {
		return nil, fmt.Errorf("synthesize %s: %w", channel, err)
	}

	var step float64
	if n > 0 {
		step = s.duration / float64(n)
	}
	series := &SampleSeries{
		Channel:    channel,
		SampleRate: s.rates[channel],
		Times:      common.TimeGrid(n, step),
		Values:     make([]float64, n),
	}
	for i, t := range series.Times {
		series.Values[i] = waveform(t)
	}

	s.logger.Debug("Series synthesized", logging.Fields{
		"channel": string(channel),
		"samples": n,
		"mean":    series.Mean(),
		"rms":     series.RMS(),
	})

	return series, nil
}

// waveform binds the channel model to the current parameter values
func (s *Synthesizer) waveform(channel config.ChannelID, params parameters.Source) (func(float64) float64, error) {
	c := s.constants
	r := reader{params: params, channel: channel}

	switch channel {
	case config.ChannelAcoustic:
		engine := r.get(config.ParamEngineAmplitude)
		combustion := r.get(config.ParamCombustionAmplitude)
		vibration := r.get(config.ParamVibrationAmplitude)
		if r.err != nil {
			return nil, r.err
		}
		return func(t float64) float64 {
			return AcousticVoltage(c.Acoustic, engine, combustion, vibration, t)
		}, nil

	case config.ChannelAccelerometer:
		amplitude := r.get(config.ParamAccelAmplitude)
		if r.err != nil {
			return nil, r.err
		}
		return func(t float64) float64 {
			return AccelerometerVoltage(c.Accelerometer, amplitude, t)
		}, nil

	case config.ChannelTemperature:
		raw := r.get(config.ParamTemperatureRaw)
		if r.err != nil {
			return nil, r.err
		}
		return constant(TemperatureCelsius(c.Temperature, raw)), nil

	case config.ChannelOilQuality:
		eps0 := r.get(config.ParamPermittivity)
		if r.err != nil {
			return nil, r.err
		}
		return constant(OilCapacitance(c.OilQuality, eps0)), nil

	case config.ChannelRPM:
		rpm, err := ReadRPM(c.RPM, params)
		if err != nil {
			return nil, err
		}
		return constant(rpm), nil
	}

	return nil, fmt.Errorf("no model for channel %q", channel)
}

// ReadRPM evaluates the RPM model from the rpm channel parameters
func ReadRPM(c config.RPMConstants, params parameters.Source) (float64, error) {
	r := reader{params: params, channel: config.ChannelRPM}
	count := r.get(config.ParamPulseCount)
	window := r.get(config.ParamWindow)
	pulses := r.get(config.ParamPulsesPerRev)
	if r.err != nil {
		return 0, r.err
	}
	return RPM(c, count, window, pulses), nil
}

// ReadOilCapacitance evaluates the oil probe model from its parameter
func ReadOilCapacitance(c config.OilQualityConstants, params parameters.Source) (float64, error) {
	eps0, err := params.Get(config.ChannelOilQuality, config.ParamPermittivity)
	if err != nil {
		return 0, err
	}
	return OilCapacitance(c, eps0), nil
}

func constant(v float64) func(float64) float64 {
	return func(float64) float64 { return v }
}

// reader collects the first lookup error so several reads can be checked once
type reader struct {
	params  parameters.Source
	channel config.ChannelID
	err     error
}

func (r *reader) get(name string) float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.params.Get(r.channel, name)
	if err != nil {
		r.err = err
	}
	return v
}
