package simulator

import (
	"fmt"
	"sync"

	"github.com/RyanBlaney/diesel-sonar/algorithms/spectral"
	"github.com/RyanBlaney/diesel-sonar/algorithms/stability"
	"github.com/RyanBlaney/diesel-sonar/logging"
	"github.com/RyanBlaney/diesel-sonar/simulator/config"
	"github.com/RyanBlaney/diesel-sonar/simulator/parameters"
	"github.com/RyanBlaney/diesel-sonar/simulator/synthesis"
)

// ParameterChange is a request to move one parameter to a raw control position
type ParameterChange struct {
	Channel     config.ChannelID `json:"channel"`
	Name        string           `json:"name"`
	RawPosition int              `json:"raw_position"`
}

// ChannelResult holds the time and frequency domain view of one channel
type ChannelResult struct {
	Channel  config.ChannelID        `json:"channel"`
	Series   *synthesis.SampleSeries `json:"series"`
	Spectrum *spectral.Spectrum      `json:"spectrum"`
	Summary  spectral.Summary        `json:"summary"`
	Formula  string                  `json:"formula"`
}

// RecomputeResult is everything a parameter change produces. Stability is
// always computed from the snapshot taken after the change was applied.
type RecomputeResult struct {
	Change    ParameterChange        `json:"change"`
	Channel   *ChannelResult         `json:"channel"`
	Stability *stability.PoleZeroMap `json:"stability"`
}

// FullResult is a recompute of every channel plus the stability map
type FullResult struct {
	Channels  map[config.ChannelID]*ChannelResult `json:"channels"`
	Stability *stability.PoleZeroMap              `json:"stability"`
}

// Simulator owns the parameter store and drives synthesis, spectral analysis
// and pole placement. All methods are safe for concurrent use; each
// update-and-recompute runs as one serialised step.
type Simulator struct {
	mu sync.Mutex

	config      *config.SimulatorConfig
	store       *parameters.Store
	synthesizer *synthesis.Synthesizer
	analyzer    *spectral.Analyzer
	mapper      *stability.Mapper
	logger      logging.Logger
}

// New creates a simulator. A nil config selects DefaultSimulatorConfig.
func New(cfg *config.SimulatorConfig) (*Simulator, error) {
	if cfg == nil {
		cfg = config.DefaultSimulatorConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	analyzer, err := spectral.NewAnalyzer(cfg.Spectrum)
	if err != nil {
		return nil, fmt.Errorf("create spectral analyzer: %w", err)
	}

	return &Simulator{
		config:      cfg,
		store:       parameters.NewStore(cfg.Channels),
		synthesizer: synthesis.NewSynthesizer(cfg),
		analyzer:    analyzer,
		mapper:      stability.NewMapper(cfg.Stability),
		logger: logging.WithFields(logging.Fields{
			"component": "simulator",
		}),
	}, nil
}

// Config returns the configuration the simulator was built with
func (s *Simulator) Config() *config.SimulatorConfig {
	return s.config
}

// OnParameterChanged applies a change, recomputes the affected channel and
// then the global pole/zero map. A ParameterNotFound error aborts the
// recompute and leaves the store untouched.
func (s *Simulator) OnParameterChanged(channel config.ChannelID, name string, rawPosition int) (*RecomputeResult, error) {
	change := ParameterChange{Channel: channel, Name: name, RawPosition: rawPosition}
	logger := s.logger.WithFields(logging.Fields{
		"channel": string(channel),
		"param":   name,
		"raw":     rawPosition,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Update(channel, name, rawPosition); err != nil {
		logger.Error(err, "Parameter update rejected")
		return nil, fmt.Errorf("update parameter: %w", err)
	}

	snap := s.store.Snapshot()

	channelResult, err := s.computeChannel(channel, snap)
	if err != nil {
		logger.Error(err, "Channel recompute failed")
		return nil, err
	}

	pz, err := s.computeStability(snap)
	if err != nil {
		logger.Error(err, "Stability recompute failed")
		return nil, err
	}

	logger.Debug("Recomputed after parameter change", logging.Fields{
		"peak_frequency": channelResult.Summary.PeakFrequency,
		"dominant_pole":  pz.SPoles[0],
	})

	return &RecomputeResult{
		Change:    change,
		Channel:   channelResult,
		Stability: pz,
	}, nil
}

// RecomputeChannel re-derives one channel from the current parameters
func (s *Simulator) RecomputeChannel(channel config.ChannelID) (*ChannelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.computeChannel(channel, s.store.Snapshot())
}

// RecomputeStability re-derives the pole/zero map from the current parameters
func (s *Simulator) RecomputeStability() (*stability.PoleZeroMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.computeStability(s.store.Snapshot())
}

// RecomputeAll re-derives every channel and the stability map from one snapshot
func (s *Simulator) RecomputeAll() (*FullResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.store.Snapshot()
	result := &FullResult{
		Channels: make(map[config.ChannelID]*ChannelResult, len(config.AllChannels)),
	}

	for _, id := range config.AllChannels {
		cr, err := s.computeChannel(id, snap)
		if err != nil {
			return nil, err
		}
		result.Channels[id] = cr
	}

	pz, err := s.computeStability(snap)
	if err != nil {
		return nil, err
	}
	result.Stability = pz

	s.logger.Info("Full recompute completed", logging.Fields{
		"channels": len(result.Channels),
		"stable":   pz.StableS() && pz.StableZ(),
	})

	return result, nil
}

// Snapshot returns an immutable copy of all parameter values
func (s *Simulator) Snapshot() parameters.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Parameters returns a channel's parameters in declaration order
func (s *Simulator) Parameters(channel config.ChannelID) ([]parameters.Parameter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Parameters(channel)
}

func (s *Simulator) computeChannel(channel config.ChannelID, snap parameters.Snapshot) (*ChannelResult, error) {
	series, err := s.synthesizer.Synthesize(channel, snap)
	if err != nil {
		return nil, err
	}

	spectrum, err := s.analyzer.Analyze(series.Values, series.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", channel, err)
	}

	formula, err := s.formula(channel)
	if err != nil {
		return nil, err
	}

	return &ChannelResult{
		Channel:  channel,
		Series:   series,
		Spectrum: spectrum,
		Summary:  spectral.Summarize(spectrum),
		Formula:  formula,
	}, nil
}

// StabilityInput gathers the mapper inputs from a parameter source
func StabilityInput(constants config.PhysicalConstants, params parameters.Source) (stability.Input, error) {
	capacitance, err := synthesis.ReadOilCapacitance(constants.OilQuality, params)
	if err != nil {
		return stability.Input{}, err
	}
	rpm, err := synthesis.ReadRPM(constants.RPM, params)
	if err != nil {
		return stability.Input{}, err
	}
	accel, err := params.Get(config.ChannelAccelerometer, config.ParamAccelAmplitude)
	if err != nil {
		return stability.Input{}, err
	}

	return stability.Input{
		OilCapacitance: capacitance,
		RPM:            rpm,
		AccelAmplitude: accel,
	}, nil
}

func (s *Simulator) computeStability(snap parameters.Snapshot) (*stability.PoleZeroMap, error) {
	in, err := StabilityInput(s.config.Constants, snap)
	if err != nil {
		return nil, fmt.Errorf("stability input: %w", err)
	}
	return s.mapper.Map(in), nil
}
