package parameters

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/diesel-sonar/logging"
	"github.com/RyanBlaney/diesel-sonar/simulator/config"
)

// ErrParameterNotFound reports a lookup of an undeclared channel or parameter.
// It indicates a configuration defect, not a user error.
var ErrParameterNotFound = errors.New("parameter not found")

// Parameter is a named scalar whose engineering value is RawPosition*ScaleFactor
type Parameter struct {
	config.ParameterDefinition
	RawPosition int     `json:"raw_position"`
	Value       float64 `json:"value"`
}

// Display formats the value with the parameter's display format
func (p Parameter) Display() string {
	return fmt.Sprintf(p.DisplayFormat, p.Value)
}

// Source is anything parameter values can be read from
type Source interface {
	Get(channel config.ChannelID, name string) (float64, error)
}

type channelParams struct {
	ordered []Parameter
	index   map[string]int
}

// Store owns the parameter values of every channel. It is not safe for
// concurrent use; the simulator serialises access.
type Store struct {
	channels map[config.ChannelID]*channelParams
	logger   logging.Logger
}

// NewStore creates parameters from their definitions at their default raw positions
func NewStore(channels []config.ChannelConfig) *Store {
	s := &Store{
		channels: make(map[config.ChannelID]*channelParams, len(channels)),
		logger: logging.WithFields(logging.Fields{
			"component": "parameter_store",
		}),
	}

	for _, ch := range channels {
		cp := &channelParams{
			ordered: make([]Parameter, 0, len(ch.Parameters)),
			index:   make(map[string]int, len(ch.Parameters)),
		}
		for _, def := range ch.Parameters {
			cp.index[def.Name] = len(cp.ordered)
			cp.ordered = append(cp.ordered, Parameter{
				ParameterDefinition: def,
				RawPosition:         def.RawDefault,
				Value:               float64(def.RawDefault) * def.ScaleFactor,
			})
		}
		s.channels[ch.ID] = cp
	}

	return s
}

func (s *Store) lookup(channel config.ChannelID, name string) (*Parameter, error) {
	cp, ok := s.channels[channel]
	if !ok {
		return nil, fmt.Errorf("%w: unknown channel %q", ErrParameterNotFound, channel)
	}
	i, ok := cp.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: channel %q has no parameter %q", ErrParameterNotFound, channel, name)
	}
	return &cp.ordered[i], nil
}

// Update moves a parameter to rawPosition and rescales its value. Positions
// outside the declared raw range are accepted; consumers clamp where the
// physics requires it.
func (s *Store) Update(channel config.ChannelID, name string, rawPosition int) error {
	p, err := s.lookup(channel, name)
	if err != nil {
		return err
	}

	if rawPosition < p.RawMin || rawPosition > p.RawMax {
		s.logger.Debug("Raw position outside control range", logging.Fields{
			"channel": string(channel),
			"param":   name,
			"raw":     rawPosition,
			"raw_min": p.RawMin,
			"raw_max": p.RawMax,
		})
	}

	p.RawPosition = rawPosition
	p.Value = float64(rawPosition) * p.ScaleFactor
	return nil
}

// Get returns the current engineering value of a parameter
func (s *Store) Get(channel config.ChannelID, name string) (float64, error) {
	p, err := s.lookup(channel, name)
	if err != nil {
		return 0, err
	}
	return p.Value, nil
}

// Parameters returns a copy of a channel's parameters in declaration order
func (s *Store) Parameters(channel config.ChannelID) ([]Parameter, error) {
	cp, ok := s.channels[channel]
	if !ok {
		return nil, fmt.Errorf("%w: unknown channel %q", ErrParameterNotFound, channel)
	}
	out := make([]Parameter, len(cp.ordered))
	copy(out, cp.ordered)
	return out, nil
}

// Snapshot copies every current value
func (s *Store) Snapshot() Snapshot {
	values := make(map[config.ChannelID]map[string]float64, len(s.channels))
	for id, cp := range s.channels {
		m := make(map[string]float64, len(cp.ordered))
		for _, p := range cp.ordered {
			m[p.Name] = p.Value
		}
		values[id] = m
	}
	return Snapshot{values: values}
}

// Snapshot is an immutable copy of parameter values taken at one instant
type Snapshot struct {
	values map[config.ChannelID]map[string]float64
}

// Get returns the value of a parameter at the time the snapshot was taken
func (s Snapshot) Get(channel config.ChannelID, name string) (float64, error) {
	m, ok := s.values[channel]
	if !ok {
		return 0, fmt.Errorf("%w: unknown channel %q", ErrParameterNotFound, channel)
	}
	v, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("%w: channel %q has no parameter %q", ErrParameterNotFound, channel, name)
	}
	return v, nil
}
