// Command dieselsim computes the sensor channels, their spectra and the
// stability map of the diesel engine model, optionally after adjusting
// parameters, and writes the plots as PNG files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RyanBlaney/diesel-sonar/logging"
	"github.com/RyanBlaney/diesel-sonar/render"
	"github.com/RyanBlaney/diesel-sonar/simulator"
	"github.com/RyanBlaney/diesel-sonar/simulator/config"
)

// setFlag collects repeated -set channel.param=raw arguments
type setFlag []simulator.ParameterChange

func (s *setFlag) String() string {
	parts := make([]string, len(*s))
	for i, c := range *s {
		parts[i] = fmt.Sprintf("%s.%s=%d", c.Channel, c.Name, c.RawPosition)
	}
	return strings.Join(parts, ",")
}

func (s *setFlag) Set(value string) error {
	change, err := parseChange(value)
	if err != nil {
		return err
	}
	*s = append(*s, change)
	return nil
}

func parseChange(value string) (simulator.ParameterChange, error) {
	target, raw, ok := strings.Cut(value, "=")
	if !ok {
		return simulator.ParameterChange{}, fmt.Errorf("expected channel.param=raw, got %q", value)
	}
	channel, name, ok := strings.Cut(target, ".")
	if !ok || channel == "" || name == "" {
		return simulator.ParameterChange{}, fmt.Errorf("expected channel.param, got %q", target)
	}
	pos, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return simulator.ParameterChange{}, fmt.Errorf("raw position %q: %w", raw, err)
	}
	return simulator.ParameterChange{
		Channel:     config.ChannelID(channel),
		Name:        name,
		RawPosition: pos,
	}, nil
}

type options struct {
	configPath string
	outDir     string
	useZap     bool
	debug      bool
	changes    setFlag
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "JSON config file layered over the defaults")
	flag.StringVar(&opts.outDir, "out", "", "directory for PNG plots (none when empty)")
	flag.BoolVar(&opts.useZap, "zap", false, "log through zap instead of the default logger")
	flag.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flag.Var(&opts.changes, "set", "parameter change channel.param=raw (repeatable)")
	flag.Parse()

	logger, sync, err := newLogger(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dieselsim: %v\n", err)
		os.Exit(1)
	}
	defer sync()
	logging.SetGlobalLogger(logger)

	if err := run(opts, logger); err != nil {
		logger.Fatal(err, "Simulation failed")
	}
}

func newLogger(opts options) (logging.Logger, func(), error) {
	level := logging.InfoLevel
	if opts.debug {
		level = logging.DebugLevel
	}

	if opts.useZap {
		zl, err := logging.NewZapLogger(opts.debug)
		if err != nil {
			return nil, nil, fmt.Errorf("create zap logger: %w", err)
		}
		zl.SetLevel(level)
		return zl, func() { _ = zl.Sync() }, nil
	}

	dl := logging.NewDefaultLogger()
	dl.SetLevel(level)
	return dl, func() {}, nil
}

func run(opts options, logger logging.Logger) error {
	cfg := config.DefaultSimulatorConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	sim, err := simulator.New(cfg)
	if err != nil {
		return err
	}

	for _, c := range opts.changes {
		res, err := sim.OnParameterChanged(c.Channel, c.Name, c.RawPosition)
		if err != nil {
			return err
		}
		logger.Info("Parameter applied", logging.Fields{
			"channel":       string(c.Channel),
			"param":         c.Name,
			"raw":           c.RawPosition,
			"dominant_pole": fmt.Sprint(res.Stability.SPoles[0]),
		})
	}

	result, err := sim.RecomputeAll()
	if err != nil {
		return err
	}

	for _, id := range config.AllChannels {
		cr := result.Channels[id]
		logger.Info("Channel computed", logging.Fields{
			"channel":        string(id),
			"samples":        cr.Series.Len(),
			"mean":           cr.Series.Mean(),
			"rms":            cr.Series.RMS(),
			"fft_size":       cr.Spectrum.FFTSize,
			"dc":             cr.Summary.DC,
			"peak_frequency": cr.Summary.PeakFrequency,
			"peak_magnitude": cr.Summary.PeakMagnitude,
		})
		logger.Debug(cr.Formula, logging.Fields{"channel": string(id)})
	}

	pz := result.Stability
	logger.Info("Stability computed", logging.Fields{
		"s_poles":  fmt.Sprint(pz.SPoles),
		"z_poles":  fmt.Sprint(pz.ZPoles),
		"z_zeros":  fmt.Sprint(pz.ZZeros),
		"stable_s": pz.StableS(),
		"stable_z": pz.StableZ(),
	})

	if system, err := sim.SystemFormula(); err == nil {
		logger.Debug(system)
	}

	if opts.outDir == "" {
		return nil
	}
	return writePlots(opts.outDir, result)
}

func writePlots(dir string, result *simulator.FullResult) error {
	r := render.NewRenderer(render.DefaultOptions())

	for _, id := range config.AllChannels {
		cr := result.Channels[id]
		if err := r.SaveSeries(cr.Series, filepath.Join(dir, string(id)+"_time.png")); err != nil {
			return fmt.Errorf("plot %s series: %w", id, err)
		}
		title := fmt.Sprintf("%s: frequency domain", id)
		if err := r.SaveSpectrum(cr.Spectrum, title, filepath.Join(dir, string(id)+"_spectrum.png")); err != nil {
			return fmt.Errorf("plot %s spectrum: %w", id, err)
		}
	}

	if err := r.SavePoleZero(result.Stability, render.DomainS, filepath.Join(dir, "poles_s.png")); err != nil {
		return err
	}
	if err := r.SavePoleZero(result.Stability, render.DomainZ, filepath.Join(dir, "poles_z.png")); err != nil {
		return err
	}

	logging.Info("Plots written", logging.Fields{"dir": dir})
	return nil
}
