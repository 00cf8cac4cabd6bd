package synthesis

import (
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/diesel-sonar/logging"
	"github.com/RyanBlaney/diesel-sonar/simulator/config"
	"github.com/RyanBlaney/diesel-sonar/simulator/parameters"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func init() {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
}

func setup(t *testing.T) (*Synthesizer, *parameters.Store) {
	t.Helper()
	cfg := config.DefaultSimulatorConfig()
	return NewSynthesizer(cfg), parameters.NewStore(cfg.Channels)
}

func mustUpdate(t *testing.T, s *parameters.Store, ch config.ChannelID, name string, raw int) {
	t.Helper()
	if err := s.Update(ch, name, raw); err != nil {
		t.Fatalf("Update(%s, %s, %d): %v", ch, name, raw, err)
	}
}

func mustSynthesize(t *testing.T, syn *Synthesizer, ch config.ChannelID, src parameters.Source) *SampleSeries {
	t.Helper()
	series, err := syn.Synthesize(ch, src)
	if err != nil {
		t.Fatalf("Synthesize(%s): %v", ch, err)
	}
	return series
}

func TestSeriesShape(t *testing.T) {
	syn, store := setup(t)

	tests := []struct {
		channel config.ChannelID
		n       int
	}{
		{config.ChannelAcoustic, 40000},
		{config.ChannelAccelerometer, 3200},
		{config.ChannelTemperature, 1000},
		{config.ChannelOilQuality, 1000},
		{config.ChannelRPM, 1000},
	}
	for _, tt := range tests {
		series := mustSynthesize(t, syn, tt.channel, store)
		if series.Len() != tt.n || len(series.Times) != tt.n {
			t.Errorf("%s: len = %d/%d, want %d", tt.channel, series.Len(), len(series.Times), tt.n)
			continue
		}
		step := 1.0 / float64(tt.n)
		for _, i := range []int{0, 1, tt.n / 2, tt.n - 1} {
			if series.Times[i] != float64(i)*step {
				t.Errorf("%s: Times[%d] = %v, want %v", tt.channel, i, series.Times[i], float64(i)*step)
			}
		}
		if series.Times[tt.n-1] >= 1.0 {
			t.Errorf("%s: grid reaches the end of the interval", tt.channel)
		}
	}
}

func TestAcousticZeroSignal(t *testing.T) {
	syn, store := setup(t)
	mustUpdate(t, store, config.ChannelAcoustic, config.ParamEngineAmplitude, 0)
	mustUpdate(t, store, config.ChannelAcoustic, config.ParamCombustionAmplitude, 0)
	mustUpdate(t, store, config.ChannelAcoustic, config.ParamVibrationAmplitude, 0)

	series := mustSynthesize(t, syn, config.ChannelAcoustic, store)
	for i, v := range series.Values {
		if v != 0 {
			t.Fatalf("Values[%d] = %v, want 0", i, v)
		}
	}
}

func TestAcousticMatchesModel(t *testing.T) {
	syn, store := setup(t)
	series := mustSynthesize(t, syn, config.ChannelAcoustic, store)

	// defaults: Pe = 0.1, Pc = 0.025, Pv = 0.049
	divider := 1e6 / (1e6 + 300)
	for _, i := range []int{1, 400, 1333, 39999} {
		tt := series.Times[i]
		want := 0.0126 * (0.1*math.Sin(2*math.Pi*25*tt) +
			0.025*math.Sin(2*math.Pi*50*tt) +
			0.049*math.Sin(2*math.Pi*120*tt)) * divider
		if !scalar.EqualWithinAbs(series.Values[i], want, 1e-12) {
			t.Errorf("Values[%d] = %v, want %v", i, series.Values[i], want)
		}
	}
}

func TestAccelerometer(t *testing.T) {
	syn, store := setup(t)

	rest := mustSynthesize(t, syn, config.ChannelAccelerometer, store)
	for i, v := range rest.Values {
		if !scalar.EqualWithinAbs(v, 1.8, 1e-12) {
			t.Fatalf("at rest Values[%d] = %v, want 1.8", i, v)
		}
	}

	mustUpdate(t, store, config.ChannelAccelerometer, config.ParamAccelAmplitude, 200)
	shaken := mustSynthesize(t, syn, config.ChannelAccelerometer, store)
	// quarter period of 50 Hz at 3200 Hz is sample 16
	if want := 1.5 + 0.3*(2.0+1.0); !scalar.EqualWithinAbs(shaken.Values[16], want, 1e-9) {
		t.Errorf("peak = %v, want %v", shaken.Values[16], want)
	}

	// 50 whole periods: the sine averages out, leaving the 1 g offset
	if !scalar.EqualWithinAbs(shaken.Mean(), 1.8, 1e-9) {
		t.Errorf("Mean() = %v, want 1.8", shaken.Mean())
	}
	if !scalar.EqualWithinAbs(rest.RMS(), 1.8, 1e-9) {
		t.Errorf("RMS() at rest = %v, want 1.8", rest.RMS())
	}
}

func TestTemperatureClamp(t *testing.T) {
	syn, store := setup(t)

	tests := []struct {
		raw  int
		want float64
	}{
		{400, 25.0},
		{5000, 125.0},
		{-5000, -55.0},
		{2000, 125.0},
	}
	for _, tt := range tests {
		mustUpdate(t, store, config.ChannelTemperature, config.ParamTemperatureRaw, tt.raw)
		series := mustSynthesize(t, syn, config.ChannelTemperature, store)
		for _, v := range series.Values {
			if v != tt.want {
				t.Fatalf("raw %d: value %v, want %v", tt.raw, v, tt.want)
			}
		}
	}
}

func TestOilCapacitance(t *testing.T) {
	syn, store := setup(t)
	series := mustSynthesize(t, syn, config.ChannelOilQuality, store)

	want := 2.024e-12
	if !scalar.EqualWithinAbsOrRel(series.Values[0], want, 1e-24, 1e-12) {
		t.Errorf("C = %v, want %v", series.Values[0], want)
	}
	if floats.Min(series.Values) != floats.Max(series.Values) {
		t.Error("oil capacitance is not constant over time")
	}

	c, err := ReadOilCapacitance(config.DefaultPhysicalConstants().OilQuality, store)
	if err != nil {
		t.Fatal(err)
	}
	if c != series.Values[0] {
		t.Errorf("ReadOilCapacitance = %v, series = %v", c, series.Values[0])
	}
}

func TestRPM(t *testing.T) {
	consts := config.DefaultPhysicalConstants().RPM

	tests := []struct {
		name                  string
		count, window, pulses float64
		want                  float64
	}{
		{"default", 100, 1.0, 4, 1500},
		{"zero window", 137, 0, 4, 0},
		{"negative window", 137, -1, 4, 0},
		{"zero pulses", 100, 1.0, 0, 0},
		{"no pulses counted", 0, 2.0, 4, 0},
		{"max", 200, 0.1, 1, 120000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RPM(consts, tt.count, tt.window, tt.pulses); !scalar.EqualWithinAbsOrRel(got, tt.want, 1e-9, 1e-12) {
				t.Errorf("RPM = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRPMSeriesGuard(t *testing.T) {
	syn, store := setup(t)
	mustUpdate(t, store, config.ChannelRPM, config.ParamWindow, 0)
	mustUpdate(t, store, config.ChannelRPM, config.ParamPulseCount, 150)

	series := mustSynthesize(t, syn, config.ChannelRPM, store)
	for i, v := range series.Values {
		if v != 0 {
			t.Fatalf("Values[%d] = %v, want 0", i, v)
		}
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	syn, store := setup(t)
	mustUpdate(t, store, config.ChannelAccelerometer, config.ParamAccelAmplitude, -123)

	for _, ch := range config.AllChannels {
		a := mustSynthesize(t, syn, ch, store)
		b := mustSynthesize(t, syn, ch, store.Snapshot())
		if !floats.Equal(a.Values, b.Values) || !floats.Equal(a.Times, b.Times) {
			t.Errorf("%s: store and snapshot synthesis differ", ch)
		}
	}
}

type failingSource struct{}

func (failingSource) Get(channel config.ChannelID, name string) (float64, error) {
	return 0, parameters.ErrParameterNotFound
}

func TestSynthesizeMissingParameter(t *testing.T) {
	syn, _ := setup(t)
	for _, ch := range config.AllChannels {
		if _, err := syn.Synthesize(ch, failingSource{}); !errors.Is(err, parameters.ErrParameterNotFound) {
			t.Errorf("%s: err = %v, want ErrParameterNotFound", ch, err)
		}
	}
	if _, err := syn.Synthesize("exhaust", failingSource{}); err == nil {
		t.Error("expected error for unknown channel")
	}
}
