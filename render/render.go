// Package render draws simulator outputs to PNG files with gonum/plot.
package render

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/diesel-sonar/algorithms/spectral"
	"github.com/RyanBlaney/diesel-sonar/algorithms/stability"
	"github.com/RyanBlaney/diesel-sonar/logging"
	"github.com/RyanBlaney/diesel-sonar/simulator/synthesis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ErrNoData is returned when there is nothing to draw
var ErrNoData = errors.New("no data to plot")

// Domain selects the complex plane of a pole/zero plot
type Domain string

const (
	DomainS Domain = "s"
	DomainZ Domain = "z"
)

const (
	sPlaneLimit     = 3.0
	zPlaneLimit     = 1.5
	circleSegments  = 72
	defaultWidthIn  = 8.0
	defaultHeightIn = 4.5
)

var (
	poleColor = color.RGBA{R: 200, A: 255}
	zeroColor = color.RGBA{B: 200, A: 255}
)

// Options controls the image size
type Options struct {
	WidthIn  float64 `json:"width_in"`
	HeightIn float64 `json:"height_in"`
	DPI      int     `json:"dpi"`
}

// DefaultOptions returns an 8x4.5 inch canvas at 96 DPI
func DefaultOptions() Options {
	return Options{
		WidthIn:  defaultWidthIn,
		HeightIn: defaultHeightIn,
		DPI:      96,
	}
}

// Renderer writes plots with fixed options
type Renderer struct {
	options Options
	logger  logging.Logger
}

// NewRenderer creates a renderer. Zero option fields take their defaults.
func NewRenderer(options Options) *Renderer {
	def := DefaultOptions()
	if options.WidthIn <= 0 {
		options.WidthIn = def.WidthIn
	}
	if options.HeightIn <= 0 {
		options.HeightIn = def.HeightIn
	}
	if options.DPI <= 0 {
		options.DPI = def.DPI
	}
	return &Renderer{
		options: options,
		logger: logging.WithFields(logging.Fields{
			"component": "renderer",
		}),
	}
}

// SaveSeries plots a time series as a line
func (r *Renderer) SaveSeries(series *synthesis.SampleSeries, path string) error {
	if series == nil || series.Len() == 0 {
		return fmt.Errorf("series: %w", ErrNoData)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: time domain", series.Channel)
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys(series.Times, series.Values))
	if err != nil {
		return fmt.Errorf("series line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1)
	p.Add(line)

	return r.save(p, path)
}

// SaveSpectrum plots a magnitude spectrum from DC to Nyquist
func (r *Renderer) SaveSpectrum(spectrum *spectral.Spectrum, title, path string) error {
	if spectrum == nil || spectrum.Len() == 0 {
		return fmt.Errorf("spectrum: %w", ErrNoData)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "frequency (Hz)"
	p.Y.Label.Text = "|X(f)|"
	p.X.Min = 0
	p.X.Max = spectrum.SampleRate / 2
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys(spectrum.Frequencies, spectrum.Magnitudes))
	if err != nil {
		return fmt.Errorf("spectrum line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1)
	p.Add(line)

	return r.save(p, path)
}

// SavePoleZero plots the poles of m in the s or z plane. The z plane also
// shows the zeros and the unit circle.
func (r *Renderer) SavePoleZero(m *stability.PoleZeroMap, domain Domain, path string) error {
	if m == nil {
		return fmt.Errorf("pole/zero map: %w", ErrNoData)
	}

	p := plot.New()
	p.X.Label.Text = "Re"
	p.Y.Label.Text = "Im"
	p.Add(plotter.NewGrid())

	var poles []complex128
	switch domain {
	case DomainS:
		p.Title.Text = "Poles in the s-plane"
		setLimits(p, sPlaneLimit)
		poles = m.SPoles

	case DomainZ:
		p.Title.Text = "Poles and zeros in the z-plane"
		setLimits(p, zPlaneLimit)
		poles = m.ZPoles

		circle, err := plotter.NewLine(unitCircle(circleSegments))
		if err != nil {
			return fmt.Errorf("unit circle: %w", err)
		}
		circle.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(circle)
		p.Legend.Add("|z| = 1", circle)

		if len(m.ZZeros) > 0 {
			zeros, err := markers(m.ZZeros, draw.RingGlyph{}, zeroColor)
			if err != nil {
				return err
			}
			p.Add(zeros)
			p.Legend.Add("zeros", zeros)
		}

	default:
		return fmt.Errorf("unknown plane %q", domain)
	}

	if len(poles) > 0 {
		scatter, err := markers(poles, draw.CrossGlyph{}, poleColor)
		if err != nil {
			return err
		}
		p.Add(scatter)
		p.Legend.Add("poles", scatter)
	}

	return r.save(p, path)
}

func (r *Renderer) save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	w := vg.Length(r.options.WidthIn) * vg.Inch
	h := vg.Length(r.options.HeightIn) * vg.Inch
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(r.options.DPI))
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write png: %w", err)
	}

	r.logger.Debug("Plot written", logging.Fields{"path": path})
	return nil
}

func setLimits(p *plot.Plot, limit float64) {
	p.X.Min, p.X.Max = -limit, limit
	p.Y.Min, p.Y.Max = -limit, limit
}

func markers(points []complex128, shape draw.GlyphDrawer, c color.Color) (*plotter.Scatter, error) {
	pts := make(plotter.XYs, len(points))
	for i, z := range points {
		pts[i].X = real(z)
		pts[i].Y = imag(z)
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("markers: %w", err)
	}
	s.GlyphStyle.Shape = shape
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(5)
	return s, nil
}

func unitCircle(segments int) plotter.XYs {
	pts := make(plotter.XYs, segments+1)
	for i := range pts {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		pts[i].X = math.Cos(theta)
		pts[i].Y = math.Sin(theta)
	}
	return pts
}

func xys(x, y []float64) plotter.XYs {
	n := min(len(x), len(y))
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}
