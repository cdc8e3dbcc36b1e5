package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/growthlab/growthlab/pkg/types"
)

// Supported output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Defaults match a 10x6 inch figure.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch
	DefaultDPI    = 96
)

const (
	pointAlpha    = 0.6
	pointRadius   = vg.Length(5)
	colorBarWidth = 1.1 * vg.Inch
)

// Options controls figure size and encoding.
type Options struct {
	Width  vg.Length
	Height vg.Length
	DPI    int // PNG only
}

// DefaultOptions returns a 10x6 inch figure at 96 DPI.
func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Height: DefaultHeight, DPI: DefaultDPI}
}

// ParseFormat normalises a format name or file extension ("svg", ".PNG").
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimPrefix(s, ".")); f {
	case "", FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("chart: unsupported format %q: want svg|png", s)
	}
}

// ContentType returns the MIME type of a format returned by ParseFormat.
func ContentType(format string) string {
	if format == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Figure is a scatter plot plus its humidity colour bar.
type Figure struct {
	Scatter  *plot.Plot
	ColorBar *plot.Plot
}

// New builds the figure for the filtered samples at threshold.
func New(filtered []types.Sample, threshold float64) (*Figure, error) {
	cm := humidityMap(filtered)

	p := plot.New()
	p.Title.Text = "Temperature vs Growth Rate (Threshold: " + strconv.FormatFloat(threshold, 'f', -1, 64) + "°C)"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Temperature (°C)"
	p.Y.Label.Text = "Growth Rate (units)"
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)

	grid := plotter.NewGrid()
	grid.Vertical.Color = color.Gray{Y: 200}
	grid.Horizontal.Color = color.Gray{Y: 200}
	p.Add(grid)

	if len(filtered) == 0 {
		p.X.Min, p.X.Max = threshold, threshold+1
		p.Y.Min, p.Y.Max = 0, 1
	} else {
		xys := make(plotter.XYs, len(filtered))
		for i, s := range filtered {
			xys[i].X = s.Temperature
			xys[i].Y = s.GrowthRate
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("chart: scatter: %w", err)
		}
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{
				Color:  pointColor(cm, filtered[i].Humidity),
				Radius: pointRadius,
				Shape:  draw.CircleGlyph{},
			}
		}
		p.Add(sc)
	}

	cb := plot.New()
	cb.HideX()
	cb.Y.Label.Text = "Humidity (%)"
	cb.Y.Label.TextStyle.Font.Size = vg.Points(10)
	cb.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})

	return &Figure{Scatter: p, ColorBar: cb}, nil
}

// Draw lays the scatter and colour bar side by side on c.
func (f *Figure) Draw(c draw.Canvas) {
	width := c.Max.X - c.Min.X
	f.Scatter.Draw(draw.Crop(c, 0, -colorBarWidth, 0, 0))
	f.ColorBar.Draw(draw.Crop(c, width-colorBarWidth, 0, 0, 0))
}

// Render writes the figure to w in the given format.
func (f *Figure) Render(w io.Writer, format string, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("chart: invalid size %vx%v", opts.Width, opts.Height)
	}

	var wt io.WriterTo
	switch format {
	case FormatSVG:
		c := vgsvg.New(opts.Width, opts.Height)
		f.Draw(draw.New(c))
		wt = c
	case FormatPNG:
		dpi := opts.DPI
		if dpi <= 0 {
			dpi = DefaultDPI
		}
		c := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(dpi))
		f.Draw(draw.New(c))
		wt = vgimg.PngCanvas{Canvas: c}
	default:
		return fmt.Errorf("chart: unsupported format %q", format)
	}

	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("chart: write %s: %w", format, err)
	}
	return nil
}

// Render builds the figure for filtered and writes it to w.
func Render(w io.Writer, filtered []types.Sample, threshold float64, format string, opts Options) error {
	f, err := New(filtered, threshold)
	if err != nil {
		return err
	}
	return f.Render(w, format, opts)
}

// humidityMap returns a colour map spanning the humidity range of samples.
func humidityMap(samples []types.Sample) palette.ColorMap {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		lo = math.Min(lo, s.Humidity)
		hi = math.Max(hi, s.Humidity)
	}
	switch {
	case len(samples) == 0:
		lo, hi = 0, 100
	case lo == hi:
		lo, hi = lo-1, hi+1
	}

	cm := moreland.ExtendedKindlmann()
	cm.SetMin(lo)
	cm.SetMax(hi)
	return cm
}

func pointColor(cm palette.ColorMap, v float64) color.Color {
	c, err := cm.At(v)
	if err != nil {
		return color.NRGBA{A: uint8(pointAlpha * 255)}
	}
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(pointAlpha * 255)}
}
