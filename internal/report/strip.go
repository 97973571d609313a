package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/camreach/internal/analysis"
	"github.com/banshee-data/camreach/internal/camera"
	"github.com/banshee-data/camreach/internal/geometry"
)

// DefaultExtraMarkings is how many markings past the reach a strip shows.
const DefaultExtraMarkings = 5

// Strip size limits. MaxStripMarkings bounds how many markings StripRows
// projects, counting back from the farthest one drawn.
const (
	MaxExtraMarkings = 1000
	MaxStripMarkings = 10000
)

// ValidateExtra checks a caller-supplied extra marking count.
func ValidateExtra(extra float64) error {
	if math.IsNaN(extra) || extra < 0 || extra > MaxExtraMarkings {
		return fmt.Errorf("extra must be between 0 and %d, got %g", MaxExtraMarkings, extra)
	}
	return nil
}

var (
	resolvedColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	reachColor      = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	unresolvedColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}
)

// StripOptions controls RenderStrip. Zero values pick defaults.
type StripOptions struct {
	// Extra markings drawn beyond the last resolved one; negative means none.
	Extra  int
	Width  vg.Length
	Height vg.Length
	Title  string
}

func (o StripOptions) withDefaults() StripOptions {
	if o.Extra == 0 {
		o.Extra = DefaultExtraMarkings
	} else if o.Extra < 0 {
		o.Extra = 0
	}
	if o.Width == 0 {
		o.Width = 6 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 4 * vg.Inch
	}
	return o
}

// StripRows projects markings up to LineCount+extra with the analysis's tilt
// and focal length, dropping any behind the camera or outside the frame. At
// most MaxStripMarkings markings are projected, ending at the farthest.
func StripRows(cfg camera.Configuration, a analysis.CameraViewAnalysis, markerGap float64, extra int) []geometry.LineRow {
	if markerGap <= 0 {
		markerGap = a.MarkerGapMeters
	}
	extra = min(max(extra, 0), MaxExtraMarkings)
	sensor := geometry.SensorFrom(cfg)
	lines := stripLines(max(a.LineCount, 0)+extra, markerGap)
	projected := geometry.ProjectLines(lines, a.Params(), sensor)

	out := projected[:0]
	for _, lr := range projected {
		if lr.Row < 0 || lr.Row > sensor.RowsPx {
			continue
		}
		out = append(out, lr)
	}
	return out
}

func stripLines(last int, markerGap float64) []geometry.GroundLine {
	if last <= MaxStripMarkings {
		return geometry.Lines(last, markerGap)
	}
	first := last - MaxStripMarkings + 1
	out := make([]geometry.GroundLine, 0, MaxStripMarkings)
	for n := first; n <= last; n++ {
		out = append(out, geometry.NewGroundLine(n, markerGap))
	}
	return out
}

// RenderStrip writes an SVG of the frame with a horizontal line at each
// visible marking's row. Row 0 is at the top, as in the image.
func RenderStrip(w io.Writer, cfg camera.Configuration, a analysis.CameraViewAnalysis, markerGap float64, o StripOptions) error {
	o = o.withDefaults()
	if markerGap <= 0 {
		markerGap = a.MarkerGapMeters
	}
	rows := StripRows(cfg, a, markerGap, o.Extra)
	width := float64(cfg.ResolutionWidthPx)

	p := plot.New()
	p.Title.Text = o.Title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("zoom %g: %d markings to %.0f m", a.ZoomLevel, a.LineCount, a.DistanceMeters)
	}
	p.X.Label.Text = "Column (px)"
	p.Y.Label.Text = "Row (px)"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	labels := plotter.XYLabels{}
	for _, lr := range rows {
		line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: lr.Row}, {X: width, Y: lr.Row}})
		if err != nil {
			return err
		}
		line.Width = vg.Points(1)
		switch {
		case lr.Line.Index > a.LineCount:
			line.Color = unresolvedColor
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		case lr.Line.Index == a.LineCount:
			line.Color = reachColor
			line.Width = vg.Points(2)
		default:
			line.Color = resolvedColor
		}
		p.Add(line)
		labels.XYs = append(labels.XYs, plotter.XY{X: width, Y: lr.Row})
		labels.Labels = append(labels.Labels, fmt.Sprintf("%g m", lr.Line.DistanceMeters))
	}
	if len(labels.XYs) > 0 {
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return err
		}
		p.Add(l)
	}

	p.X.Min, p.X.Max = 0, width
	p.Y.Min, p.Y.Max = 0, cfg.VerticalResolution()

	wt, err := p.WriterTo(o.Width, o.Height, "svg")
	if err != nil {
		return fmt.Errorf("create svg writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}
