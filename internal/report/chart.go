package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/camreach/internal/batch"
	"github.com/banshee-data/camreach/internal/units"
)

// RenderReachChart writes an HTML line chart of reach distance against zoom.
// Rows that failed are left as gaps.
func RenderReachChart(w io.Writer, rows []batch.Row, unit string) error {
	if err := checkUnit(unit); err != nil {
		return err
	}

	x := make([]string, 0, len(rows))
	y := make([]opts.LineData, 0, len(rows))
	gap := math.NaN()
	for _, r := range rows {
		x = append(x, formatFloat(r.Zoom, -1))
		if r.Err != nil {
			y = append(y, opts.LineData{Value: "-"})
			continue
		}
		gap = r.Analysis.MinPixelGap
		d := units.ConvertDistance(r.Analysis.DistanceMeters, unit)
		y = append(y, opts.LineData{Value: math.Round(d*10) / 10})
	}

	subtitle := fmt.Sprintf("zoom levels=%d", len(rows))
	if !math.IsNaN(gap) {
		subtitle = fmt.Sprintf("min pixel gap=%g px, zoom levels=%d", gap, len(rows))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Camera Reach", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Max Viewing Distance", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Zoom", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("Distance (%s)", unit), NameLocation: "middle", NameGap: 45}),
	)
	line.SetXAxis(x).
		AddSeries("distance", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
		)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render reach chart: %w", err)
	}
	return nil
}
