package batch

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/camreach/internal/analysis"
	"github.com/banshee-data/camreach/internal/monitoring"
)

var logf = monitoring.Component("batch")

// Row is the outcome for one zoom level. Err holds a validation or
// impossible-constraint error for that zoom; Analysis is still populated
// for the latter.
type Row struct {
	Zoom     float64
	Analysis analysis.CameraViewAnalysis
	Err      error
}

// Runner fans analyses for one pixel gap out over a bounded worker pool.
type Runner struct {
	Analyzer *analysis.Analyzer

	// Workers bounds concurrency; zero means runtime.NumCPU().
	Workers int

	// Optional per-run overrides; zero keeps the analyzer's rig values.
	CameraHeightMeters float64
	MarkerGapMeters    float64
}

// Run analyses every zoom and returns rows in input order. User-level errors
// are recorded per row. Any other error, or ctx cancellation, aborts the run.
func (r *Runner) Run(ctx context.Context, zooms []float64, minPixelGap float64) ([]Row, error) {
	if r.Analyzer == nil {
		return nil, fmt.Errorf("batch runner has no analyzer")
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	rows := make([]Row, len(zooms))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, zoom := range zooms {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.Analyzer.Analyze(analysis.Request{
				ZoomLevel:          zoom,
				MinPixelGap:        minPixelGap,
				CameraHeightMeters: r.CameraHeightMeters,
				MarkerGapMeters:    r.MarkerGapMeters,
			})
			rows[i] = Row{Zoom: zoom, Analysis: res, Err: err}
			if err != nil {
				if analysis.IsUserError(err) {
					logf("zoom %g: %v", zoom, err)
					return nil
				}
				return fmt.Errorf("zoom %g: %w", zoom, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
