package batch

import (
	"context"
	"testing"

	"github.com/banshee-data/camreach/internal/analysis"
	"github.com/banshee-data/camreach/internal/camera"
	"github.com/banshee-data/camreach/internal/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, workers int) *Runner {
	t.Helper()
	a, err := analysis.NewAnalyzer(camera.DefaultConfiguration())
	require.NoError(t, err)
	return &Runner{Analyzer: a, Workers: workers}
}

func TestRunKeepsInputOrder(t *testing.T) {
	r := newRunner(t, 2)
	zooms := []float64{25, 1, 5}

	rows, err := r.Run(context.Background(), zooms, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for i, row := range rows {
		assert.Equal(t, zooms[i], row.Zoom)
		assert.Equal(t, zooms[i], row.Analysis.ZoomLevel)
		assert.NoError(t, row.Err)
		assert.Positive(t, row.Analysis.LineCount)
	}
	assert.Greater(t, rows[0].Analysis.DistanceMeters, rows[2].Analysis.DistanceMeters)
	assert.Greater(t, rows[2].Analysis.DistanceMeters, rows[1].Analysis.DistanceMeters)
}

func TestRunMatchesSequentialAnalysis(t *testing.T) {
	r := newRunner(t, 0)
	zooms := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	rows, err := r.Run(context.Background(), zooms, 12)
	require.NoError(t, err)

	for i, zoom := range zooms {
		want, err := r.Analyzer.Analyze(analysis.Request{ZoomLevel: zoom, MinPixelGap: 12})
		require.NoError(t, err)
		assert.Equal(t, want, rows[i].Analysis, "zoom %v", zoom)
	}
}

func TestRunRecordsUserErrorsPerRow(t *testing.T) {
	r := newRunner(t, 4)

	rows, err := r.Run(context.Background(), []float64{1, 5}, 2000)
	require.NoError(t, err)
	for _, row := range rows {
		assert.ErrorIs(t, row.Err, analysis.ErrImpossibleConstraint)
		assert.Equal(t, 0, row.Analysis.LineCount)
		assert.Equal(t, 0.0, row.Analysis.DistanceMeters)
	}

	rows, err = r.Run(context.Background(), []float64{0.5, 5}, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, rows[0].Err, analysis.ErrValidation)
	assert.NoError(t, rows[1].Err)
}

func TestRunAppliesOverrides(t *testing.T) {
	r := newRunner(t, 1)
	r.CameraHeightMeters = 30
	r.MarkerGapMeters = 5

	rows, err := r.Run(context.Background(), []float64{5}, 10)
	require.NoError(t, err)
	assert.Equal(t, 30.0, rows[0].Analysis.CameraHeightMeters)
	assert.Equal(t, 5.0, rows[0].Analysis.MarkerGapMeters)
	assert.InDelta(t, float64(rows[0].Analysis.LineCount)*5, rows[0].Analysis.DistanceMeters, 1e-9)
}

func TestRunAbortsOnInternalError(t *testing.T) {
	r := newRunner(t, 2)
	_, err := r.Run(context.Background(), []float64{1, 5}, 0)
	assert.ErrorIs(t, err, solver.ErrSearchExhausted)
}

func TestRunHonoursCancellation(t *testing.T) {
	r := newRunner(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, []float64{1, 2, 3}, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithoutAnalyzer(t *testing.T) {
	_, err := (&Runner{}).Run(context.Background(), []float64{1}, 10)
	assert.Error(t, err)
}
