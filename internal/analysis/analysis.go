// Package analysis validates a viewing request, runs the distance search and
// assembles the result record.
package analysis

import (
	"fmt"
	"math"

	"github.com/banshee-data/camreach/internal/camera"
	"github.com/banshee-data/camreach/internal/geometry"
	"github.com/banshee-data/camreach/internal/solver"
	"github.com/banshee-data/camreach/internal/units"
)

// Request is one analysis input. Zero CameraHeightMeters or MarkerGapMeters
// means "use the configured default".
type Request struct {
	ZoomLevel          float64 `json:"zoomLevel"`
	MinPixelGap        float64 `json:"minPixelGapPixels"`
	CameraHeightMeters float64 `json:"cameraHeightMeters,omitempty"`
	MarkerGapMeters    float64 `json:"markerGapMeters,omitempty"`
}

// CameraViewAnalysis is the result of one analysis. DistanceMeters is always
// LineCount * MarkerGapMeters.
type CameraViewAnalysis struct {
	ZoomLevel          float64
	MinPixelGap        float64
	CameraHeightMeters float64
	MarkerGapMeters    float64

	DistanceMeters float64
	Tilt           units.Angle
	LineCount      int
	FocalLengthMM  float64

	// TiltConverged is false when the tilt is a best-effort estimate
	// (clamped near level, or the Newton budget ran out).
	TiltConverged bool
}

// Record is the external output shape.
type Record struct {
	DistanceMeters   float64 `json:"distanceMeters"`
	TiltAngleRadians float64 `json:"tiltAngleRadians"`
	TiltAngleDegrees float64 `json:"tiltAngleDegrees"`
	LineCount        int     `json:"lineCount"`
	FocalLengthMM    float64 `json:"focalLengthMm"`
}

// Record converts the analysis to its external output shape.
func (a CameraViewAnalysis) Record() Record {
	return Record{
		DistanceMeters:   a.DistanceMeters,
		TiltAngleRadians: a.Tilt.Radians(),
		TiltAngleDegrees: a.Tilt.Degrees(),
		LineCount:        a.LineCount,
		FocalLengthMM:    a.FocalLengthMM,
	}
}

// Params returns the projection parameters the analysis settled on, for
// renderers that project each marking themselves.
func (a CameraViewAnalysis) Params() geometry.Params {
	return geometry.Params{FocalLengthMM: a.FocalLengthMM, Tilt: a.Tilt, HeightMeters: a.CameraHeightMeters}
}

// Analyzer runs analyses against one rig. It holds no mutable state and is
// safe for concurrent use.
type Analyzer struct {
	cfg camera.Configuration
}

// NewAnalyzer validates cfg and returns an Analyzer for it.
func NewAnalyzer(cfg camera.Configuration) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

// Config returns the rig configuration.
func (a *Analyzer) Config() camera.Configuration { return a.cfg }

// ConfigFor returns the rig configuration with the request's overrides applied.
func (a *Analyzer) ConfigFor(req Request) camera.Configuration {
	cfg := a.cfg
	if req.CameraHeightMeters != 0 {
		cfg = cfg.WithHeight(req.CameraHeightMeters)
	}
	if req.MarkerGapMeters != 0 {
		cfg = cfg.WithMarkerGap(req.MarkerGapMeters)
	}
	return cfg
}

func validate(req Request) error {
	switch {
	case math.IsNaN(req.ZoomLevel) || math.IsInf(req.ZoomLevel, 0) || req.ZoomLevel < 1:
		return &ValidationError{Field: "zoom level", Value: req.ZoomLevel, Reason: "must be a finite number >= 1"}
	case math.IsNaN(req.MinPixelGap) || math.IsInf(req.MinPixelGap, 0) || req.MinPixelGap < 0:
		return &ValidationError{Field: "minimum pixel gap", Value: req.MinPixelGap, Reason: "must be a finite number >= 0"}
	case math.IsNaN(req.CameraHeightMeters) || math.IsInf(req.CameraHeightMeters, 0) || req.CameraHeightMeters < 0:
		return &ValidationError{Field: "camera height", Value: req.CameraHeightMeters, Reason: "must be positive"}
	case math.IsNaN(req.MarkerGapMeters) || math.IsInf(req.MarkerGapMeters, 0) || req.MarkerGapMeters < 0:
		return &ValidationError{Field: "marker gap", Value: req.MarkerGapMeters, Reason: "must be positive"}
	}
	return nil
}

// Analyze finds the farthest marking distance at req.ZoomLevel whose pixel
// gap to the previous marking is at least req.MinPixelGap, and the tilt that
// frames it.
//
// A gap larger than the frame returns the zero-line result together with an
// *ImpossibleConstraintError, so callers that tabulate results can still
// record the row. A gap exactly equal to the frame height yields one line.
func (a *Analyzer) Analyze(req Request) (CameraViewAnalysis, error) {
	if err := validate(req); err != nil {
		return CameraViewAnalysis{}, err
	}

	cfg := a.ConfigFor(req)
	zoom := camera.NewZoomLevel(req.ZoomLevel, cfg)
	out := CameraViewAnalysis{
		ZoomLevel:          req.ZoomLevel,
		MinPixelGap:        req.MinPixelGap,
		CameraHeightMeters: cfg.HeightMeters,
		MarkerGapMeters:    cfg.MarkerGapMeters,
		FocalLengthMM:      zoom.FocalLengthMM(),
	}

	rows := cfg.VerticalResolution()
	if req.MinPixelGap > rows {
		return out, &ImpossibleConstraintError{MinPixelGap: req.MinPixelGap, VerticalResolution: rows}
	}

	problem := solver.NewProblem(cfg, zoom.FocalLengthMM())

	if req.MinPixelGap == rows {
		out.LineCount = 1
		out.DistanceMeters = cfg.MarkerGapMeters
	} else {
		reach, err := solver.MaxDistance(problem, cfg.MarkerGapMeters, req.MinPixelGap)
		if err != nil {
			return CameraViewAnalysis{}, fmt.Errorf("zoom %g, gap %g px: %w", req.ZoomLevel, req.MinPixelGap, err)
		}
		out.LineCount = reach.Lines
		out.DistanceMeters = reach.DistanceMeters
	}

	tilt := problem.SolveTilt(out.DistanceMeters)
	out.Tilt = tilt.Tilt
	out.TiltConverged = tilt.Converged
	return out, nil
}
