// Package geometry implements the pinhole projection of ground markings onto
// the image rows of a pitched camera.
//
// Coordinate convention: the camera sits HeightMeters above a flat ground
// plane and looks along the ground azimuth, pitched down by Tilt. In the
// camera frame Y is up and Z is along the optical axis. Pixel rows grow
// downward, so nearer markings land on larger rows (bottom of the frame) and
// farther markings on smaller rows (top of the frame).
package geometry

import (
	"errors"
	"math"

	"github.com/banshee-data/camreach/internal/camera"
	"github.com/banshee-data/camreach/internal/units"
)

// ErrBehindCamera is returned when a ground point is not in front of the
// lens. Solvers treat it as a failed probe, not a fatal error.
var ErrBehindCamera = errors.New("ground point is behind the camera")

// Params are the inputs to a single projection.
type Params struct {
	FocalLengthMM float64
	Tilt          units.Angle
	HeightMeters  float64
}

// Sensor is the part of the rig geometry the projection needs.
type Sensor struct {
	HeightMM float64
	RowsPx   float64
}

// SensorFrom extracts the projection sensor from a camera configuration.
func SensorFrom(cfg camera.Configuration) Sensor {
	return Sensor{HeightMM: cfg.SensorHeightMM(), RowsPx: cfg.VerticalResolution()}
}

// cameraFrame rotates the ground point (d metres out, HeightMeters below the
// lens) into the pitched camera frame.
func cameraFrame(distance float64, p Params) (y, z float64) {
	s, c := p.Tilt.Sin(), p.Tilt.Cos()
	y = -p.HeightMeters*c + distance*s
	z = p.HeightMeters*s + distance*c
	return y, z
}

// Project returns the pixel row of the ground point at distance metres.
// The row may fall outside [0, RowsPx) when the point is off-frame.
func Project(distance float64, p Params, s Sensor) (float64, error) {
	y, z := cameraFrame(distance, p)
	if z <= 0 {
		return 0, ErrBehindCamera
	}
	yImg := p.FocalLengthMM * (y / z)
	return (0.5 - yImg/s.HeightMM) * s.RowsPx, nil
}

// PixelGap returns the absolute row separation of the ground points at
// distances a and b.
//
// Differencing two projected rows loses precision at long range where both
// rows approach the horizon. Expanding y/z for both points gives
// ya*zb - yb*za = H*(a-b), so the gap is computed from that directly.
func PixelGap(a, b float64, p Params, s Sensor) (float64, error) {
	_, za := cameraFrame(a, p)
	_, zb := cameraFrame(b, p)
	if za <= 0 || zb <= 0 {
		return 0, ErrBehindCamera
	}
	dImg := p.FocalLengthMM * p.HeightMeters * (a - b) / (za * zb)
	return math.Abs(dImg) / s.HeightMM * s.RowsPx, nil
}
