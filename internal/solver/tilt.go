// Package solver finds the camera tilt that frames a target marking and the
// farthest marking distance that still resolves against its neighbour.
package solver

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/banshee-data/camreach/internal/camera"
	"github.com/banshee-data/camreach/internal/geometry"
	"github.com/banshee-data/camreach/internal/units"
)

const (
	maxNewtonIterations = 20
	newtonDamping       = 0.5
	derivativeStep      = 1e-4 // radians
	convergedPx         = 1.0
	minDerivative       = 1e-9 // px per radian
)

// Tilt is kept strictly inside (0, π/2): a level or vertical optical axis
// makes the projection degenerate.
var (
	minTilt = units.Radians(1e-6)
	maxTilt = units.Radians(math.Pi/2 - 1e-6)
)

// Problem holds everything fixed for one focal length.
type Problem struct {
	FocalLengthMM float64
	HeightMeters  float64
	Sensor        geometry.Sensor

	// TargetRow is the pixel row the solved tilt puts the target marking on.
	TargetRow float64
}

// NewProblem builds a Problem for cfg at the given focal length.
func NewProblem(cfg camera.Configuration, focalLengthMM float64) Problem {
	return Problem{
		FocalLengthMM: focalLengthMM,
		HeightMeters:  cfg.HeightMeters,
		Sensor:        geometry.SensorFrom(cfg),
		TargetRow:     cfg.TargetRowFraction * cfg.VerticalResolution(),
	}
}

// Params returns projection parameters at the given tilt.
func (p Problem) Params(tilt units.Angle) geometry.Params {
	return geometry.Params{FocalLengthMM: p.FocalLengthMM, Tilt: tilt, HeightMeters: p.HeightMeters}
}

// TiltSolution is the outcome of SolveTilt. Converged is false when the
// iteration budget ran out, the tilt hit a clamp, or the slope vanished;
// Tilt is still the best estimate seen.
type TiltSolution struct {
	Tilt       units.Angle
	ResidualPx float64
	Iterations int
	Converged  bool
}

// SolveTilt picks the tilt that projects the marking at target metres onto
// TargetRow, using damped Newton-Raphson from the look-at angle
// atan(height/target). It never fails.
func (p Problem) SolveTilt(target float64) TiltSolution {
	rowError := func(theta float64) float64 {
		row, err := geometry.Project(target, p.Params(units.Radians(theta)), p.Sensor)
		if err != nil {
			return math.NaN()
		}
		return row - p.TargetRow
	}

	theta := units.Atan(p.HeightMeters, target).Clamp(minTilt, maxTilt)
	best := TiltSolution{Tilt: theta, ResidualPx: math.Inf(1)}

	for i := 0; i < maxNewtonIterations; i++ {
		e := rowError(theta.Radians())
		if math.IsNaN(e) {
			break
		}
		if math.Abs(e) < math.Abs(best.ResidualPx) {
			best.Tilt, best.ResidualPx = theta, e
		}
		best.Iterations = i + 1
		if math.Abs(e) < convergedPx {
			best.Converged = true
			break
		}

		slope := fd.Derivative(rowError, theta.Radians(), &fd.Settings{
			Formula:     fd.Forward,
			Step:        derivativeStep,
			OriginKnown: true,
			OriginValue: e,
		})
		if math.IsNaN(slope) || math.Abs(slope) < minDerivative {
			break
		}

		next := units.Radians(theta.Radians() - newtonDamping*e/slope).Clamp(minTilt, maxTilt)
		if next == theta {
			break
		}
		theta = next
	}
	if math.IsInf(best.ResidualPx, 1) {
		best.ResidualPx = math.NaN()
	}
	return best
}
