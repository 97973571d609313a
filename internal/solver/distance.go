package solver

import (
	"errors"
	"fmt"

	"github.com/banshee-data/camreach/internal/geometry"
	"github.com/banshee-data/camreach/internal/units"
)

const (
	initialBoundLines = 16
	// maxDoublings only trips on a bug or a requirement that every distance
	// satisfies (minPixelGap == 0). 16 << 40 lines is far past any horizon.
	maxDoublings  = 40
	maxBisections = 64
)

// ErrSearchExhausted means the bound expansion never found an infeasible
// distance. It is an internal computation error, not a result.
var ErrSearchExhausted = errors.New("distance search exhausted bound expansion")

// Reach is the farthest marking that still resolves.
type Reach struct {
	Lines          int
	DistanceMeters float64
	Evaluations    int
}

// GapAt returns the pixel gap between the marking at distance and the one
// markerGap nearer, with the camera tilted by SolveTilt(distance).
func (p Problem) GapAt(distance, markerGap float64) (float64, units.Angle, error) {
	tilt := p.SolveTilt(distance).Tilt
	gap, err := geometry.PixelGap(distance, distance-markerGap, p.Params(tilt), p.Sensor)
	return gap, tilt, err
}

type search struct {
	problem     Problem
	markerGap   float64
	minPixelGap float64
	evals       int
}

// feasible reports whether marking n still clears minPixelGap against n-1.
// The first marking has no predecessor and is always visible here; callers
// have already ruled out minPixelGap above the frame height.
func (s *search) feasible(n int) bool {
	if n <= 1 {
		return true
	}
	s.evals++
	gap, _, err := s.problem.GapAt(float64(n)*s.markerGap, s.markerGap)
	if err != nil {
		// Behind the camera: treat the probe as failed.
		return false
	}
	return gap >= s.minPixelGap
}

// MaxDistance returns the farthest multiple of markerGap whose marking is at
// least minPixelGap rows from its predecessor.
//
// The upper bound starts at a few markings and doubles while still feasible,
// so there is no ceiling on the answer. Bisection then runs on whole line
// counts, which is the same as flooring every probe to a markerGap multiple.
func MaxDistance(p Problem, markerGap, minPixelGap float64) (Reach, error) {
	if markerGap <= 0 {
		return Reach{}, fmt.Errorf("marker gap must be positive, got %g", markerGap)
	}
	rows := p.Sensor.RowsPx
	switch {
	case minPixelGap > rows:
		return Reach{}, nil
	case minPixelGap == rows:
		return Reach{Lines: 1, DistanceMeters: markerGap}, nil
	}

	s := &search{problem: p, markerGap: markerGap, minPixelGap: minPixelGap}

	lo, hi := 1, initialBoundLines
	doublings := 0
	for s.feasible(hi) {
		if doublings == maxDoublings {
			return Reach{Evaluations: s.evals}, fmt.Errorf("%w: still feasible at %g m after %d doublings",
				ErrSearchExhausted, float64(hi)*markerGap, doublings)
		}
		lo = hi
		hi *= 2
		doublings++
	}

	for i := 0; hi-lo > 1 && i < maxBisections; i++ {
		mid := lo + (hi-lo)/2
		if s.feasible(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}

	return Reach{Lines: lo, DistanceMeters: float64(lo) * markerGap, Evaluations: s.evals}, nil
}
