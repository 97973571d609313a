package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/camreach/internal/camera"
	"github.com/banshee-data/camreach/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

func defaultSensor() Sensor {
	return SensorFrom(camera.DefaultConfiguration())
}

func TestProjectOpticalAxisLandsOnCentreRow(t *testing.T) {
	s := defaultSensor()
	for _, d := range []float64{5, 20, 80, 300, 2000} {
		p := Params{FocalLengthMM: 24, Tilt: units.Atan(20, d), HeightMeters: 20}
		row, err := Project(d, p, s)
		require.NoError(t, err)
		if !scalar.EqualWithinAbs(row, s.RowsPx/2, 1e-6) {
			t.Errorf("d=%v: row %v, want centre %v", d, row, s.RowsPx/2)
		}
	}
}

func TestProjectKnownValue(t *testing.T) {
	s := defaultSensor()
	// Level camera, point 20 m out and 20 m down: y/z = -1, so yImg = -f.
	p := Params{FocalLengthMM: 4.8, Tilt: units.Radians(0), HeightMeters: 20}
	row, err := Project(20, p, s)
	require.NoError(t, err)

	want := (0.5 + 4.8/s.HeightMM) * 1440
	if !scalar.EqualWithinAbs(row, want, 1e-6) {
		t.Errorf("row = %v, want %v", row, want)
	}
}

// Nearer markings must always project below farther ones. An inverted sign
// here renders the strip upside down while every distance still "works".
func TestProjectNearerMarkingsAreLowerInFrame(t *testing.T) {
	s := defaultSensor()
	tilts := []units.Angle{units.Degrees(0.01), units.Degrees(2), units.Degrees(10), units.Degrees(45), units.Degrees(80)}
	for _, tilt := range tilts {
		p := Params{FocalLengthMM: 24, Tilt: tilt, HeightMeters: 20}
		prev := math.Inf(1)
		for n := 1; n <= 400; n++ {
			row, err := Project(float64(n)*2, p, s)
			require.NoError(t, err)
			if row >= prev {
				t.Fatalf("tilt %.2f°: marking %d row %v not above marking %d row %v", tilt.Degrees(), n, row, n-1, prev)
			}
			prev = row
		}
	}
}

func TestProjectApproachesHorizon(t *testing.T) {
	s := defaultSensor()
	tilt := units.Degrees(3)
	p := Params{FocalLengthMM: 24, Tilt: tilt, HeightMeters: 20}

	row, err := Project(1e9, p, s)
	require.NoError(t, err)
	horizon := (0.5 - 24*tilt.Tan()/s.HeightMM) * s.RowsPx
	assert.InDelta(t, horizon, row, 0.01)
}

func TestProjectBehindCamera(t *testing.T) {
	s := defaultSensor()
	// Pitched up 60°: a point 5 m out is behind the image plane.
	p := Params{FocalLengthMM: 24, Tilt: units.Degrees(-60), HeightMeters: 20}

	_, err := Project(5, p, s)
	if !errors.Is(err, ErrBehindCamera) {
		t.Errorf("Project() error = %v, want ErrBehindCamera", err)
	}
	_, err = PixelGap(5, 3, p, s)
	if !errors.Is(err, ErrBehindCamera) {
		t.Errorf("PixelGap() error = %v, want ErrBehindCamera", err)
	}
}

func TestPixelGapMatchesRowDifference(t *testing.T) {
	s := defaultSensor()
	tests := []struct {
		name string
		p    Params
		a, b float64
	}{
		{"steep near", Params{FocalLengthMM: 4.8, Tilt: units.Degrees(40), HeightMeters: 20}, 20, 18},
		{"moderate", Params{FocalLengthMM: 24, Tilt: units.Degrees(5), HeightMeters: 20}, 210, 208},
		{"shallow far", Params{FocalLengthMM: 120, Tilt: units.Degrees(2), HeightMeters: 20}, 470, 468},
		{"reversed order", Params{FocalLengthMM: 24, Tilt: units.Degrees(5), HeightMeters: 20}, 100, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ra, err := Project(tt.a, tt.p, s)
			require.NoError(t, err)
			rb, err := Project(tt.b, tt.p, s)
			require.NoError(t, err)

			gap, err := PixelGap(tt.a, tt.b, tt.p, s)
			require.NoError(t, err)
			assert.InDelta(t, math.Abs(ra-rb), gap, 1e-6)
			assert.Greater(t, gap, 0.0)
		})
	}
}

func TestPixelGapShrinksWithDistance(t *testing.T) {
	s := defaultSensor()
	p := Params{FocalLengthMM: 24, Tilt: units.Degrees(3), HeightMeters: 20}
	prev := math.Inf(1)
	for d := 4.0; d < 5000; d *= 1.5 {
		gap, err := PixelGap(d, d-2, p, s)
		require.NoError(t, err)
		if gap >= prev {
			t.Fatalf("gap at %v m (%v) not below gap nearer in (%v)", d, gap, prev)
		}
		prev = gap
	}
}
