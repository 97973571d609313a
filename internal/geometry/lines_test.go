package geometry

import (
	"testing"

	"github.com/banshee-data/camreach/internal/units"
	"github.com/google/go-cmp/cmp"
)

func TestLines(t *testing.T) {
	want := []GroundLine{
		{Index: 1, DistanceMeters: 2},
		{Index: 2, DistanceMeters: 4},
		{Index: 3, DistanceMeters: 6},
	}
	if diff := cmp.Diff(want, Lines(3, 2)); diff != "" {
		t.Errorf("Lines(3, 2) mismatch (-want +got):\n%s", diff)
	}
	if got := Lines(0, 2); got != nil {
		t.Errorf("Lines(0, 2) = %v, want nil", got)
	}
}

func TestProjectLinesSkipsBehindCamera(t *testing.T) {
	s := defaultSensor()
	// Pitched up: the nearest markings are behind the lens, farther ones are not.
	p := Params{FocalLengthMM: 24, Tilt: units.Degrees(-60), HeightMeters: 20}

	rows := ProjectLines(Lines(30, 2), p, s)
	if len(rows) == 0 || len(rows) >= 30 {
		t.Fatalf("expected some but not all lines projected, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Line.DistanceMeters <= 20*units.Degrees(60).Tan() {
			t.Errorf("marking %d at %v m should be behind the camera", r.Line.Index, r.Line.DistanceMeters)
		}
	}
}
