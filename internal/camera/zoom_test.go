package camera

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestNewZoomLevel(t *testing.T) {
	cfg := DefaultConfiguration()

	tests := []struct {
		name      string
		level     float64
		wantFocal float64
	}{
		{"base zoom", 1, 4.8},
		{"fractional zoom", 1.5, 7.2},
		{"zoom 5", 5, 24},
		{"zoom 25 hits optical max", 25, 120},
		{"beyond optical max clamps", 40, 120},
		{"below 1 clamps to min", 0.5, 4.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := NewZoomLevel(tt.level, cfg)
			if z.Level() != tt.level {
				t.Errorf("Level() = %v, want %v", z.Level(), tt.level)
			}
			if !scalar.EqualWithinAbs(z.FocalLengthMM(), tt.wantFocal, 1e-9) {
				t.Errorf("FocalLengthMM() = %v, want %v", z.FocalLengthMM(), tt.wantFocal)
			}
		})
	}
}

func TestZoomFocalLengthWithinBounds(t *testing.T) {
	cfg := DefaultConfiguration()
	for level := 1.0; level <= 100; level += 0.25 {
		f := NewZoomLevel(level, cfg).FocalLengthMM()
		if f < cfg.MinFocalLengthMM || f > cfg.MaxFocalLengthMM {
			t.Fatalf("zoom %v: focal %v outside [%v, %v]", level, f, cfg.MinFocalLengthMM, cfg.MaxFocalLengthMM)
		}
	}
}
