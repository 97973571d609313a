package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/camreach/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestDefaultConfiguration(t *testing.T) {
	cfg := DefaultConfiguration()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 20.0, cfg.HeightMeters)
	assert.Equal(t, 2560, cfg.ResolutionWidthPx)
	assert.Equal(t, 1440, cfg.ResolutionHeightPx)
	assert.Equal(t, 4.8, cfg.MinFocalLengthMM)
	assert.Equal(t, 120.0, cfg.MaxFocalLengthMM)
	assert.Equal(t, 2.0, cfg.MarkerGapMeters)
	assert.Equal(t, 1440.0, cfg.VerticalResolution())
}

func TestSensorSize(t *testing.T) {
	cfg := DefaultConfiguration()

	// 60° HFOV at 4.8 mm: width = 2 * 4.8 * tan(30°)
	wantWidth := 5.542562584220407
	if !scalar.EqualWithinAbs(cfg.SensorWidthMM(), wantWidth, 1e-9) {
		t.Errorf("SensorWidthMM() = %v, want %v", cfg.SensorWidthMM(), wantWidth)
	}
	wantHeight := wantWidth * 1440 / 2560
	if !scalar.EqualWithinAbs(cfg.SensorHeightMM(), wantHeight, 1e-9) {
		t.Errorf("SensorHeightMM() = %v, want %v", cfg.SensorHeightMM(), wantHeight)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
	}{
		{"zero height", func(c *Configuration) { c.HeightMeters = 0 }},
		{"negative height", func(c *Configuration) { c.HeightMeters = -1 }},
		{"zero width", func(c *Configuration) { c.ResolutionWidthPx = 0 }},
		{"zero vertical resolution", func(c *Configuration) { c.ResolutionHeightPx = 0 }},
		{"zero min focal", func(c *Configuration) { c.MinFocalLengthMM = 0 }},
		{"max below min", func(c *Configuration) { c.MaxFocalLengthMM = 2 }},
		{"max focal NaN", func(c *Configuration) { c.MaxFocalLengthMM = math.NaN() }},
		{"zero fov", func(c *Configuration) { c.ReferenceHFOV = units.Degrees(0) }},
		{"fov too wide", func(c *Configuration) { c.ReferenceHFOV = units.Degrees(180) }},
		{"zero marker gap", func(c *Configuration) { c.MarkerGapMeters = 0 }},
		{"target row above centre", func(c *Configuration) { c.TargetRowFraction = 0.4 }},
		{"target row off frame", func(c *Configuration) { c.TargetRowFraction = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Validate() = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestWithOverridesDoNotMutate(t *testing.T) {
	base := DefaultConfiguration()
	taller := base.WithHeight(35).WithMarkerGap(5)

	assert.Equal(t, 35.0, taller.HeightMeters)
	assert.Equal(t, 5.0, taller.MarkerGapMeters)
	assert.Equal(t, 20.0, base.HeightMeters)
	assert.Equal(t, 2.0, base.MarkerGapMeters)
}
