// Package camera holds the fixed rig geometry and the zoom-to-focal-length
// mapping shared by the projection and search code.
package camera

import (
	"errors"
	"fmt"

	"github.com/banshee-data/camreach/internal/units"
)

// Default rig values. These match the pole-mounted PTZ units the tool was
// calibrated against.
const (
	DefaultHeightMeters       = 20.0
	DefaultResolutionWidthPx  = 2560
	DefaultResolutionHeightPx = 1440
	DefaultMinFocalLengthMM   = 4.8
	DefaultMaxFocalLengthMM   = 120.0
	DefaultReferenceHFOVDeg   = 60.0
	DefaultMarkerGapMeters    = 2.0
	DefaultTargetRowFraction  = 0.9
)

// Configuration is the static rig geometry. It is a value type: construct it
// once and pass copies; nothing mutates it after Validate succeeds.
type Configuration struct {
	HeightMeters       float64
	ResolutionWidthPx  int
	ResolutionHeightPx int
	MinFocalLengthMM   float64
	MaxFocalLengthMM   float64

	// ReferenceHFOV is the horizontal field of view at MinFocalLengthMM.
	// The physical sensor size is derived from it.
	ReferenceHFOV units.Angle

	MarkerGapMeters float64

	// TargetRowFraction is where the tilt solver places the farthest
	// marking, as a fraction of the vertical resolution from the top.
	TargetRowFraction float64
}

// DefaultConfiguration returns the reference rig.
func DefaultConfiguration() Configuration {
	return Configuration{
		HeightMeters:       DefaultHeightMeters,
		ResolutionWidthPx:  DefaultResolutionWidthPx,
		ResolutionHeightPx: DefaultResolutionHeightPx,
		MinFocalLengthMM:   DefaultMinFocalLengthMM,
		MaxFocalLengthMM:   DefaultMaxFocalLengthMM,
		ReferenceHFOV:      units.Degrees(DefaultReferenceHFOVDeg),
		MarkerGapMeters:    DefaultMarkerGapMeters,
		TargetRowFraction:  DefaultTargetRowFraction,
	}
}

// ErrInvalidConfiguration is wrapped by every error returned from Validate.
var ErrInvalidConfiguration = errors.New("invalid camera configuration")

// Validate checks that the configuration describes a usable rig.
func (c Configuration) Validate() error {
	switch {
	case !(c.HeightMeters > 0):
		return fmt.Errorf("%w: height must be positive, got %g", ErrInvalidConfiguration, c.HeightMeters)
	case c.ResolutionWidthPx <= 0 || c.ResolutionHeightPx <= 0:
		return fmt.Errorf("%w: resolution must be positive, got %dx%d", ErrInvalidConfiguration, c.ResolutionWidthPx, c.ResolutionHeightPx)
	case !(c.MinFocalLengthMM > 0):
		return fmt.Errorf("%w: min focal length must be positive, got %g", ErrInvalidConfiguration, c.MinFocalLengthMM)
	case !(c.MaxFocalLengthMM >= c.MinFocalLengthMM):
		return fmt.Errorf("%w: max focal length %g must be at least min %g", ErrInvalidConfiguration, c.MaxFocalLengthMM, c.MinFocalLengthMM)
	case !(c.ReferenceHFOV.Degrees() > 0 && c.ReferenceHFOV.Degrees() < 180):
		return fmt.Errorf("%w: reference field of view must be in (0, 180) degrees, got %g", ErrInvalidConfiguration, c.ReferenceHFOV.Degrees())
	case !(c.MarkerGapMeters > 0):
		return fmt.Errorf("%w: marker gap must be positive, got %g", ErrInvalidConfiguration, c.MarkerGapMeters)
	case !(c.TargetRowFraction > 0.5 && c.TargetRowFraction < 1):
		return fmt.Errorf("%w: target row fraction must be in (0.5, 1), got %g", ErrInvalidConfiguration, c.TargetRowFraction)
	}
	return nil
}

// SensorWidthMM returns the physical sensor width implied by the reference
// field of view at the base focal length.
func (c Configuration) SensorWidthMM() float64 {
	half := units.Radians(c.ReferenceHFOV.Radians() / 2)
	return 2 * c.MinFocalLengthMM * half.Tan()
}

// SensorHeightMM returns the physical sensor height, assuming square pixels.
func (c Configuration) SensorHeightMM() float64 {
	return c.SensorWidthMM() * float64(c.ResolutionHeightPx) / float64(c.ResolutionWidthPx)
}

// VerticalResolution returns the vertical pixel count as a float64.
func (c Configuration) VerticalResolution() float64 {
	return float64(c.ResolutionHeightPx)
}

// WithHeight returns a copy of c with a different mounting height.
func (c Configuration) WithHeight(meters float64) Configuration {
	c.HeightMeters = meters
	return c
}

// WithMarkerGap returns a copy of c with a different marker spacing.
func (c Configuration) WithMarkerGap(meters float64) Configuration {
	c.MarkerGapMeters = meters
	return c
}
