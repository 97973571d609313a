package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/camreach/internal/camera"
	"github.com/banshee-data/camreach/internal/units"
)

// DefaultConfigPath is the path to the canonical camera defaults file.
const DefaultConfigPath = "config/camera.defaults.yaml"

// CameraFile is the on-disk rig description. Every field is optional; the
// Get* accessors fall back to the reference rig for anything omitted, so
// partial files are safe. The same keys work in JSON and YAML.
type CameraFile struct {
	HeightMeters       *float64 `json:"height_meters,omitempty" yaml:"height_meters,omitempty"`
	ResolutionWidthPx  *int     `json:"resolution_width_px,omitempty" yaml:"resolution_width_px,omitempty"`
	ResolutionHeightPx *int     `json:"resolution_height_px,omitempty" yaml:"resolution_height_px,omitempty"`
	MinFocalLengthMM   *float64 `json:"min_focal_length_mm,omitempty" yaml:"min_focal_length_mm,omitempty"`
	MaxFocalLengthMM   *float64 `json:"max_focal_length_mm,omitempty" yaml:"max_focal_length_mm,omitempty"`
	ReferenceHFOVDeg   *float64 `json:"reference_hfov_deg,omitempty" yaml:"reference_hfov_deg,omitempty"`
	MarkerGapMeters    *float64 `json:"marker_gap_meters,omitempty" yaml:"marker_gap_meters,omitempty"`
	TargetRowFraction  *float64 `json:"target_row_fraction,omitempty" yaml:"target_row_fraction,omitempty"`
}

// EmptyCameraFile returns a CameraFile with all fields set to nil.
func EmptyCameraFile() *CameraFile {
	return &CameraFile{}
}

// Load reads a CameraFile from a .json, .yaml or .yml file.
// The file must be under 1MB.
func Load(path string) (*CameraFile, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCameraFile()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching upward from the current directory. Panics if the file cannot be
// loaded, intended for test setup.
func MustLoadDefaultConfig() *CameraFile {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/camreach/
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks field ranges. It validates the merged rig, so cross-field
// rules (max focal >= min focal) also see defaults for omitted fields.
func (c *CameraFile) Validate() error {
	if c.HeightMeters != nil && *c.HeightMeters <= 0 {
		return fmt.Errorf("height_meters must be positive, got %f", *c.HeightMeters)
	}
	if c.ResolutionWidthPx != nil && *c.ResolutionWidthPx <= 0 {
		return fmt.Errorf("resolution_width_px must be positive, got %d", *c.ResolutionWidthPx)
	}
	if c.ResolutionHeightPx != nil && *c.ResolutionHeightPx <= 0 {
		return fmt.Errorf("resolution_height_px must be positive, got %d", *c.ResolutionHeightPx)
	}
	if c.ReferenceHFOVDeg != nil && (*c.ReferenceHFOVDeg <= 0 || *c.ReferenceHFOVDeg >= 180) {
		return fmt.Errorf("reference_hfov_deg must be between 0 and 180, got %f", *c.ReferenceHFOVDeg)
	}
	if c.TargetRowFraction != nil && (*c.TargetRowFraction <= 0.5 || *c.TargetRowFraction >= 1) {
		return fmt.Errorf("target_row_fraction must be between 0.5 and 1, got %f", *c.TargetRowFraction)
	}
	return c.CameraConfiguration().Validate()
}

// GetHeightMeters returns the height_meters value or the default.
func (c *CameraFile) GetHeightMeters() float64 {
	if c.HeightMeters == nil {
		return camera.DefaultHeightMeters
	}
	return *c.HeightMeters
}

// GetResolutionWidthPx returns the resolution_width_px value or the default.
func (c *CameraFile) GetResolutionWidthPx() int {
	if c.ResolutionWidthPx == nil {
		return camera.DefaultResolutionWidthPx
	}
	return *c.ResolutionWidthPx
}

// GetResolutionHeightPx returns the resolution_height_px value or the default.
func (c *CameraFile) GetResolutionHeightPx() int {
	if c.ResolutionHeightPx == nil {
		return camera.DefaultResolutionHeightPx
	}
	return *c.ResolutionHeightPx
}

// GetMinFocalLengthMM returns the min_focal_length_mm value or the default.
func (c *CameraFile) GetMinFocalLengthMM() float64 {
	if c.MinFocalLengthMM == nil {
		return camera.DefaultMinFocalLengthMM
	}
	return *c.MinFocalLengthMM
}

// GetMaxFocalLengthMM returns the max_focal_length_mm value or the default.
func (c *CameraFile) GetMaxFocalLengthMM() float64 {
	if c.MaxFocalLengthMM == nil {
		return camera.DefaultMaxFocalLengthMM
	}
	return *c.MaxFocalLengthMM
}

// GetReferenceHFOVDeg returns the reference_hfov_deg value or the default.
func (c *CameraFile) GetReferenceHFOVDeg() float64 {
	if c.ReferenceHFOVDeg == nil {
		return camera.DefaultReferenceHFOVDeg
	}
	return *c.ReferenceHFOVDeg
}

// GetMarkerGapMeters returns the marker_gap_meters value or the default.
func (c *CameraFile) GetMarkerGapMeters() float64 {
	if c.MarkerGapMeters == nil {
		return camera.DefaultMarkerGapMeters
	}
	return *c.MarkerGapMeters
}

// GetTargetRowFraction returns the target_row_fraction value or the default.
func (c *CameraFile) GetTargetRowFraction() float64 {
	if c.TargetRowFraction == nil {
		return camera.DefaultTargetRowFraction
	}
	return *c.TargetRowFraction
}

// CameraConfiguration merges the file over the reference rig.
func (c *CameraFile) CameraConfiguration() camera.Configuration {
	return camera.Configuration{
		HeightMeters:       c.GetHeightMeters(),
		ResolutionWidthPx:  c.GetResolutionWidthPx(),
		ResolutionHeightPx: c.GetResolutionHeightPx(),
		MinFocalLengthMM:   c.GetMinFocalLengthMM(),
		MaxFocalLengthMM:   c.GetMaxFocalLengthMM(),
		ReferenceHFOV:      units.Degrees(c.GetReferenceHFOVDeg()),
		MarkerGapMeters:    c.GetMarkerGapMeters(),
		TargetRowFraction:  c.GetTargetRowFraction(),
	}
}
