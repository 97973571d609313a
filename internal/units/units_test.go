package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid meters", Meters, true},
		{"valid feet", Feet, true},
		{"invalid unit", "yd", false},
		{"empty unit", "", false},
		{"uppercase M", "M", false}, // Case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	result := GetValidUnitsString()
	expected := "m, ft"
	if result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}

func TestConvertDistance(t *testing.T) {
	tests := []struct {
		name     string
		meters   float64
		unit     string
		expected float64
	}{
		{"0 m to m", 0.0, Meters, 0.0},
		{"212 m to m", 212.0, Meters, 212.0},
		{"0 m to ft", 0.0, Feet, 0.0},
		{"0.3048 m to ft", 0.3048, Feet, 1.0},
		{"100 m to ft", 100.0, Feet, 328.0839895013123},
		// Unknown unit falls back to meters
		{"5 m to unknown", 5.0, "unknown", 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertDistance(tt.meters, tt.unit)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertDistance(%f, %s) = %f, want %f", tt.meters, tt.unit, result, tt.expected)
			}
		})
	}
}
