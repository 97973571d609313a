// Package units provides shared constants and validation for distance units
// and the canonical angle type used across the projection code.
package units

// Unit constants
const (
	Meters = "m"
	Feet   = "ft"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Meters, Feet}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, ft"
}

// ConvertDistance converts a distance in meters to the target units.
// All analysis results are computed in meters.
func ConvertDistance(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case Feet:
		return meters / 0.3048
	case Meters:
		return meters
	default:
		return meters
	}
}
