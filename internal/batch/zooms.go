// Package batch evaluates one minimum pixel gap across many zoom levels.
package batch

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// maxZoomValues caps how many zoom levels a single list may expand to.
const maxZoomValues = 10000

// RangeSpec is a stepped zoom range, inclusive at both ends.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}

	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}

	step, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid step value %q: %w", parts[2], err)
	}

	if step <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %f", step)
	}

	return RangeSpec{Min: min, Max: max, Step: step}, nil
}

// GenerateRange generates values from min to max (inclusive) stepping by
// step, rounded to 1e-3 to avoid accumulation drift. Returns nil if the range
// is empty or would exceed maxZoomValues.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}

	expectedCount := int((max-min)/step) + 1
	if expectedCount > maxZoomValues || expectedCount < 0 {
		return nil
	}

	var result []float64
	for i := 0; i < expectedCount+1 && len(result) < maxZoomValues; i++ {
		rounded := math.Round((min+float64(i)*step)*1000) / 1000
		if rounded <= max {
			result = append(result, rounded)
		}
	}
	return result
}

// parseDashRange parses an inclusive integer range "a-b".
func parseDashRange(s string) ([]float64, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid range %q: expected start-end", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", parts[0], err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("invalid range end %q: %w", parts[1], err)
	}
	if end < start {
		return nil, fmt.Errorf("invalid range %q: end before start", s)
	}
	if start < 1 {
		return nil, fmt.Errorf("zoom %d in %q must be >= 1", start, s)
	}
	if end-start >= maxZoomValues {
		return nil, fmt.Errorf("range %q exceeds %d values", s, maxZoomValues)
	}
	out := make([]float64, 0, end-start+1)
	for v := start; v <= end; v++ {
		out = append(out, float64(v))
	}
	return out, nil
}

// ParseZoomList parses a comma-separated zoom list. Each item is a single
// value ("7", "2.5"), an inclusive integer range ("1-5"), or a stepped range
// ("1:25:2"). The result is sorted and deduplicated; every zoom must be >= 1.
func ParseZoomList(s string) ([]float64, error) {
	var all []float64
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		var values []float64
		var err error
		switch {
		case strings.Contains(item, ":"):
			var rs RangeSpec
			rs, err = ParseRangeSpec(item)
			if err == nil {
				values = GenerateRange(rs.Min, rs.Max, rs.Step)
				if values == nil {
					err = fmt.Errorf("range %q is empty or too large", item)
				}
			}
		case strings.Contains(item, "-"):
			values, err = parseDashRange(item)
		default:
			var v float64
			v, err = strconv.ParseFloat(item, 64)
			if err != nil {
				err = fmt.Errorf("invalid zoom %q: %w", item, err)
			}
			values = []float64{v}
		}
		if err != nil {
			return nil, err
		}

		for _, v := range values {
			if math.IsNaN(v) || v < 1 {
				return nil, fmt.Errorf("zoom %g in %q must be >= 1", v, item)
			}
		}
		all = append(all, values...)
		if len(all) > maxZoomValues {
			return nil, fmt.Errorf("zoom list exceeds %d values", maxZoomValues)
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("zoom list %q is empty", s)
	}

	sort.Float64s(all)
	out := all[:1]
	for _, v := range all[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out, nil
}
