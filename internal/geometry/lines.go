package geometry

// GroundLine is one evenly spaced ground marking. Index 1 is the marking
// nearest the camera foot.
type GroundLine struct {
	Index          int
	DistanceMeters float64
}

// NewGroundLine returns marking n for the given spacing.
func NewGroundLine(n int, markerGap float64) GroundLine {
	return GroundLine{Index: n, DistanceMeters: float64(n) * markerGap}
}

// Lines enumerates markings 1..count.
func Lines(count int, markerGap float64) []GroundLine {
	if count <= 0 {
		return nil
	}
	out := make([]GroundLine, count)
	for i := range out {
		out[i] = NewGroundLine(i+1, markerGap)
	}
	return out
}

// LineRow pairs a marking with its projected row.
type LineRow struct {
	Line GroundLine
	Row  float64
}

// ProjectLines projects each marking, skipping any behind the camera.
func ProjectLines(lines []GroundLine, p Params, s Sensor) []LineRow {
	out := make([]LineRow, 0, len(lines))
	for _, l := range lines {
		row, err := Project(l.DistanceMeters, p, s)
		if err != nil {
			continue
		}
		out = append(out, LineRow{Line: l, Row: row})
	}
	return out
}
