package camera

// ZoomLevel is a requested optical zoom and the focal length it maps to.
// The focal length is computed once at construction.
type ZoomLevel struct {
	level float64
	focal float64
}

// NewZoomLevel maps level linearly onto the focal range of cfg:
// f = MinFocalLengthMM * level, clamped to [MinFocalLengthMM, MaxFocalLengthMM].
// There is no upper bound on level; anything past the optical maximum
// saturates at MaxFocalLengthMM. Callers validate level >= 1 first.
func NewZoomLevel(level float64, cfg Configuration) ZoomLevel {
	f := cfg.MinFocalLengthMM * level
	if f < cfg.MinFocalLengthMM {
		f = cfg.MinFocalLengthMM
	}
	if f > cfg.MaxFocalLengthMM {
		f = cfg.MaxFocalLengthMM
	}
	return ZoomLevel{level: level, focal: f}
}

// Level returns the requested zoom level.
func (z ZoomLevel) Level() float64 { return z.level }

// FocalLengthMM returns the focal length in millimetres.
func (z ZoomLevel) FocalLengthMM() float64 { return z.focal }
