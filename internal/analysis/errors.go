package analysis

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every *ValidationError matches ErrValidation and
// every *ImpossibleConstraintError matches ErrImpossibleConstraint.
var (
	ErrValidation           = errors.New("invalid analysis request")
	ErrImpossibleConstraint = errors.New("impossible pixel gap constraint")
)

// ValidationError reports a request field outside its allowed range.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %g: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ImpossibleConstraintError reports a minimum pixel gap taller than the frame:
// no two markings can ever be that far apart on screen.
type ImpossibleConstraintError struct {
	MinPixelGap        float64
	VerticalResolution float64
}

func (e *ImpossibleConstraintError) Error() string {
	return fmt.Sprintf("minimum pixel gap %g exceeds vertical resolution %g", e.MinPixelGap, e.VerticalResolution)
}

// Is makes errors.Is(err, ErrImpossibleConstraint) hold.
func (e *ImpossibleConstraintError) Is(target error) bool { return target == ErrImpossibleConstraint }

// IsUserError reports whether err is one of the request-level failures a
// caller should show to the user rather than treat as a crash.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrImpossibleConstraint)
}
