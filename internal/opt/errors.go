package opt

import (
	"strconv"
	"strings"
)

// InvalidInputError reports a malformed parameter or starting point.
// It is always returned before any objective evaluation has taken place.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Field + " " + e.Reason
}

func (e *InvalidInputError) Is(target error) bool {
	_, ok := target.(*InvalidInputError)
	return ok
}

// EvaluationError reports that the objective returned a non-finite value.
// The run fails at the point of detection; the offending value is never
// written into the simplex.
type EvaluationError struct {
	X     []float64
	Value float64
}

func (e *EvaluationError) Error() string {
	coords := make([]string, len(e.X))
	for i, v := range e.X {
		coords[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "objective returned non-finite value " +
		strconv.FormatFloat(e.Value, 'g', -1, 64) +
		" at [" + strings.Join(coords, ", ") + "]"
}

func (e *EvaluationError) Is(target error) bool {
	_, ok := target.(*EvaluationError)
	return ok
}
