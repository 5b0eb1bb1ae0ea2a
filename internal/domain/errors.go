package domain

import (
	"errors"
	"fmt"

	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Error kinds surfaced by the engines. Test with errors.Is.
var (
	// ErrInsufficientData means the series is shorter than the requested method needs.
	ErrInsufficientData = formulas.ErrInsufficientData

	// ErrInvalidInput means input data is structurally malformed (empty, NaN, unordered dates,
	// negative weights).
	ErrInvalidInput = formulas.ErrInvalidInput

	// ErrInvalidConfiguration means a rule, scenario or engine parameter is malformed.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnsupportedConfidenceLevel is an ErrInvalidConfiguration for confidence levels
	// outside the supported set.
	ErrUnsupportedConfidenceLevel = fmt.Errorf("%w: unsupported confidence level", ErrInvalidConfiguration)

	// ErrNotFound means a scenario, run or report id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrCancelled means the computation was cancelled cooperatively. No partial result
	// accompanies it.
	ErrCancelled = errors.New("cancelled")
)

// Cancelled wraps a context error as ErrCancelled.
func Cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
