package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	ErrDataLoad          = errors.New("data load failed")
	ErrInvalidRedshift   = errors.New("invalid redshift")
	ErrFitDivergence     = errors.New("fit did not converge")
	ErrInsufficientData  = errors.New("insufficient data for analysis")
	ErrInvalidCoordinate = errors.New("invalid sky coordinate")

	ErrSingularCovariance = fmt.Errorf("%w: singular covariance", ErrFitDivergence)
	ErrIterationLimit     = fmt.Errorf("%w: iteration limit reached", ErrFitDivergence)
)

// DataLoadError reports an unreadable table or absent required columns.
type DataLoadError struct {
	Path    string
	Missing []string
	Present []string
	Err     error
}

func (e *DataLoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load %s", e.Path)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing columns [%s], present [%s]",
			strings.Join(e.Missing, ", "), strings.Join(e.Present, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DataLoadError) Unwrap() error { return e.Err }

func (e *DataLoadError) Is(target error) bool { return target == ErrDataLoad }

// Error constructors with context
func NewMissingColumnsError(path string, missing, present []string) error {
	return &DataLoadError{Path: path, Missing: missing, Present: present}
}

// NewInvalidRedshiftError names the offending row; row < 0 means no row context.
func NewInvalidRedshiftError(row int, z float64) error {
	if row < 0 {
		return fmt.Errorf("%w: z=%g (must be > 0)", ErrInvalidRedshift, z)
	}
	return fmt.Errorf("%w: row %d has z=%g (must be > 0)", ErrInvalidRedshift, row, z)
}

func NewInsufficientDataError(rows, params int) error {
	return fmt.Errorf("%w: %d rows for %d parameters (dof=%d)", ErrInsufficientData, rows, params, rows-params)
}

func NewInvalidCoordinateError(what string, value float64) error {
	return fmt.Errorf("%w: %s=%g", ErrInvalidCoordinate, what, value)
}

// Error checking helpers
func IsDataLoadError(err error) bool {
	return errors.Is(err, ErrDataLoad)
}

func IsFitError(err error) bool {
	return errors.Is(err, ErrFitDivergence) || errors.Is(err, ErrInsufficientData)
}
