package treesearch

import (
	"errors"
	"fmt"

	"github.com/hupe1980/treesearch/tree"
)

var (
	// ErrInvalidParameter is the root of all parameter validation failures.
	// Typed errors wrapping it carry the offending parameter.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDimensionMismatch is the root of all dimensionality failures.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// ParameterError reports a parameter outside its valid range.
//
// It wraps ErrInvalidParameter, so errors.Is(err, ErrInvalidParameter)
// matches it.
type ParameterError struct {
	Name   string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Name, e.Reason)
}

func (e *ParameterError) Unwrap() error { return ErrInvalidParameter }

// DimensionError reports a query/reference dimensionality mismatch.
//
// It wraps ErrDimensionMismatch, so errors.Is(err, ErrDimensionMismatch)
// matches it.
type DimensionError struct {
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// translateError normalizes subpackage errors into the root error families.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var io *tree.ErrInvalidOption
	if errors.As(err, &io) {
		return &ParameterError{Name: io.Name, Reason: io.Reason}
	}

	var ed *tree.ErrEmptyDataset
	if errors.As(err, &ed) {
		return &ParameterError{Name: "reference", Reason: "must not be empty"}
	}

	return err
}
