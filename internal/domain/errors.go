package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection reports that the source or destination store is unreachable.
	ErrConnection = errors.New("connection error")

	// ErrQuery reports a malformed filter, a failed aggregation or a failed
	// command against either store.
	ErrQuery = errors.New("query error")

	// ErrMalformedDocument marks a measurement that lacks a required field.
	// The pipeline skips such documents instead of failing the run.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrUnsupportedGeometryType matches any *UnsupportedGeometryTypeError.
	ErrUnsupportedGeometryType = errors.New("unsupported geometry type")
)

// UnsupportedGeometryTypeError carries the GeoJSON type discriminator that
// has no encoder.
type UnsupportedGeometryTypeError struct {
	Type string
}

func (e *UnsupportedGeometryTypeError) Error() string {
	return fmt.Sprintf("unsupported geometry type: %q", e.Type)
}

func (e *UnsupportedGeometryTypeError) Is(target error) bool {
	return target == ErrUnsupportedGeometryType
}
