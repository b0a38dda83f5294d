package domain

import "errors"

// Field decode errors for raw ticker values.
var (
	// ErrFieldMissing is returned when a required ticker field is absent.
	ErrFieldMissing = errors.New("field missing")

	// ErrFieldInvalid is returned when a ticker field is not numeric.
	ErrFieldInvalid = errors.New("field not numeric")
)
