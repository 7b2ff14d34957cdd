package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors raised before any remote call.
	ErrorValidation = errors.New("validation error")
)
