package errors

import "errors"

var (
	ErrNotFound = errors.New("payment not found")

	ErrInvalidID = errors.New("invalid payment ID format")

	ErrDuplicateReference = errors.New("provider reference already in use")
)
