package errors

import stderrors "errors"

// Re-exports so callers importing this package as apperrors do not also need
// the standard errors package.

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
