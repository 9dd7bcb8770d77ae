package reports

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrAuth       = errors.New("authentication required")
	ErrForbidden  = fmt.Errorf("%w: operation not allowed for this user", ErrAuth)
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
