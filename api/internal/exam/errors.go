package exam

import "fmt"

// ValidationError covers recoverable user mistakes: empty identification
// fields, input in the wrong phase, incomplete answers. The session is
// never mutated when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
