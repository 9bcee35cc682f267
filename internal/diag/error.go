package diag

import (
	"errors"
	"fmt"

	"strata/internal/source"
)

// Error is a fatal diagnostic returned as a Go error. Phases that fail fast
// return *Error; drivers unwrap it back into the Bag.
type Error struct {
	Diagnostic
}

// Errorf builds an error-severity *Error with a formatted message.
func Errorf(code Code, primary source.Span, format string, args ...any) *Error {
	return &Error{Diagnostic: NewError(code, primary, fmt.Sprintf(format, args...))}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Message)
}

// Is matches either another *Error with the same code or a bare Code,
// so callers can write errors.Is(err, diag.IdxUnmatchedClose).
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Code:
		return e.Code == t
	case *Error:
		return e.Code == t.Code
	}
	return false
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the diagnostic code carried by err, or UnknownCode.
func CodeOf(err error) Code {
	if de, ok := AsError(err); ok {
		return de.Code
	}
	return UnknownCode
}
