package capability

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported means the capability family is absent from the runtime.
	// It is terminal for the session.
	ErrNotSupported = errors.New("capability not supported")

	// ErrUnavailable means the family exists but declined the given options.
	// Probing again with different options may succeed.
	ErrUnavailable = errors.New("capability unavailable")
)

// UnavailableError explains why a provider declined a set of options.
type UnavailableError struct {
	Kind   Kind
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %s", e.Kind, e.Reason)
}

// Unwrap lets errors.Is match ErrUnavailable.
func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// Unavailable builds an UnavailableError.
func Unavailable(kind Kind, format string, args ...interface{}) error {
	return &UnavailableError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// UserMessage renders the two taxonomy errors with the kind's default text and
// returns err.Error() for anything else.
func UserMessage(kind Kind, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotSupported):
		return kind.NotSupportedMessage()
	case errors.Is(err, ErrUnavailable):
		return kind.UnavailableMessage()
	}
	return err.Error()
}
