package bot

import "errors"

// Kind classifies a command failure.
type Kind int

const (
	// KindUnhandled is any failure not anticipated by the command. The
	// user sees a generic message and the detail goes to the log.
	KindUnhandled Kind = iota
	// KindValidation is bad user input. The message is shown to the user
	// and nothing is changed.
	KindValidation
	// KindConfigurationIncomplete is a role left without a symbol during
	// configuration.
	KindConfigurationIncomplete
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfigurationIncomplete:
		return "configuration_incomplete"
	default:
		return "unhandled"
	}
}

// Error is a command failure with a user-facing message.
type Error struct {
	Kind    Kind
	Message string // shown to the user
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks by kind.
var (
	ErrValidation              = &Error{Kind: KindValidation}
	ErrConfigurationIncomplete = &Error{Kind: KindConfigurationIncomplete}
)

func validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of err, KindUnhandled unless err wraps an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnhandled
}
