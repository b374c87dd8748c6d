package workflow

import "errors"

var (
	// ErrUndefinedTransition is returned when a state does not accept an event.
	ErrUndefinedTransition = errors.New("undefined transition")

	// ErrTerminalState is returned for any event sent to a terminal state.
	ErrTerminalState = errors.New("terminal state")

	// ErrUnknownSection is returned for an unrecognized section name.
	ErrUnknownSection = errors.New("unknown section")

	// ErrMissingStateMeta indicates a state was declared without matching meta.
	ErrMissingStateMeta = errors.New("missing state meta")

	// ErrInvalidTargetState is returned when jumping to a state that is
	// unknown, terminal or not navigable.
	ErrInvalidTargetState = errors.New("invalid target state")
)

// Stable error codes for application errors.
// These are intended to be surfaced by top-level handlers.
const (
	CodeUndefinedTransition = "undefined_transition"
	CodeTerminalState       = "terminal_state"
	CodeUnknownSection      = "unknown_section"
	CodeMissingStateMeta    = "missing_state_meta"
	CodeMissingLanguage     = "missing_language"
	CodeInvalidTargetState  = "invalid_target_state"
)

// Error is an application error with a stable code.
type Error struct {
	Code string
	Err  error
}

// NewError wraps err with code.
func NewError(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain.
// An empty string is returned if there is none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
