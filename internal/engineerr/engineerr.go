// Package engineerr defines the closed error taxonomy every engine
// failure maps to (§7). Every handler and service returns one of
// these kinds, never a bare error, so callers can branch on Kind with
// errors.As instead of matching message strings.
package engineerr

import "fmt"

// Kind is the closed set of failure categories.
type Kind string

const (
	NotFound           Kind = "NOT_FOUND"
	NotInMatch         Kind = "NOT_IN_MATCH"
	ActionNotPermitted Kind = "ACTION_NOT_PERMITTED"
	InvalidActionData  Kind = "INVALID_ACTION_DATA"
	PreconditionFailed Kind = "PRECONDITION_FAILED"
	Conflict           Kind = "CONFLICT"
	Internal           Kind = "INTERNAL"
)

// Error is the engine's single error type, carrying a Kind and a
// human-readable message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is makes errors.Is(err, engineerr.KindOnly(kind)) work by comparing
// Kind, so callers don't need errors.As boilerplate for the common
// case of branching on failure category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Newf(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Sentinels for errors.Is comparisons against a bare kind, e.g.
// errors.Is(err, engineerr.KindOnly(engineerr.NotFound)).
func KindOnly(k Kind) *Error { return &Error{Kind: k} }
