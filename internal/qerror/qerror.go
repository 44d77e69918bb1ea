// Package qerror defines the error taxonomy for query execution.
// Every failure carries a machine-readable Kind so callers branch on
// kind, never on message text.
package qerror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindSourceUnavailable Kind = "source_unavailable"
	KindExecution         Kind = "execution"
	KindJoinTypeMismatch  Kind = "join_type_mismatch"
	KindResultTooLarge    Kind = "result_too_large"
	KindTimeout           Kind = "timeout"
	KindCancelled         Kind = "cancelled"
)

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf reports the Kind carried by err, or "" when err is not a
// taxonomy error.
func KindOf(err error) Kind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
