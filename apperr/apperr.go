// Package apperr defines the error kinds surfaced to users of the bot.
//
// Every failure a command handler can hit falls into one of four kinds.
// Handlers never let an error escape; they turn it into a reply using
// Message.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error.
type Kind int

const (
	// Usage means the command arguments were missing or malformed.
	Usage Kind = iota + 1
	// Configuration means a required credential or key is absent.
	Configuration
	// Adapter means a spreadsheet or document call failed.
	Adapter
	// Completion means the language model call failed.
	Completion
)

func (k Kind) String() string {
	switch k {
	case Usage:
		return "usage"
	case Configuration:
		return "configuration"
	case Adapter:
		return "adapter"
	case Completion:
		return "completion"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified error with a human readable message.
type Error struct {
	Kind Kind
	// Op is the operation that failed, e.g. "sheets.ReadRange".
	Op string
	// Msg is shown to the user.
	Msg string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Cause lets errors.Cause from github.com/pkg/errors walk through an Error.
func (e *Error) Cause() error { return e.Err }

// New returns an Error without a cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err. It returns nil when err is nil.
func Wrap(kind Kind, op string, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, op string, err error, format string, args ...interface{}) error {
	return Wrap(kind, op, err, fmt.Sprintf(format, args...))
}

// Is reports whether any error in err's chain is an Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the kind of the first Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message returns the text to show a user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
