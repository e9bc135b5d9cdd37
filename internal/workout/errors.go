package workout

import (
	"errors"

	"github.com/sadopc/liftlog/internal/store"
)

// Error kinds. Every error the engine returns for a failed precondition is an
// *Error whose Kind is one of these, so callers can test with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInsufficientHistory = errors.New("insufficient history")
)

// Error is a user-facing failure.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// notFound maps store.ErrNotFound to an ErrNotFound with msg and passes any
// other error through.
func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return newError(ErrNotFound, msg)
	}
	return err
}

// Message renders err for display.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var we *Error
	if errors.As(err, &we) && we.Msg != "" {
		return we.Msg
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Something went wrong."
}
