package filekit

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindValidation     Kind = "validation-error"
	KindCapacity       Kind = "capacity-error"
	KindTransformation Kind = "transformation-error"
	KindNotImplemented Kind = "not-implemented"
	KindUnknown        Kind = "unknown-error"
)

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so sentinel
// values such as ErrNoFiles work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind && t.Message == e.Message
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func validationError(msg string, err error) *Error {
	return newError(KindValidation, msg, err)
}

func capacityError(msg string, err error) *Error {
	return newError(KindCapacity, msg, err)
}

func transformationError(msg string, err error) *Error {
	return newError(KindTransformation, msg, err)
}

func notImplementedError(tool string) *Error {
	return newError(KindNotImplemented, fmt.Sprintf("%s is not implemented yet", tool), nil)
}

func unknownError(msg string, err error) *Error {
	return newError(KindUnknown, msg, err)
}

// KindOf reports the Kind of err. Errors that are not an *Error are
// KindUnknown; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Sentinel errors returned by the library.
var (
	// ErrNoFiles is returned when an offer contains no files at all.
	ErrNoFiles = validationError("no files were offered", nil)
	// ErrNoneAccepted is returned when every offered file was rejected.
	ErrNoneAccepted = validationError("none of the offered files were accepted", nil)

	// ErrStale is returned by Session.Run when a reset or a newer run
	// superseded it before it finished. Its result has been discarded.
	ErrStale = errors.New("filekit: run superseded by reset")
	// ErrReleased is returned when using a released artifact handle.
	ErrReleased = errors.New("filekit: artifact has been released")
	// ErrShareUnavailable is returned by a Sharer that cannot share on this
	// platform. Handle.Share falls back to copying the link.
	ErrShareUnavailable = errors.New("filekit: sharing is unavailable")
	// ErrUnknownTool is returned for a slug that is not in the catalog.
	ErrUnknownTool = errors.New("filekit: unknown tool")
	// ErrStandalone is returned when a file session is requested for a tool
	// that takes no file input.
	ErrStandalone = errors.New("filekit: tool does not take file input")
	// ErrClosed is returned when using a closed Toolkit.
	ErrClosed = errors.New("filekit: toolkit is closed")
)
