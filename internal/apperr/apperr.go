// Package apperr classifies the failures a download request can end with.
// Handlers turn a Kind into the message the user sees; everything that is
// not classified is reported as KindInternal.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidLink
	KindExtraction
	KindNoFormats
	KindSessionExpired
	KindInvalidSelection
	KindFormatUnavailable
	KindBusy
	KindFileOperation
	KindTimeout
)

var kindNames = map[Kind]string{
	KindInternal:          "internal",
	KindInvalidLink:       "invalid_link",
	KindExtraction:        "extraction",
	KindNoFormats:         "no_formats",
	KindSessionExpired:    "session_expired",
	KindInvalidSelection:  "invalid_selection",
	KindFormatUnavailable: "format_unavailable",
	KindBusy:              "busy",
	KindFileOperation:     "file_operation",
	KindTimeout:           "timeout",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinel values below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

var (
	ErrInvalidLink       = &Error{Kind: KindInvalidLink}
	ErrExtraction        = &Error{Kind: KindExtraction}
	ErrNoFormats         = &Error{Kind: KindNoFormats}
	ErrSessionExpired    = &Error{Kind: KindSessionExpired}
	ErrInvalidSelection  = &Error{Kind: KindInvalidSelection}
	ErrFormatUnavailable = &Error{Kind: KindFormatUnavailable}
	ErrBusy              = &Error{Kind: KindBusy}
	ErrFileOperation     = &Error{Kind: KindFileOperation}
	ErrTimeout           = &Error{Kind: KindTimeout}
)

// KindOf returns the kind of the first *Error in the chain. A deadline
// without a classified error is a timeout.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}
