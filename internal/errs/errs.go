// Package errs defines the error kinds shared by the editor core.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	FileMissing
	AlreadyRegistered
	NotRegistered
	InvalidPattern
	ReadFailed
	WriteFailed
	UserCanceled
)

func (k Kind) String() string {
	switch k {
	case FileMissing:
		return "file missing"
	case AlreadyRegistered:
		return "already registered"
	case NotRegistered:
		return "not registered"
	case InvalidPattern:
		return "invalid pattern"
	case ReadFailed:
		return "read failed"
	case WriteFailed:
		return "write failed"
	case UserCanceled:
		return "user canceled"
	default:
		return "unknown error"
	}
}

// Error carries a Kind, the subject it applies to (a path, a name, a pattern)
// and an optional cause.
type Error struct {
	Kind    Kind
	Subject string
	Err     error
}

var (
	ErrFileMissing       = &Error{Kind: FileMissing}
	ErrAlreadyRegistered = &Error{Kind: AlreadyRegistered}
	ErrNotRegistered     = &Error{Kind: NotRegistered}
	ErrInvalidPattern    = &Error{Kind: InvalidPattern}
	ErrReadFailed        = &Error{Kind: ReadFailed}
	ErrWriteFailed       = &Error{Kind: WriteFailed}
	ErrUserCanceled      = &Error{Kind: UserCanceled}
)

func New(kind Kind, subject string) error {
	return &Error{Kind: kind, Subject: subject}
}

func Wrap(kind Kind, subject string, err error) error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Subject != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with
// errors.Is regardless of subject.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
