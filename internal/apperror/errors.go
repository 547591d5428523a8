package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how callers are expected to react to it.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindPolicy
	KindStorage
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrPolicy     = errors.New("rejected by policy")
	ErrStorage    = errors.New("storage failure")
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindPolicy:
		return ErrPolicy
	case KindStorage:
		return ErrStorage
	default:
		return nil
	}
}

// Error is the application error carried across package boundaries.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.sentinel().Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind Kind, op string, err error, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func Validation(op, format string, args ...any) error {
	return newError(KindValidation, op, nil, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return newError(KindNotFound, op, nil, format, args...)
}

func Policy(op, format string, args ...any) error {
	return newError(KindPolicy, op, nil, format, args...)
}

// Storage wraps a persistence failure. A nil err yields nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return newError(KindStorage, op, err, "")
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	for _, k := range []Kind{KindValidation, KindNotFound, KindPolicy, KindStorage} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindUnknown
}

// Message returns the human readable part of err without the op prefix.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Msg != "" {
		return appErr.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
