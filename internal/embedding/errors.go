package embedding

import (
	"errors"
	"fmt"
)

// Kind classifies an embedding failure. The set is closed.
type Kind int

const (
	KindInternal Kind = iota
	KindBackend
	KindTokenization
	KindModelNotFound
	KindInvalidModel
	KindAcceleratorUnavailable
	KindBatchSizeExceeded
	KindEmptyInput
	KindIO
)

var kindNames = map[Kind]string{
	KindInternal:               "internal",
	KindBackend:                "backend",
	KindTokenization:           "tokenization",
	KindModelNotFound:          "model_not_found",
	KindInvalidModel:           "invalid_model",
	KindAcceleratorUnavailable: "accelerator_unavailable",
	KindBatchSizeExceeded:      "batch_size_exceeded",
	KindEmptyInput:             "empty_input",
	KindIO:                     "io",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by every engine operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var prefix string
	switch e.Kind {
	case KindBackend:
		prefix = "inference backend error"
	case KindTokenization:
		prefix = "tokenization error"
	case KindModelNotFound:
		prefix = "model not found at path"
	case KindInvalidModel:
		prefix = "invalid model format"
	case KindAcceleratorUnavailable:
		prefix = "accelerated execution unavailable"
	case KindBatchSizeExceeded:
		prefix = "batch size exceeded"
	case KindEmptyInput:
		return "empty input: cannot generate embeddings for empty text"
	case KindIO:
		prefix = "io error"
	default:
		prefix = "internal error"
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	case e.Msg != "":
		return prefix + ": " + e.Msg
	}
	return prefix
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels such as ErrEmptyInput work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is; only Kind is compared.
var (
	ErrBackend                = &Error{Kind: KindBackend}
	ErrTokenization           = &Error{Kind: KindTokenization}
	ErrModelNotFound          = &Error{Kind: KindModelNotFound}
	ErrInvalidModel           = &Error{Kind: KindInvalidModel}
	ErrAcceleratorUnavailable = &Error{Kind: KindAcceleratorUnavailable}
	ErrBatchSizeExceeded      = &Error{Kind: KindBatchSizeExceeded}
	ErrEmptyInput             = &Error{Kind: KindEmptyInput}
	ErrIO                     = &Error{Kind: KindIO}
	ErrInternal               = &Error{Kind: KindInternal}
)

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// BatchSizeExceeded reports a request of n texts against a ceiling of max.
func BatchSizeExceeded(n, max int) error {
	return errorf(KindBatchSizeExceeded, "%d texts exceeds maximum allowed %d", n, max)
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindInternal, false
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
