package tollzone

import (
	"github.com/pkg/errors"
)

// Error kinds. Every error returned by this package matches exactly one of them via errors.Is
var (
	ErrIO             = errors.New("i/o failure")
	ErrMalformedInput = errors.New("malformed input")
	ErrConfiguration  = errors.New("configuration failure")
)

// kindError attaches an error kind to a wrapped cause
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.cause.Error()
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.cause
}

// ioError wraps err as ErrIO
func ioError(err error, format string, args ...interface{}) error {
	return &kindError{kind: ErrIO, cause: errors.Wrapf(err, format, args...)}
}

// malformedError wraps err as ErrMalformedInput. If err is nil, new error with given message is created
func malformedError(err error, format string, args ...interface{}) error {
	if err == nil {
		return &kindError{kind: ErrMalformedInput, cause: errors.Errorf(format, args...)}
	}
	return &kindError{kind: ErrMalformedInput, cause: errors.Wrapf(err, format, args...)}
}

// configError creates ErrConfiguration error
func configError(format string, args ...interface{}) error {
	return &kindError{kind: ErrConfiguration, cause: errors.Errorf(format, args...)}
}
