package ingest

import "errors"

// ErrContentRequired reports a submission without content.
var ErrContentRequired = errors.New("content is required")

// ErrorClassifier lets errors declare a classification for status mapping.
// Kinds "validation" and "parse" are caller faults; every other kind, and
// errors without a classifier, are server failures.
type ErrorClassifier interface {
	ErrorKind() string
}

const (
	KindValidation = "validation"
	KindParse      = "parse"
	KindStore      = "store"
	KindInternal   = "internal"
)

// ValidationError describes a caller fault. No state is changed when it is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrorKind implements ErrorClassifier.
func (e *ValidationError) ErrorKind() string { return KindValidation }

// ParseError reports content that is JSON text but does not parse.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse content: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorKind implements ErrorClassifier.
func (e *ParseError) ErrorKind() string { return KindParse }

// IsValidation reports whether err is a caller fault.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// KindOf returns the kind declared by the outermost classifier in err's chain,
// or KindInternal when none is present.
func KindOf(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		if kind := classifier.ErrorKind(); kind != "" {
			return kind
		}
	}
	return KindInternal
}

// IsCallerFault reports whether err should be answered as a rejected request.
func IsCallerFault(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindParse:
		return true
	}
	return false
}
