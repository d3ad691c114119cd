package store

import (
	"errors"
	"strings"
)

var (
	// ErrUniqueViolation reports an insert that collided with a unique index.
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrNotFound reports an id lookup that matched nothing.
	ErrNotFound = errors.New("not found")
)

const (
	sqliteConstraintUnique     = 2067
	sqliteConstraintPrimaryKey = 1555
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Error wraps a store failure with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind classifies the failure for status mapping; callers answer it as a
// server failure.
func (e *Error) ErrorKind() string { return "store" }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return &Error{Op: op, Err: errors.Join(ErrUniqueViolation, err)}
	}
	return &Error{Op: op, Err: err}
}
