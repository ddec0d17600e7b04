package domain

import (
	"errors"
	"fmt"
)

// Error kinds
var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrNotFound               = errors.New("not found")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrSoldOut                = errors.New("sold out")
	ErrInvalidState           = errors.New("invalid state")
	ErrRuleViolation          = errors.New("rule violation")
	ErrInvalidOperation       = errors.New("invalid operation")
	ErrPaymentDeclined        = errors.New("payment declined")
	ErrPersistenceFailure     = errors.New("persistence failure")
	ErrConcurrentModification = errors.New("event was modified concurrently")
)

// Error is a domain failure carrying a human readable message and the kind it belongs to.
// errors.Is(err, ErrCapacityExceeded) matches on the kind.
type Error struct {
	Kind    error
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the kind sentinel and, when present, the wrapped cause.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewError builds a domain error of the given kind.
func NewError(kind error, format string, args ...interface{}) error {
	return newError(kind, format, args...)
}

// WrapError re-labels err under kind while keeping its message and its original kind reachable via errors.Is.
func WrapError(kind error, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: err.Error(), cause: err}
}

// NotFound builds a NotFound error naming the missing entity.
func NotFound(entity string, id interface{}) error {
	return newError(ErrNotFound, "%s with ID %v not found", entity, id)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrRuleViolation)
}

// IsConflictError checks if the error is a capacity or state conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrSoldOut) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrConcurrentModification)
}
