package services

import (
	"errors"
	"fmt"
)

// ErrorKind names a failure condition surfaced to callers
type ErrorKind string

const (
	KindNotFound                 ErrorKind = "NOT_FOUND"
	KindInactive                 ErrorKind = "INACTIVE"
	KindRequiresEnrollment       ErrorKind = "REQUIRES_ENROLLMENT"
	KindLocked                   ErrorKind = "LOCKED"
	KindInsufficientWatchTime    ErrorKind = "INSUFFICIENT_WATCH_TIME"
	KindRequiresFaceVerification ErrorKind = "REQUIRES_FACE_VERIFICATION"
	KindInvalidInput             ErrorKind = "INVALID_INPUT"
	KindBadRequest               ErrorKind = "BAD_REQUEST"
	KindForbidden                ErrorKind = "FORBIDDEN"
	KindAlreadySubmitted         ErrorKind = "ALREADY_SUBMITTED"
	KindNotSubmitted             ErrorKind = "NOT_SUBMITTED"
	KindConflict                 ErrorKind = "CONFLICT"
	KindInternal                 ErrorKind = "INTERNAL"
)

// AppError is returned by every service operation that fails a precondition.
// Data carries structured context such as required minutes or the blocking
// prerequisite.
type AppError struct {
	Kind    ErrorKind
	Message string
	Data    map[string]interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindInternal for foreign errors
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func newError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func (e *AppError) with(key string, value interface{}) *AppError {
	if e.Data == nil {
		e.Data = map[string]interface{}{}
	}
	e.Data[key] = value
	return e
}

func errNotFound(entity string) *AppError {
	return newError(KindNotFound, entity+" not found")
}

func errInactive(entity string) *AppError {
	return newError(KindInactive, entity+" is not active")
}

func errRequiresEnrollment(majorID uint) *AppError {
	return newError(KindRequiresEnrollment, "you must enroll in this major first").
		with("major_id", majorID)
}

// errLocked reports the prerequisite that blocks access
func errLocked(message, prereqType string, prereqID uint, prereqName string) *AppError {
	return newError(KindLocked, message).
		with("prerequisite_type", prereqType).
		with("prerequisite_id", prereqID).
		with("prerequisite_name", prereqName)
}

func errInsufficientWatchTime(current float64, required int) *AppError {
	return newError(KindInsufficientWatchTime,
		fmt.Sprintf("you must watch at least %d minutes of this lesson", required)).
		with("current", current).
		with("required", required)
}

func errRequiresFaceVerification() *AppError {
	return newError(KindRequiresFaceVerification, "face verification after watching is required")
}

func errInvalidInput(message string) *AppError {
	return newError(KindInvalidInput, message)
}

func errBadRequest(message string) *AppError {
	return newError(KindBadRequest, message)
}

func errForbidden(message string) *AppError {
	return newError(KindForbidden, message)
}

func errConflict(message string) *AppError {
	return newError(KindConflict, message)
}

// errInternal wraps an unexpected store failure
func errInternal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

func errAlreadySubmitted() *AppError {
	return newError(KindAlreadySubmitted, "this attempt has already been submitted")
}

func errNotSubmitted() *AppError {
	return newError(KindNotSubmitted, "this attempt has not been submitted yet")
}
