package errors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on the error code so sentinel values survive wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	// Expected single-record lookup misses. Callers recover by substituting
	// a default/empty representation, never by failing the flow.
	ErrUserNotFound        = &AppError{Code: "USER_001", Message: "user not found"}
	ErrAppointmentNotFound = &AppError{Code: "APPT_001", Message: "appointment not found"}

	ErrInvalidCredentials = &AppError{Code: "AUTH_001", Message: "invalid email or password"}
	ErrEmailTaken         = &AppError{Code: "AUTH_002", Message: "email already registered"}
	ErrNoSession          = &AppError{Code: "AUTH_003", Message: "user session not found"}

	ErrValidation = &AppError{Code: "VALID_001", Message: "invalid input"}

	ErrStorage = &AppError{Code: "STORE_001", Message: "storage operation failed"}

	ErrPermissionDenied = &AppError{Code: "NOTIF_001", Message: "exact alarm permission not granted"}

	ErrInternal = &AppError{Code: "GEN_001", Message: "internal error"}
)

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// IsNotFound reports whether err is one of the expected lookup-miss
// sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrAppointmentNotFound)
}
