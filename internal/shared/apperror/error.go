package apperror

import "fmt"

// AppError is the error type every feature returns to its handler. Sentinels
// are compared by identity; Wrap and WithDetails produce new values that still
// carry Code and HTTPStatus.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    any   // extra client-facing context, e.g. the failing field
	Err        error // cause, never shown to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of e carrying details. The receiver is left
// untouched so shared sentinels stay immutable.
func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap attaches a cause to a new AppError. A nil err yields nil.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}
