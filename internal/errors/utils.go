package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating an AppError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *AppError {
	if err == nil {
		return nil
	}

	var ae *AppError
	if errors.As(err, &ae) {
		return &AppError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ae,
			Context:     ae.Context,
			FilePath:    ae.FilePath,
			Recoverable: ae.Recoverable,
		}
	}

	return &AppError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeParse,
	}
}

// WrapIO wraps an error as an I/O error for path
func WrapIO(err error, code, message, path string) *AppError {
	appErr := Wrap(err, ErrorTypeIO, code, message)
	if appErr != nil {
		appErr.Recoverable = false
		appErr.FilePath = path
	}
	return appErr
}

// WrapParse wraps a document parse or render failure
func WrapParse(err error, code, message string) *AppError {
	return Wrap(err, ErrorTypeParse, code, message)
}

// GetErrorCode extracts the error code from an AppError
func GetErrorCode(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
