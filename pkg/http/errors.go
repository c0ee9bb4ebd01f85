package http

import (
	"fmt"
	"net/http"
)

const (
	CodeNotFound   = "ERR_NOT_FOUND"
	CodeBadRequest = "ERR_BAD_REQUEST"
	CodeConflict   = "ERR_CONFLICT"
	CodeInternal   = "ERR_INTERNAL"
)

// AppError is a handler failure with the status and public message to render.
// Err carries the cause for logs and error tracking only.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
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

// NewAppError creates a new application error.
func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// WithError attaches the cause.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// Is matches any AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// NotFoundError creates a 404 error.
func NotFoundError(message string) *AppError {
	return NewAppError(CodeNotFound, message, http.StatusNotFound)
}

// BadRequestError creates a 400 error.
func BadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest)
}

// ConflictError creates a 409 error.
func ConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message, http.StatusConflict)
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError(CodeInternal, message, http.StatusInternalServerError)
}
