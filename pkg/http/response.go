package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	MessageInternalError  = "Internal server error"
	MessageInvalidRequest = "Invalid request"
)

// JSONResponse writes data with 200.
func JSONResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse writes {"error": message} with status.
func ErrorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorBody{Error: message})
}

// ValidationErrorResponse writes a 400 carrying the validation details.
func ValidationErrorResponse(c echo.Context, details interface{}) error {
	return c.JSON(http.StatusBadRequest, ErrorBody{Error: MessageInvalidRequest, Details: details})
}

// NotFoundResponse writes a 404 with an arbitrary body.
func NotFoundResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusNotFound, data)
}

// AppErrorResponse writes the public message of an AppError. Other errors become a generic 500
// so internal details never reach the client.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorResponse(c, appErr.Status, appErr.Message)
	}
	return ErrorResponse(c, http.StatusInternalServerError, MessageInternalError)
}

// NoCache marks the response as never cacheable.
func NoCache(c echo.Context) {
	h := c.Response().Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
