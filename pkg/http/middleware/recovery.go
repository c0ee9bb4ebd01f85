package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "MarketMood/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PanicReporter receives every recovered panic after it is logged.
type PanicReporter func(c echo.Context, recovered interface{})

// Recover returns recovery middleware.
func Recover(l *applogger.Logger, report PanicReporter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					l.Error("panic recovered",
						applogger.String("uri", c.Request().RequestURI),
						applogger.Error(perr),
						applogger.String("stack", string(debug.Stack())),
					)
					if report != nil {
						report(c, r)
					}
					err = c.JSON(http.StatusInternalServerError, map[string]string{
						"error": "Internal server error",
					})
				}
			}()
			return next(c)
		}
	}
}
