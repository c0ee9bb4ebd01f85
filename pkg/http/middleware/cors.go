package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration. Empty AllowHeaders echoes the headers a
// preflight asks for.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int
}

// CORS answers preflights with 204 and stamps Access-Control-Allow-Origin on allowed requests.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	methods := strings.Join(cfg.AllowMethods, ",")
	headers := strings.Join(cfg.AllowHeaders, ",")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			h := c.Response().Header()

			allowed := allowOrigin(cfg.AllowOrigins, req.Header.Get(echo.HeaderOrigin))
			if allowed == "" {
				return next(c)
			}
			if allowed != "*" {
				h.Add(echo.HeaderVary, echo.HeaderOrigin)
			}
			h.Set(echo.HeaderAccessControlAllowOrigin, allowed)

			if req.Method != http.MethodOptions || req.Header.Get(echo.HeaderAccessControlRequestMethod) == "" {
				return next(c)
			}

			h.Set(echo.HeaderAccessControlAllowMethods, methods)
			if headers != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			} else if reqHeaders := req.Header.Get(echo.HeaderAccessControlRequestHeaders); reqHeaders != "" {
				h.Add(echo.HeaderVary, echo.HeaderAccessControlRequestHeaders)
				h.Set(echo.HeaderAccessControlAllowHeaders, reqHeaders)
			}
			if cfg.MaxAge > 0 {
				h.Set(echo.HeaderAccessControlMaxAge, strconv.Itoa(cfg.MaxAge))
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}

func allowOrigin(origins []string, origin string) string {
	for _, o := range origins {
		if o == "*" {
			return "*"
		}
		if origin != "" && o == origin {
			return origin
		}
	}
	return ""
}
