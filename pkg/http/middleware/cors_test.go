package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func corsServer(cfg CORSConfig) *echo.Echo {
	e := echo.New()
	e.Use(CORS(cfg))
	e.GET("/api/news", func(c echo.Context) error { return c.String(http.StatusOK, "[]") })
	return e
}

func TestCORSWildcard(t *testing.T) {
	e := corsServer(CORSConfig{AllowOrigins: []string{"*"}, AllowMethods: []string{http.MethodGet, http.MethodPost}})

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	req.Header.Set(echo.HeaderOrigin, "http://dashboard.local")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestCORSPreflightReflectsHeaders(t *testing.T) {
	e := corsServer(CORSConfig{AllowOrigins: []string{"*"}, AllowMethods: []string{http.MethodGet, http.MethodPost}})

	req := httptest.NewRequest(http.MethodOptions, "/api/news", nil)
	req.Header.Set(echo.HeaderOrigin, "http://dashboard.local")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	req.Header.Set(echo.HeaderAccessControlRequestHeaders, "content-type,x-trace")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET,POST", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	assert.Equal(t, "content-type,x-trace", rec.Header().Get(echo.HeaderAccessControlAllowHeaders))
}

func TestCORSRejectsUnlistedOrigin(t *testing.T) {
	e := corsServer(CORSConfig{AllowOrigins: []string{"http://dashboard.local"}})

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	req.Header.Set(echo.HeaderOrigin, "http://elsewhere.local")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
