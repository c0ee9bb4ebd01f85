package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string `json:"type" validate:"required,max=8"`
	Channel string `json:"channel" default:"all" validate:"oneof=all nifty"`
}

type windowQuery struct {
	Window string `query:"window" default:"1M"`
}

func TestValidateStructUsesWireNames(t *testing.T) {
	errs := ValidateStruct(&frame{Type: strings.Repeat("x", 9), Channel: "bank"})
	require.IsType(t, []ValidationError{}, errs)

	got := errs.([]ValidationError)
	require.Len(t, got, 2)
	assert.Equal(t, "type", got[0].Field)
	assert.Equal(t, "ERR_MAX", got[0].Code)
	assert.Equal(t, "type must be at most 8 characters", got[0].Message)
	assert.Equal(t, "channel", got[1].Field)
	assert.Equal(t, []string{"all", "nifty"}, got[1].Params["options"])
}

func TestValidateStructFillsDefaults(t *testing.T) {
	f := &frame{Type: "ping"}
	assert.Nil(t, ValidateStruct(f))
	assert.Equal(t, "all", f.Channel)
}

func TestReadAndValidateRequestBindsQuery(t *testing.T) {
	e := echo.New()
	for target, want := range map[string]string{"/h?window=1Y": "1Y", "/h": "1M"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		var q windowQuery
		require.Nil(t, ReadAndValidateRequest(c, &q))
		assert.Equal(t, want, q.Window, target)
	}
}
