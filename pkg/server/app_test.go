package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"MarketMood/internal/usecase"
	"MarketMood/pkg/config"
	xhttp "MarketMood/pkg/http"
	applogger "MarketMood/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
}

type fakeLive struct{ closed atomic.Bool }

func (f *fakeLive) ActiveConnections() int { return 0 }
func (f *fakeLive) Close()                 { f.closed.Store(true) }

func TestAppRunsUntilSignal(t *testing.T) {
	cfg, err := config.Parse([]byte("database:\n  url: postgres://localhost/marketmood\n"), nil)
	require.NoError(t, err)

	srv := xhttp.NewServer([]xhttp.Handler{pingHandler{}}, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	sched := usecase.NewScheduler(applogger.Nop(), nil)
	var runs atomic.Int32
	sched.Register("market-update", time.Hour, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	live := &fakeLive{}
	app := New(cfg, srv, sched, nil, live, nil)

	done := make(chan error, 1)
	go func() { done <- app.Run() }()

	require.Eventually(t, func() bool { return runs.Load() == 1 && srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	app.signals <- syscall.SIGTERM
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.False(t, sched.Running())
	assert.True(t, live.closed.Load())
}
