package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"MarketMood/internal/domain/models"
	domrepo "MarketMood/internal/domain/repository"
	"MarketMood/internal/service/ratelimit"
	xhttp "MarketMood/pkg/http"
	xlogger "MarketMood/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	cur   *models.CurrentSentiment
	err   error
	ticks atomic.Int32
}

func (f *fakeFeed) Snapshot(context.Context) (*models.CurrentSentiment, error) {
	return f.cur, f.err
}

func (f *fakeFeed) Tick(context.Context) (*models.LiveTick, error) {
	if f.err != nil {
		return nil, f.err
	}
	n := f.ticks.Add(1)
	return &models.LiveTick{Timestamp: time.Now(), NiftyValue: 22000 + float64(n), Score: f.cur.Score}, nil
}

type liveFrame struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

func startLive(t *testing.T, feed LiveFeed, limiter *ratelimit.Limiter) (*LiveHandler, string) {
	t.Helper()
	h := NewLiveHandler(xlogger.Nop(), feed, limiter, nil, 20*time.Millisecond)
	srv := httptest.NewServer(xhttp.NewServer([]xhttp.Handler{h}).Echo())
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestLiveSendsSnapshotThenTicks(t *testing.T) {
	feed := &fakeFeed{cur: &models.CurrentSentiment{Score: 58.4, MarketStatus: models.StatusNeutral}}
	h, url := startLive(t, feed, nil)
	conn := dial(t, url)

	var first liveFrame
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, models.MessageSentiment, first.Type)
	assert.Equal(t, 58.4, first.Data["score"])

	for i := 0; i < 2; i++ {
		var tick liveFrame
		require.NoError(t, conn.ReadJSON(&tick))
		assert.Equal(t, models.MessageLiveUpdate, tick.Type)
		assert.Contains(t, tick.Data, "niftyValue")
		assert.Contains(t, tick.Data, "timestamp")
		assert.Equal(t, 58.4, tick.Data["score"])
	}
	assert.Equal(t, 1, h.ActiveConnections())
}

func TestLiveSurvivesClientMessages(t *testing.T) {
	feed := &fakeFeed{cur: &models.CurrentSentiment{Score: 40}}
	_, url := startLive(t, feed, nil)
	conn := dial(t, url)

	var first liveFrame
	require.NoError(t, conn.ReadJSON(&first))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","channel":"nifty"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"missing type"}`)))

	var tick liveFrame
	require.NoError(t, conn.ReadJSON(&tick))
	assert.Equal(t, models.MessageLiveUpdate, tick.Type)
}

func TestLiveWithoutSentimentSkipsSnapshot(t *testing.T) {
	feed := &fakeFeed{err: domrepo.ErrNoSentiment}
	h, url := startLive(t, feed, nil)
	conn := dial(t, url)

	assert.Eventually(t, func() bool { return h.ActiveConnections() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestLiveDisconnectReleasesConnection(t *testing.T) {
	feed := &fakeFeed{cur: &models.CurrentSentiment{Score: 50}}
	limiter := ratelimit.New(1, 1)
	h, url := startLive(t, feed, limiter)
	conn := dial(t, url)

	var first liveFrame
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`)))
	assert.Eventually(t, func() bool { return limiter.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	assert.Eventually(t, func() bool { return h.ActiveConnections() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, limiter.Len())

	// the tick loop has stopped with the connection
	ticks := feed.ticks.Load()
	time.Sleep(5 * 20 * time.Millisecond)
	assert.Equal(t, ticks, feed.ticks.Load())
}

func TestLiveCloseDropsConnections(t *testing.T) {
	feed := &fakeFeed{cur: &models.CurrentSentiment{Score: 50}}
	h, url := startLive(t, feed, nil)
	conn := dial(t, url)

	var first liveFrame
	require.NoError(t, conn.ReadJSON(&first))
	h.Close()

	assert.Eventually(t, func() bool { return h.ActiveConnections() == 0 }, 2*time.Second, 5*time.Millisecond)
}
