package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"MarketMood/internal/domain/models"
	domrepo "MarketMood/internal/domain/repository"
	"MarketMood/internal/service/ratelimit"
	xhttp "MarketMood/pkg/http"
	xlogger "MarketMood/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const liveWriteTimeout = 10 * time.Second

// LiveFeed produces the frames of the live channel.
type LiveFeed interface {
	Snapshot(ctx context.Context) (*models.CurrentSentiment, error)
	Tick(ctx context.Context) (*models.LiveTick, error)
}

// LiveHandler serves the /ws channel. Every connection gets its own ticker; nothing is broadcast.
type LiveHandler struct {
	logger   *xlogger.Logger
	feed     LiveFeed
	limiter  *ratelimit.Limiter
	metrics  domrepo.Metrics
	tick     time.Duration
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewLiveHandler(logger *xlogger.Logger, feed LiveFeed, limiter *ratelimit.Limiter, metrics domrepo.Metrics, tick time.Duration) *LiveHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if limiter == nil {
		limiter = ratelimit.New(10, 2)
	}
	if tick <= 0 {
		tick = 3 * time.Second
	}
	return &LiveHandler{
		logger:  logger.With("live"),
		feed:    feed,
		limiter: limiter,
		metrics: metrics,
		tick:    tick,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[string]*websocket.Conn),
	}
}

func (h *LiveHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// ActiveConnections returns the number of open live connections.
func (h *LiveHandler) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close drops every open connection. Their read loops end and release their tickers.
func (h *LiveHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.conns {
		_ = conn.Close()
	}
}

func (h *LiveHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already answered the client
		h.logger.Warn("live upgrade failed", xlogger.Error(err))
		return nil
	}
	id := uuid.NewString()
	h.track(id, conn)
	defer h.untrack(id, conn)

	l := h.logger.WithFields(xlogger.String("conn_id", id))
	l.Info("live client connected", xlogger.String("remote", c.RealIP()))

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	defer cancel()

	if cur, err := h.feed.Snapshot(ctx); err != nil {
		l.Warn("initial sentiment unavailable", xlogger.Error(err))
	} else if err := h.write(conn, models.LiveMessage{Type: models.MessageSentiment, Data: cur}); err != nil {
		l.Warn("initial sentiment write failed", xlogger.Error(err))
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.pushTicks(ctx, conn, l)
	}()

	h.readLoop(conn, id, l)
	cancel()
	wg.Wait()
	l.Info("live client disconnected")
	return nil
}

func (h *LiveHandler) pushTicks(ctx context.Context, conn *websocket.Conn, l *xlogger.Logger) {
	t := time.NewTicker(h.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			tick, err := h.feed.Tick(ctx)
			if err != nil {
				l.Warn("live tick skipped", xlogger.Error(err))
				continue
			}
			if err := h.write(conn, models.LiveMessage{Type: models.MessageLiveUpdate, Data: tick}); err != nil {
				l.Debug("live tick write failed", xlogger.Error(err))
				_ = conn.Close()
				return
			}
		}
	}
}

func (h *LiveHandler) readLoop(conn *websocket.Conn, id string, l *xlogger.Logger) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, net.ErrClosed) {
				l.Warn("live read error", xlogger.Error(err))
			}
			return
		}
		if !h.limiter.Allow(id) {
			l.Debug("live message dropped by rate limit")
			continue
		}
		h.handleMessage(data, l)
	}
}

func (h *LiveHandler) handleMessage(data []byte, l *xlogger.Logger) {
	var msg models.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		l.Warn("malformed live message", xlogger.Error(err))
		return
	}
	if verr := xhttp.ValidateStruct(&msg); verr != nil {
		l.Warn("invalid live message", xlogger.Any("details", verr))
		return
	}
	switch msg.Type {
	case models.MessageSubscribe:
		l.Info("live client subscribed", xlogger.String("channel", msg.Channel))
	default:
		l.Debug("live message ignored", xlogger.String("type", msg.Type))
	}
}

func (h *LiveHandler) write(conn *websocket.Conn, msg models.LiveMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func (h *LiveHandler) track(id string, conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[id] = conn
	n := len(h.conns)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.SetLiveConnections(n)
	}
}

func (h *LiveHandler) untrack(id string, conn *websocket.Conn) {
	_ = conn.Close()
	h.limiter.Forget(id)
	h.mu.Lock()
	delete(h.conns, id)
	n := len(h.conns)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.SetLiveConnections(n)
	}
}
