package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"MarketMood/pkg/http/middleware"
	applogger "MarketMood/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SlowThreshold   time.Duration
	CORS            bool
	Logger          *applogger.Logger
	PanicReporter   middleware.PanicReporter
	ErrorReporter   ErrorReporter
}

// ErrorReporter receives handler errors that end in a 5xx response.
type ErrorReporter func(c echo.Context, err error)

// Server wraps Echo HTTP server.
type Server struct {
	echo     *echo.Echo
	config   *ServerConfig
	log      *applogger.Logger
	listener net.Listener
}

// NewServer creates a new HTTP server with Echo. Handlers register their routes in order.
func NewServer(handlers []Handler, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORS:            true,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = applogger.Nop()
	}
	l := cfg.Logger.With("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.HTTPErrorHandler = errorHandler(l, cfg.ErrorReporter)

	// Middleware
	e.Use(middleware.Recover(l, cfg.PanicReporter))
	e.Use(middleware.Metrics(l, cfg.SlowThreshold))
	e.Use(middleware.RequestLogging(l))

	if cfg.CORS {
		e.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{
				http.MethodGet,
				http.MethodHead,
				http.MethodPut,
				http.MethodPatch,
				http.MethodPost,
				http.MethodDelete,
			},
		}))
	}

	for _, h := range handlers {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}

	// Expose Prometheus metrics endpoint for scraping
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{
		echo:   e,
		config: cfg,
		log:    l,
	}
}

// errorHandler renders echo's own errors (bad method, unmatched route) in the {"error"} envelope
// and everything else through AppErrorResponse.
func errorHandler(l *applogger.Logger, report ErrorReporter) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			_ = ErrorResponse(c, he.Code, msg)
			return
		}
		var appErr *AppError
		if report != nil && (!errors.As(err, &appErr) || appErr.Status >= http.StatusInternalServerError) {
			report(c, err)
		}
		if werr := AppErrorResponse(c, err); werr != nil {
			l.Warn("write error response", applogger.Error(werr))
		}
	}
}

// Start binds the listener and serves in the background. Bind errors are returned.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.echo.Listener = ln

	go func() {
		s.log.Info("http server listening", applogger.String("addr", ln.Addr().String()))
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", applogger.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("http server stopped gracefully")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// WithHost sets server host.
func WithHost(host string) ServerOption {
	return func(c *ServerConfig) {
		c.Host = host
	}
}

// WithPort sets server port.
func WithPort(port int) ServerOption {
	return func(c *ServerConfig) {
		c.Port = port
	}
}

// WithTimeouts sets read/write timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

// WithCORS enables/disables CORS.
func WithCORS(enabled bool) ServerOption {
	return func(c *ServerConfig) {
		c.CORS = enabled
	}
}

func WithSlowThreshold(d time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.SlowThreshold = d
	}
}

func WithLogger(l *applogger.Logger) ServerOption {
	return func(c *ServerConfig) {
		c.Logger = l
	}
}

// WithPanicReporter forwards recovered panics, e.g. to an error tracker.
func WithPanicReporter(r middleware.PanicReporter) ServerOption {
	return func(c *ServerConfig) {
		c.PanicReporter = r
	}
}

// WithErrorReporter forwards 5xx handler errors, e.g. to an error tracker.
func WithErrorReporter(r ErrorReporter) ServerOption {
	return func(c *ServerConfig) {
		c.ErrorReporter = r
	}
}
