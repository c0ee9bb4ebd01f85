package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"MarketMood/internal/usecase"
	"MarketMood/pkg/config"
	xhttp "MarketMood/pkg/http"
	pkgkafka "MarketMood/pkg/kafka"
	applogger "MarketMood/pkg/logger"
)

// LiveChannel is the websocket side of the HTTP server.
type LiveChannel interface {
	ActiveConnections() int
	Close()
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	scheduler  *usecase.Scheduler
	consumer   *pkgkafka.Consumer
	live       LiveChannel
	log        *applogger.Logger
	signals    chan os.Signal
}

// New creates a new App instance with all dependencies. consumer and live may be nil.
func New(
	cfg *config.Config,
	httpServer *xhttp.Server,
	scheduler *usecase.Scheduler,
	consumer *pkgkafka.Consumer,
	live LiveChannel,
	l *applogger.Logger,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		httpServer: httpServer,
		scheduler:  scheduler,
		consumer:   consumer,
		live:       live,
		log:        l.With("app"),
		signals:    make(chan os.Signal, 1),
	}
}

// Run starts the HTTP server, the archive consumer and the scheduler, then blocks
// until SIGINT, SIGTERM or SIGHUP.
func (a *App) Run() error {
	if err := a.start(); err != nil {
		a.shutdown(context.Background())
		return err
	}

	signal.Notify(a.signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(a.signals)
	sig := <-a.signals

	a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	a.shutdown(context.Background())
	return nil
}

func (a *App) start() error {
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.log.Info("http server started",
		applogger.String("addr", a.httpServer.Addr()),
		applogger.String("environment", a.cfg.Environment),
		applogger.String("source", a.cfg.Source.Mode),
	)

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.log.Info("archive consumer started", applogger.String("topic", a.cfg.Kafka.Topics.Updates))
	}

	if a.scheduler != nil && a.cfg.Scheduler.Enabled {
		if err := a.scheduler.Start(context.Background()); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		a.log.Info("scheduler started",
			applogger.Strings("jobs", a.scheduler.Jobs()),
			applogger.Duration("interval", a.cfg.Scheduler.Interval),
		)
	}
	return nil
}

// shutdown stops the scheduler first so no cycle starts mid-teardown, then the
// HTTP server and live connections, then the consumer. Clients are closed by the DI cleanup.
func (a *App) shutdown(ctx context.Context) {
	a.log.Info("shutting down")

	if a.scheduler != nil {
		a.scheduler.Stop(a.cfg.Scheduler.StopTimeout)
	}

	if a.live != nil {
		a.log.Info("closing live connections", applogger.Int("active", a.live.ActiveConnections()))
		a.live.Close()
	}

	httpCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(httpCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		consumerCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.consumer.Stop(consumerCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
