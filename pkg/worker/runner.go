package worker

import (
	"context"
	"sync"
	"time"

	applogger "MarketMood/pkg/logger"
)

// Worker is one unit of recurring background work.
type Worker interface {
	// Name identifies the worker in logs and metrics.
	Name() string
	// Run executes one iteration.
	Run(ctx context.Context) error
}

// Func adapts a plain function to Worker.
type Func struct {
	WorkerName string
	Fn         func(ctx context.Context) error
}

func (f Func) Name() string                  { return f.WorkerName }
func (f Func) Run(ctx context.Context) error { return f.Fn(ctx) }

// ErrorHandler observes failed iterations. The worker keeps running either way.
type ErrorHandler func(name string, err error)

// PeriodicWorker runs a Worker immediately and then on every interval until its context ends.
type PeriodicWorker struct {
	worker   Worker
	interval time.Duration
	logger   *applogger.Logger
	onError  ErrorHandler
	wg       sync.WaitGroup
}

// NewPeriodicWorker creates a periodic worker. onError may be nil.
func NewPeriodicWorker(w Worker, interval time.Duration, l *applogger.Logger, onError ErrorHandler) *PeriodicWorker {
	if l == nil {
		l = applogger.Nop()
	}
	return &PeriodicWorker{worker: w, interval: interval, logger: l, onError: onError}
}

// Start launches the worker loop.
func (pw *PeriodicWorker) Start(ctx context.Context) {
	pw.wg.Add(1)
	go pw.run(ctx)
}

// Stop waits for the loop to exit. Returns false on timeout.
func (pw *PeriodicWorker) Stop(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		pw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		pw.logger.Warn("worker stop timeout", applogger.String("worker", pw.worker.Name()))
		return false
	}
}

func (pw *PeriodicWorker) run(ctx context.Context) {
	defer pw.wg.Done()

	name := pw.worker.Name()
	pw.logger.Info("worker started",
		applogger.String("worker", name),
		applogger.Duration("interval_ms", pw.interval),
	)

	pw.runOnce(ctx)

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pw.logger.Info("worker stopping", applogger.String("worker", name))
			return
		case <-ticker.C:
			pw.runOnce(ctx)
		}
	}
}

func (pw *PeriodicWorker) runOnce(ctx context.Context) {
	start := time.Now()
	err := pw.worker.Run(ctx)
	if err == nil {
		pw.logger.Debug("worker run finished",
			applogger.String("worker", pw.worker.Name()),
			applogger.Duration("took_ms", time.Since(start)),
		)
		return
	}
	if ctx.Err() != nil {
		return
	}
	pw.logger.Error("worker execution failed",
		applogger.String("worker", pw.worker.Name()),
		applogger.Error(err),
	)
	if pw.onError != nil {
		pw.onError(pw.worker.Name(), err)
	}
}

// Group runs several periodic workers under one cancellable context.
type Group struct {
	mu      sync.Mutex
	workers []*PeriodicWorker
	cancel  context.CancelFunc
	logger  *applogger.Logger
	onError ErrorHandler
}

// NewGroup creates an empty group.
func NewGroup(l *applogger.Logger, onError ErrorHandler) *Group {
	if l == nil {
		l = applogger.Nop()
	}
	return &Group{logger: l, onError: onError}
}

// Add registers a worker. Workers added after Start are not launched until the next Start.
func (g *Group) Add(w Worker, interval time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.workers = append(g.workers, NewPeriodicWorker(w, interval, g.logger, g.onError))
}

// Len returns the number of registered workers.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.workers)
}

// Start launches every worker with a context derived from ctx.
func (g *Group) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx, g.cancel = context.WithCancel(ctx)
	for _, w := range g.workers {
		w.Start(ctx)
	}
	g.logger.Info("worker group started", applogger.Int("workers", len(g.workers)))
}

// Stop cancels every worker and waits up to timeout for each. Returns false when
// any worker was still running at its deadline.
func (g *Group) Stop(timeout time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	stopped := true
	for _, w := range g.workers {
		if !w.Stop(timeout) {
			stopped = false
		}
	}
	g.logger.Info("worker group stopped", applogger.Int("workers", len(g.workers)), applogger.Bool("complete", stopped))
	return stopped
}

// Wait blocks until every started worker loop has exited.
func (g *Group) Wait() {
	g.mu.Lock()
	workers := append([]*PeriodicWorker(nil), g.workers...)
	g.mu.Unlock()
	for _, w := range workers {
		w.wg.Wait()
	}
}
