package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	applogger "MarketMood/pkg/logger"
	"MarketMood/pkg/worker"
)

// ErrSchedulerRunning is returned by Start when the scheduler is already running.
var ErrSchedulerRunning = errors.New("scheduler already running")

type job struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
}

// Scheduler runs registered jobs once at start and then on their interval.
// At most one set of timers exists at a time.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []job
	group   *worker.Group
	logger  *applogger.Logger
	onError worker.ErrorHandler
}

// NewScheduler creates a stopped scheduler. onError observes failed runs and may be nil.
func NewScheduler(l *applogger.Logger, onError worker.ErrorHandler) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	return &Scheduler{logger: l.With("scheduler"), onError: onError}
}

// Register adds a job. Jobs registered while running start with the next Start.
func (s *Scheduler) Register(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job{name: name, interval: interval, fn: fn})
}

// Jobs lists registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.name
	}
	return names
}

// Start launches every job. It does not block.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.group != nil {
		return ErrSchedulerRunning
	}
	g := worker.NewGroup(s.logger, s.onError)
	for _, j := range s.jobs {
		g.Add(worker.Func{WorkerName: j.name, Fn: j.fn}, j.interval)
	}
	g.Start(ctx)
	s.group = g
	s.logger.Info("scheduler started", applogger.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels every job and waits up to timeout for each. Stopping a stopped scheduler is a no-op.
// When a run outlives the timeout the scheduler stays running, so Start keeps failing,
// until that run returns. Stop reports whether every job had exited.
func (s *Scheduler) Stop(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.group
	if g == nil {
		return true
	}
	if g.Stop(timeout) {
		s.group = nil
		s.logger.Info("scheduler stopped")
		return true
	}

	s.logger.Warn("scheduler stop incomplete, waiting for running jobs", applogger.Duration("timeout_ms", timeout))
	go func() {
		g.Wait()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.group == g {
			s.group = nil
			s.logger.Info("scheduler stopped")
		}
	}()
	return false
}

// Running reports whether timers are active or a cancelled run is still in flight.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group != nil
}
