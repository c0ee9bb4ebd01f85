package errtrack

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

// Tracker reports failures to an external error tracker.
type Tracker interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
	CapturePanic(ctx context.Context, recovered interface{}, tags map[string]string)
	Flush(timeout time.Duration)
}

// Options configures the Sentry tracker.
type Options struct {
	DSN         string
	Environment string
	SampleRate  float64
	Release     string
}

// New returns a Sentry tracker, or a no-op tracker when no DSN is configured.
func New(opts Options) (Tracker, error) {
	if opts.DSN == "" {
		return Nop{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		SampleRate:  opts.SampleRate,
		Release:     opts.Release,
	})
	if err != nil {
		return nil, err
	}
	return &SentryTracker{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// SentryTracker sends events through its own hub.
type SentryTracker struct {
	hub *sentry.Hub
}

func (t *SentryTracker) CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := t.scoped(tags)
	hub.CaptureException(err)
}

func (t *SentryTracker) CapturePanic(ctx context.Context, recovered interface{}, tags map[string]string) {
	hub := t.scoped(tags)
	hub.Recover(recovered)
}

func (t *SentryTracker) Flush(timeout time.Duration) {
	t.hub.Flush(timeout)
}

func (t *SentryTracker) scoped(tags map[string]string) *sentry.Hub {
	hub := t.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
	})
	return hub
}

// Nop discards everything.
type Nop struct{}

func (Nop) CaptureError(context.Context, error, map[string]string)       {}
func (Nop) CapturePanic(context.Context, interface{}, map[string]string) {}
func (Nop) Flush(time.Duration)                                          {}
