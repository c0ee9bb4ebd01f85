package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicWorkerRunsImmediatelyAndRepeats(t *testing.T) {
	var runs atomic.Int32
	w := Func{WorkerName: "tick", Fn: func(context.Context) error {
		runs.Add(1)
		return nil
	}}

	pw := NewPeriodicWorker(w, 20*time.Millisecond, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	pw.Start(ctx)

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, 2*time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.True(t, pw.Stop(time.Second))
}

func TestPeriodicWorkerContinuesAfterError(t *testing.T) {
	var (
		runs   atomic.Int32
		mu     sync.Mutex
		failed []string
	)
	w := Func{WorkerName: "flaky", Fn: func(context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("upstream down")
		}
		return nil
	}}

	pw := NewPeriodicWorker(w, 10*time.Millisecond, nil, func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, name+": "+err.Error())
	})
	ctx, cancel := context.WithCancel(context.Background())
	pw.Start(ctx)

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	pw.Stop(time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"flaky: upstream down"}, failed)
}

func TestGroupStopCancelsAll(t *testing.T) {
	var a, b atomic.Int32
	g := NewGroup(nil, nil)
	g.Add(Func{WorkerName: "a", Fn: func(context.Context) error { a.Add(1); return nil }}, time.Hour)
	g.Add(Func{WorkerName: "b", Fn: func(context.Context) error { b.Add(1); return nil }}, time.Hour)
	assert.Equal(t, 2, g.Len())

	g.Start(context.Background())
	require.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, 2*time.Millisecond)
	assert.True(t, g.Stop(time.Second))

	// restartable
	g.Start(context.Background())
	require.Eventually(t, func() bool { return a.Load() == 2 && b.Load() == 2 }, time.Second, 2*time.Millisecond)
	g.Stop(time.Second)
}

func TestGroupStopReportsStragglers(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	g := NewGroup(nil, nil)
	g.Add(Func{WorkerName: "slow", Fn: func(context.Context) error {
		close(entered)
		<-release
		return nil
	}}, time.Hour)

	g.Start(context.Background())
	<-entered
	assert.False(t, g.Stop(10*time.Millisecond))

	close(release)
	g.Wait()
}
