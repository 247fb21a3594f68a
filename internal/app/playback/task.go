package playback

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs fn every period until the returned stop func is called.
type Scheduler interface {
	Every(period time.Duration, fn func()) (stop func())
}

// TickerScheduler is a Scheduler backed by time.Ticker.
type TickerScheduler struct{}

// Every starts a ticker goroutine.
func (TickerScheduler) Every(period time.Duration, fn func()) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// A stop may race with the tick; drop the tick in that case.
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()

	return cancel
}

// Task is a cancellable periodic task.
// Start always stops the previous run, so at most one run is active.
type Task struct {
	mu        sync.Mutex
	scheduler Scheduler
	period    time.Duration
	fn        func()
	stop      func()
	starts    int
}

// NewTask creates a stopped task.
func NewTask(scheduler Scheduler, period time.Duration, fn func()) *Task {
	return &Task{
		scheduler: scheduler,
		period:    period,
		fn:        fn,
	}
}

// Start (re)starts the task.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	t.stop = t.scheduler.Every(t.period, t.fn)
	t.starts++
}

// Stop cancels the task. Stopping a stopped task is a no-op.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
}

// Running reports whether the task is active.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// Starts returns how many times the task was started.
func (t *Task) Starts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.starts
}
