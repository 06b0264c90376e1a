// Package frameloop runs a task at a fixed frame rate on its own goroutine.
package frameloop

import (
	"context"
	"sync"
	"time"
)

// DefaultFPS is the rate used when none is given.
const DefaultFPS = 60

// Loop calls a task once per frame between Start and Stop.
type Loop struct {
	interval time.Duration
	task     func(now time.Time)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped loop running task fps times per second.
func New(fps int, task func(now time.Time)) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}

	return &Loop{
		interval: time.Second / time.Duration(fps),
		task:     task,
	}
}

// Interval returns the frame period.
func (l *Loop) Interval() time.Duration { return l.interval }

// Start begins calling the task. It does nothing if the loop is running.
// The loop also stops when ctx is done.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel, l.done = cancel, done

	go l.run(ctx, done)
}

func (l *Loop) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			// A tick can race with cancellation; never run after Stop.
			if ctx.Err() != nil {
				return
			}
			l.task(now)
		}
	}
}

// Stop cancels the loop and waits for the current frame to finish. No task
// call starts after Stop returns.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is started.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.cancel != nil
}
