package board

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPeriod is the refresh cadence.
const DefaultPeriod = time.Second

// Scheduler runs tick on a fixed period from a single goroutine. Arm
// replaces any running loop, so at most one loop is active at a time.
type Scheduler struct {
	period time.Duration
	tick   func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	active atomic.Int32
}

// NewScheduler creates an unarmed scheduler.
func NewScheduler(period time.Duration, tick func()) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Scheduler{period: period, tick: tick}
}

// Arm stops the running loop, waits for it to exit, then starts a new one
// bound to ctx. It must not be called from inside tick.
func (s *Scheduler) Arm(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	s.active.Add(1)
	go s.run(ctx, done)
}

// Stop cancels the running loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Active reports how many loops are running (0 or 1).
func (s *Scheduler) Active() int {
	return int(s.active.Load())
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.active.Add(-1)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A slow tick delays the next one; ticks never overlap.
			if ctx.Err() != nil {
				return
			}
			s.tick()
		}
	}
}
