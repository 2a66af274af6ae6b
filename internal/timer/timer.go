package timer

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Timer calls a function on a fixed interval until stopped.
// Only one run is active at a time; starting again cancels the previous run.
type Timer struct {
	clock    clock.Clock
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(clk clock.Clock, interval time.Duration) *Timer {
	return &Timer{
		clock:    clk,
		interval: interval,
	}
}

// Start runs tick every interval until tick returns false, Stop is called or ctx is done.
func (that *Timer) Start(ctx context.Context, tick func() bool) {
	that.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	that.mu.Lock()
	that.cancel = cancel
	that.done = done
	that.mu.Unlock()

	ticker := that.clock.Ticker(that.interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if !tick() {
					return
				}
			}
		}
	}()
}

// Stop cancels the active run and waits for it to exit.
func (that *Timer) Stop() {
	that.mu.Lock()
	cancel, done := that.cancel, that.done
	that.cancel, that.done = nil, nil
	that.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Running reports whether a run is active.
func (that *Timer) Running() bool {
	that.mu.Lock()
	done := that.done
	that.mu.Unlock()

	if done == nil {
		return false
	}

	select {
	case <-done:
		return false
	default:
		return true
	}
}
