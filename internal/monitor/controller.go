package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Controller owns the single running Loop. Start, Stop and Reload are
// serialized, and a new loop is only spawned after the previous one has
// returned.
type Controller struct {
	Auth SessionSource
	// NewLoop builds a fresh Loop for every start.
	NewLoop func() *Loop

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	loop    *Loop
	running atomic.Int32
}

// Start authenticates and spawns the poll loop, stopping any loop that is
// already running first. It returns ErrNotAuthenticated when the user
// declined to provide credentials; no loop is started in that case.
//
// Any other authentication error is returned too, but the loop is started
// without a session and re-authenticates on its own schedule.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	session, authErr := c.Auth.Authenticate(ctx)
	if authErr != nil {
		authErr = fmt.Errorf("authenticate: %w", authErr)
		if ctx.Err() != nil {
			return authErr
		}
	} else if session == nil {
		return ErrNotAuthenticated
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	loop := c.NewLoop()

	c.cancel = cancel
	c.done = done
	c.loop = loop

	c.running.Add(1)
	go func() {
		defer close(done)
		defer c.running.Add(-1)
		loop.Run(loopCtx, session)
	}()

	return authErr
}

// Reload stops the current loop, waits for it, and starts a new one.
func (c *Controller) Reload(ctx context.Context) error {
	return c.Start(ctx)
}

// Stop cancels the running loop and waits for it to return. It is a no-op
// when nothing is running.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.cancel == nil {
		return
	}

	c.cancel()
	<-c.done

	c.cancel = nil
	c.done = nil
}

// Running returns the number of live loop goroutines (0 or 1).
func (c *Controller) Running() int {
	return int(c.running.Load())
}

// State returns the state of the most recently started loop.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loop == nil {
		return StateStopped
	}
	return c.loop.State()
}
