package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tnunamak/glucobar/internal/dexcom"
	"github.com/tnunamak/glucobar/internal/logging"
)

const (
	// DefaultInterval is the wait between polls.
	DefaultInterval = 300 * time.Second

	// ErrorTooltip is shown after a failed fetch.
	ErrorTooltip = "Error fetching glucose data"
)

// Tooltip formats the tooltip for a successful fetch of value at t.
func Tooltip(value int, t time.Time) string {
	return fmt.Sprintf("Glucose Level: %d mg/dL\nRefreshed at %s", value, t.Format("15:04:05"))
}

// State is the lifecycle of a Loop.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// SessionSource produces a fresh session; (nil, nil) means none could be
// obtained. *Authenticator implements it.
type SessionSource interface {
	Authenticate(ctx context.Context) (Session, error)
}

// Loop polls the latest reading and pushes it to a Display.
type Loop struct {
	Display  Display
	Renderer Renderer
	Auth     SessionSource
	Interval time.Duration
	Logger   *slog.Logger

	// OnReading, when set, is called after every successful fetch.
	OnReading func(dexcom.Reading)
	// Now defaults to time.Now.
	Now func() time.Time

	state atomic.Int32
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Run polls until ctx is cancelled, starting with session (which may be
// nil). A failed fetch shows ErrorTooltip and replaces the session with a
// freshly authenticated one. Run retries forever at the fixed interval.
func (l *Loop) Run(ctx context.Context, session Session) {
	l.state.Store(int32(StateRunning))
	defer l.state.Store(int32(StateStopped))

	logger := l.logger(ctx)
	logger.Info("poll loop started", "interval", l.interval())

	for ctx.Err() == nil {
		session = l.poll(ctx, session)
		if !l.sleep(ctx) {
			break
		}
	}

	l.state.Store(int32(StateStopping))
	logger.Info("poll loop stopped")
}

// poll runs one iteration and returns the session to use next time.
func (l *Loop) poll(ctx context.Context, session Session) Session {
	logger := l.logger(ctx)

	reading, err := fetch(ctx, session)
	if err == nil {
		value := reading.Value
		l.Display.SetIcon(l.Renderer.Render(&value))
		l.Display.SetTooltip(Tooltip(value, l.now()))
		logger.Debug("reading fetched", "value", value, "trend", reading.Trend.String())

		if l.OnReading != nil {
			l.OnReading(reading)
		}
		return session
	}

	if ctx.Err() != nil {
		return session
	}

	logger.Warn("fetch failed, re-authenticating", "error", err)
	l.Display.SetTooltip(ErrorTooltip)

	next, err := l.Auth.Authenticate(ctx)
	switch {
	case err != nil:
		logger.Error("re-authentication failed", "error", err)
	case next == nil:
		logger.Warn("re-authentication cancelled, continuing without a session")
	}
	return next
}

// sleep waits one interval and reports false if ctx was cancelled first.
func (l *Loop) sleep(ctx context.Context) bool {
	timer := time.NewTimer(l.interval())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func fetch(ctx context.Context, session Session) (dexcom.Reading, error) {
	if session == nil {
		return dexcom.Reading{}, ErrNoSession
	}
	return session.CurrentReading(ctx)
}

func (l *Loop) interval() time.Duration {
	if l.Interval > 0 {
		return l.Interval
	}
	return DefaultInterval
}

func (l *Loop) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// logger prefers the configured Logger, then the one carried by ctx.
func (l *Loop) logger(ctx context.Context) *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return logging.FromContext(ctx)
}
