// Package tray hosts the glucose monitor in the system tray.
package tray

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tnunamak/glucobar/internal/autostart"
	"github.com/tnunamak/glucobar/internal/cache"
	"github.com/tnunamak/glucobar/internal/dexcom"
	"github.com/tnunamak/glucobar/internal/logging"
	"github.com/tnunamak/glucobar/internal/monitor"
)

// Tooltips shown outside the poll loop.
const (
	InitialTooltip   = "Glucose monitor"
	NotSignedTooltip = "Not signed in"
)

// Menu item labels.
const (
	menuCredentials = "Enter Credentials"
	menuReload      = "Reload App"
	menuStartup     = "Run on Startup"
	menuExit        = "Exit"
)

// Asker collects credentials and saves them, reporting whether anything
// was saved.
type Asker interface {
	Ask(ctx context.Context) (bool, error)
}

// Deps are the collaborators the tray wires together.
type Deps struct {
	Auth      monitor.SessionSource
	Renderer  monitor.Renderer
	Interval  time.Duration
	Asker     Asker
	Registrar autostart.Registrar // nil when launch at login is unsupported
	Cache     *cache.Cache        // optional
	Logger    *slog.Logger
}

// App is the tray-independent part of the tray host: it owns the poll loop
// controller and implements every menu action.
type App struct {
	deps    Deps
	display monitor.Display
	ctrl    *monitor.Controller
	logger  *slog.Logger
}

// NewApp builds an App that draws on display.
func NewApp(deps Deps, display monitor.Display) *App {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	a := &App{deps: deps, display: display, logger: logger}
	a.ctrl = &monitor.Controller{
		Auth:    deps.Auth,
		NewLoop: a.newLoop,
	}
	return a
}

func (a *App) newLoop() *monitor.Loop {
	loop := &monitor.Loop{
		Display:  a.display,
		Renderer: a.deps.Renderer,
		Auth:     a.deps.Auth,
		Interval: a.deps.Interval,
		Logger:   a.logger,
	}
	if c := a.deps.Cache; c != nil {
		loop.OnReading = func(r dexcom.Reading) {
			if err := c.Write(r); err != nil {
				a.logger.Warn("write reading cache failed", "error", err)
			}
		}
	}
	return loop
}

// Init shows the placeholder icon and the initial tooltip.
func (a *App) Init() {
	a.display.SetIcon(a.deps.Renderer.Render(nil))
	a.display.SetTooltip(InitialTooltip)
}

// Start runs the first authentication and starts polling. It returns false
// when the user declined to sign in and the tray should exit. Any other
// sign-in failure leaves the loop running without a session.
func (a *App) Start(ctx context.Context) bool {
	err := a.ctrl.Start(ctx)
	switch {
	case err == nil:
		return true
	case errors.Is(err, monitor.ErrNotAuthenticated):
		a.logger.Info("no credentials provided, exiting")
		return false
	default:
		a.logger.Warn("first sign-in failed, polling will retry", "error", err)
		return true
	}
}

// Reload restarts the poll loop with a fresh session.
func (a *App) Reload(ctx context.Context) {
	err := a.ctrl.Reload(ctx)
	switch {
	case err == nil:
		a.logger.Info("reloaded")
	case errors.Is(err, monitor.ErrNotAuthenticated):
		a.display.SetTooltip(NotSignedTooltip)
	default:
		a.logger.Warn("sign-in failed on reload, polling will retry", "error", err)
	}
}

// EnterCredentials prompts for new credentials and reloads once they are
// saved.
func (a *App) EnterCredentials(ctx context.Context) {
	saved, err := a.deps.Asker.Ask(ctx)
	if err != nil {
		a.logger.Error("credential prompt failed", "error", err)
		return
	}
	if saved {
		a.Reload(ctx)
	}
}

// StartupEnabled reports whether launch at login is registered.
func (a *App) StartupEnabled() bool {
	return a.deps.Registrar != nil && a.deps.Registrar.IsRegistered()
}

// ToggleStartup flips launch at login and returns the state re-read from
// the registrar.
func (a *App) ToggleStartup() bool {
	if a.deps.Registrar == nil {
		return false
	}
	on, err := autostart.Toggle(a.deps.Registrar)
	if err != nil {
		a.logger.Error("toggle run on startup failed", "error", err)
	}
	return on
}

// Stop stops the poll loop and waits for it.
func (a *App) Stop() {
	a.ctrl.Stop()
}

// Running is the number of live poll loops.
func (a *App) Running() int {
	return a.ctrl.Running()
}

// waitExit calls quit once exit fires or ctx is done. It runs apart from
// the menu handler so Exit works while a dialog or sign-in is blocking.
func waitExit(ctx context.Context, exit <-chan struct{}, quit func()) {
	select {
	case <-exit:
	case <-ctx.Done():
	}
	quit()
}
