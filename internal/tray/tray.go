//go:build tray

package tray

import (
	"context"
	"image"
	"log/slog"
	"runtime"

	"fyne.io/systray"

	"github.com/tnunamak/glucobar/internal/render"
)

// Run shows the tray icon and blocks until Exit is chosen, ctx is cancelled
// (SIGINT/SIGTERM), or the user declines to sign in at startup.
func Run(ctx context.Context, deps Deps) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var app *App
	onReady := func() {
		app = NewApp(deps, display{goos: runtime.GOOS, logger: deps.Logger})
		app.Init()
		m := buildMenu(app)
		go waitExit(ctx, m.exit.ClickedCh, systray.Quit)
		go serve(ctx, app, m)
	}
	// Cancel before Stop: open dialogs close on cancel.
	onExit := func() {
		cancel()
		if app != nil {
			app.Stop()
		}
	}

	systray.Run(onReady, onExit)
	return 0
}

type menu struct {
	credentials *systray.MenuItem
	reload      *systray.MenuItem
	startup     *systray.MenuItem
	exit        *systray.MenuItem
}

func buildMenu(app *App) menu {
	m := menu{
		credentials: systray.AddMenuItem(menuCredentials, ""),
		reload:      systray.AddMenuItem(menuReload, ""),
		startup:     systray.AddMenuItemCheckbox(menuStartup, "", app.StartupEnabled()),
	}
	systray.AddSeparator()
	m.exit = systray.AddMenuItem(menuExit, "")

	if app.deps.Registrar == nil {
		m.startup.Disable()
	}
	return m
}

func serve(ctx context.Context, app *App, m menu) {
	if !app.Start(ctx) {
		systray.Quit()
		return
	}

	for {
		select {
		case <-m.credentials.ClickedCh:
			app.EnterCredentials(ctx)
		case <-m.reload.ClickedCh:
			app.Reload(ctx)
		case <-m.startup.ClickedCh:
			if app.ToggleStartup() {
				m.startup.Check()
			} else {
				m.startup.Uncheck()
			}
		case <-ctx.Done():
			return
		}
	}
}

// display draws on the system tray.
type display struct {
	goos   string
	logger *slog.Logger
}

func (d display) SetIcon(img image.Image) {
	data, err := render.EncodeForOS(img, d.goos)
	if err != nil {
		if d.logger != nil {
			d.logger.Error("encode tray icon failed", "error", err)
		}
		return
	}
	systray.SetIcon(data)
}

func (display) SetTooltip(text string) {
	systray.SetTooltip(text)
}
