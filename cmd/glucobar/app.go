package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/tnunamak/glucobar/internal/autostart"
	"github.com/tnunamak/glucobar/internal/cache"
	"github.com/tnunamak/glucobar/internal/config"
	"github.com/tnunamak/glucobar/internal/credentials"
	"github.com/tnunamak/glucobar/internal/dexcom"
	"github.com/tnunamak/glucobar/internal/logging"
	"github.com/tnunamak/glucobar/internal/monitor"
	"github.com/tnunamak/glucobar/internal/prompt"
	"github.com/tnunamak/glucobar/internal/render"
	"github.com/tnunamak/glucobar/internal/tray"
)

// app holds what every command shares once the config is loaded.
type app struct {
	configPath string

	cfg     *config.Config
	logger  *slog.Logger
	cleanup func() error
	store   credentials.Store
}

func (a *app) setup() error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	logger, cleanup, err := logging.New(&logging.Config{
		Level:          cfg.LogLevel,
		Format:         cfg.LogFormat,
		File:           cfg.LogFile,
		StderrMode:     cfg.LogStderr,
		InteractiveTTY: term.IsTerminal(int(os.Stderr.Fd())),
		Version:        Version,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.cleanup = cleanup
	a.store = credentials.NewKeyring()

	logger.Debug("config loaded", "path", cfg.Path, "region", cfg.Region)
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		_ = a.cleanup()
	}
}

func (a *app) authenticator(p monitor.Prompter) (*monitor.Authenticator, error) {
	client, err := dexcom.New(a.cfg.Region, a.cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	return &monitor.Authenticator{
		Store:  a.store,
		Client: monitor.DexcomClient(client),
		Prompt: p,
	}, nil
}

func (a *app) readingCache() *cache.Cache {
	c, err := cache.Default()
	if err != nil {
		a.logger.Warn("reading cache unavailable", "error", err)
		return nil
	}
	return c
}

func (a *app) runTray(ctx context.Context) int {
	dialog := prompt.NewDialog(a.store, a.logger)

	auth, err := a.authenticator(dialog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "glucobar: %v\n", err)
		return 1
	}

	registrar, err := autostart.New()
	if err != nil {
		a.logger.Warn("run on startup unavailable", "error", err)
	}

	return tray.Run(ctx, tray.Deps{
		Auth:      auth,
		Renderer:  render.New(a.cfg.FontPath, a.logger),
		Interval:  a.cfg.PollInterval,
		Asker:     dialog,
		Registrar: registrar,
		Cache:     a.readingCache(),
		Logger:    a.logger,
	})
}
