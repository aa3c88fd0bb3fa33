// Package prompt collects Dexcom credentials from the user and saves them to
// the credential store, either through native dialogs or on a terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ncruces/zenity"

	"github.com/tnunamak/glucobar/internal/credentials"
)

const (
	loginTitle     = "Dexcom Login"
	usernameText   = "Enter your Dexcom username/email/phone:"
	passwordText   = "Enter your Dexcom password:"
	savedText      = "Credentials saved!"
	notEnteredText = "Credentials were not entered."
)

// dialogs is the subset of zenity the Dialog uses.
type dialogs interface {
	Entry(ctx context.Context, title, text string, hidden bool) (string, error)
	Info(ctx context.Context, title, text string) error
	Warning(ctx context.Context, title, text string) error
	Error(ctx context.Context, title, text string) error
}

type zenityDialogs struct{}

func (zenityDialogs) Entry(ctx context.Context, title, text string, hidden bool) (string, error) {
	opts := []zenity.Option{zenity.Title(title), zenity.Context(ctx)}
	if hidden {
		opts = append(opts, zenity.HideText())
	}
	return zenity.Entry(text, opts...)
}

func (zenityDialogs) Info(ctx context.Context, title, text string) error {
	return zenity.Info(text, zenity.Title(title), zenity.InfoIcon, zenity.Context(ctx))
}

func (zenityDialogs) Warning(ctx context.Context, title, text string) error {
	return zenity.Warning(text, zenity.Title(title), zenity.WarningIcon, zenity.Context(ctx))
}

func (zenityDialogs) Error(ctx context.Context, title, text string) error {
	return zenity.Error(text, zenity.Title(title), zenity.ErrorIcon, zenity.Context(ctx))
}

// Dialog asks for credentials with native modal dialogs. The dialogs run
// out of process or through the OS's own modal APIs, so Dialog may be used
// from any goroutine.
type Dialog struct {
	Store  credentials.Store
	Logger *slog.Logger

	ui dialogs
}

// NewDialog returns a Dialog that saves to store.
func NewDialog(store credentials.Store, logger *slog.Logger) *Dialog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialog{Store: store, Logger: logger, ui: zenityDialogs{}}
}

// Ask shows the username and password dialogs and saves the result. saved
// is false when the user cancelled or left a field empty.
func (d *Dialog) Ask(ctx context.Context) (saved bool, err error) {
	username, err := d.ui.Entry(ctx, loginTitle, usernameText, false)
	if errors.Is(err, zenity.ErrCanceled) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("username dialog: %w", err)
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return false, nil
	}

	password, err := d.ui.Entry(ctx, loginTitle, passwordText, true)
	if err != nil && !errors.Is(err, zenity.ErrCanceled) {
		return false, fmt.Errorf("password dialog: %w", err)
	}

	if password == "" {
		d.show(ctx, d.ui.Warning, "Error", notEnteredText)
		return false, nil
	}

	if err := d.Store.Save(credentials.Credentials{Username: username, Password: password}); err != nil {
		return false, err
	}

	d.show(ctx, d.ui.Info, "Success", savedText)
	return true, nil
}

// RequestCredentials implements monitor.Prompter.
func (d *Dialog) RequestCredentials(ctx context.Context) error {
	_, err := d.Ask(ctx)
	return err
}

// ShowError shows an error dialog that blocks until dismissed or ctx is
// cancelled.
func (d *Dialog) ShowError(ctx context.Context, title, message string) {
	d.show(ctx, d.ui.Error, title, message)
}

func (d *Dialog) show(ctx context.Context, fn func(ctx context.Context, title, text string) error, title, text string) {
	err := fn(ctx, title, text)
	if err != nil && !errors.Is(err, zenity.ErrCanceled) && ctx.Err() == nil {
		d.Logger.Warn("dialog failed", "title", title, "error", err)
	}
}
