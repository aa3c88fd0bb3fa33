package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tnunamak/glucobar/internal/credentials"
	"github.com/tnunamak/glucobar/internal/dexcom"
	"github.com/tnunamak/glucobar/internal/logging"
)

const (
	authErrorTitle   = "Authentication Error"
	authErrorMessage = "Failed to authenticate. Please try again."
)

// Authenticator turns stored (or freshly prompted) credentials into a
// Session.
type Authenticator struct {
	Store  credentials.Store
	Client Client
	Prompt Prompter
	Logger *slog.Logger
}

// Authenticate returns a session, or (nil, nil) when the user declined to
// provide credentials. Rejected credentials are deleted, the user is told,
// and prompted again; this repeats until a login succeeds or the prompt is
// cancelled. Errors other than a rejected login are returned as is.
func (a *Authenticator) Authenticate(ctx context.Context) (Session, error) {
	logger := a.logger(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		creds, err := a.load()
		if err != nil {
			return nil, err
		}

		if !creds.Complete() {
			logger.Info("no stored credentials, prompting")
			if err := a.Prompt.RequestCredentials(ctx); err != nil {
				return nil, fmt.Errorf("prompt for credentials: %w", err)
			}

			if creds, err = a.load(); err != nil {
				return nil, err
			}

			if !creds.Complete() {
				logger.Info("credential prompt cancelled")
				return nil, nil
			}
		}

		session, err := a.Client.Login(ctx, creds)
		if err == nil {
			logger.Info("authenticated", "username", creds.Username)
			return session, nil
		}

		if !errors.Is(err, dexcom.ErrAccount) {
			return nil, fmt.Errorf("login: %w", err)
		}

		logger.Warn("credentials rejected, clearing", "username", creds.Username, "error", err)
		if delErr := a.Store.Delete(); delErr != nil {
			// Re-prompting would just read the same rejected pair back.
			return nil, fmt.Errorf("clear rejected credentials: %w", delErr)
		}
		a.Prompt.ShowError(ctx, authErrorTitle, authErrorMessage)
	}
}

// load returns the stored credentials, or a zero value when none exist.
func (a *Authenticator) load() (credentials.Credentials, error) {
	creds, err := a.Store.Load()
	if errors.Is(err, credentials.ErrNotFound) {
		return credentials.Credentials{}, nil
	}
	if err != nil {
		return credentials.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	return creds, nil
}

// logger prefers the configured Logger, then the one carried by ctx.
func (a *Authenticator) logger(ctx context.Context) *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return logging.FromContext(ctx)
}
