// Package monitor keeps the tray display current: it authenticates against
// the glucose service, polls for the latest reading on a fixed interval,
// and re-authenticates whenever a fetch fails.
//
// Every collaborator (credential store, service client, prompt, display) is
// an interface so the loop can run against fakes in tests.
package monitor

import (
	"context"
	"errors"
	"image"

	"github.com/tnunamak/glucobar/internal/credentials"
	"github.com/tnunamak/glucobar/internal/dexcom"
)

var (
	// ErrNoSession is returned for a fetch attempted without a session.
	ErrNoSession = errors.New("no active session")
	// ErrNotAuthenticated is returned by Controller.Start when no
	// credentials could be obtained.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Session reads the latest value for one authenticated account.
type Session interface {
	CurrentReading(ctx context.Context) (dexcom.Reading, error)
}

// Client opens sessions. Login must wrap dexcom.ErrAccount when the
// credentials themselves were rejected.
type Client interface {
	Login(ctx context.Context, creds credentials.Credentials) (Session, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, creds credentials.Credentials) (Session, error)

// Login calls f.
func (f ClientFunc) Login(ctx context.Context, creds credentials.Credentials) (Session, error) {
	return f(ctx, creds)
}

// DexcomClient adapts *dexcom.Client, whose Login returns a concrete
// session type.
func DexcomClient(c *dexcom.Client) Client {
	return ClientFunc(func(ctx context.Context, creds credentials.Credentials) (Session, error) {
		s, err := c.Login(ctx, creds)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Prompter asks the user for credentials and reports errors. Both calls
// block until the user dismisses the dialog.
type Prompter interface {
	// RequestCredentials asks for a username and password and saves them to
	// the credential store. Cancelling is not an error; the store is simply
	// left empty.
	RequestCredentials(ctx context.Context) error
	ShowError(ctx context.Context, title, message string)
}

// Display is the tray surface the loop writes to. Implementations must be
// safe to call from any goroutine.
type Display interface {
	SetIcon(img image.Image)
	SetTooltip(text string)
}

// Renderer turns a value into an icon bitmap; nil means no value.
type Renderer interface {
	Render(value *int) *image.RGBA
}
