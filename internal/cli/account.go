// Package cli implements the non-tray subcommands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/tnunamak/glucobar/internal/credentials"
)

// Asker collects credentials and saves them, reporting whether anything
// was saved.
type Asker interface {
	Ask(ctx context.Context) (bool, error)
}

// Login prompts for credentials and stores them.
func Login(ctx context.Context, asker Asker, errOut io.Writer) int {
	saved, err := asker.Ask(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "glucobar: %v\n", err)
		return ExitError
	}
	if !saved {
		return ExitNotAuthenticated
	}
	return ExitOK
}

// Logout removes stored credentials.
func Logout(store credentials.Store, out, errOut io.Writer) int {
	if err := store.Delete(); err != nil {
		fmt.Fprintf(errOut, "glucobar: %v\n", err)
		return ExitError
	}
	fmt.Fprintln(out, "Signed out.")
	return ExitOK
}
