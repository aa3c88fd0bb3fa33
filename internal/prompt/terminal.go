package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/tnunamak/glucobar/internal/credentials"
)

// Terminal asks for credentials on a terminal, reading the password
// without echo.
type Terminal struct {
	Store credentials.Store

	in           io.Reader
	out          io.Writer
	readPassword func() (string, error)
}

// NewTerminal returns a Terminal prompt on stdin/stdout.
func NewTerminal(store credentials.Store) *Terminal {
	return &Terminal{
		Store: store,
		in:    os.Stdin,
		out:   os.Stdout,
		readPassword: func() (string, error) {
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			return string(b), err
		},
	}
}

// CanPrompt reports whether stdin and stdout are both terminals.
func CanPrompt() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Ask reads a username and password and saves them. An empty answer to
// either question saves nothing.
func (t *Terminal) Ask(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	reader := bufio.NewReader(t.in)

	fmt.Fprint(t.out, usernameText+" ")
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("read username: %w", err)
	}

	username := strings.TrimSpace(line)
	if username == "" {
		return false, nil
	}

	fmt.Fprint(t.out, passwordText+" ")
	password, err := t.readPassword()
	fmt.Fprintln(t.out)
	if err != nil {
		return false, fmt.Errorf("read password: %w", err)
	}

	if password == "" {
		fmt.Fprintln(t.out, notEnteredText)
		return false, nil
	}

	if err := t.Store.Save(credentials.Credentials{Username: username, Password: password}); err != nil {
		return false, err
	}

	fmt.Fprintln(t.out, savedText)
	return true, nil
}

// RequestCredentials implements monitor.Prompter.
func (t *Terminal) RequestCredentials(ctx context.Context) error {
	_, err := t.Ask(ctx)
	return err
}

// ShowError prints the error to the terminal.
func (t *Terminal) ShowError(_ context.Context, title, message string) {
	fmt.Fprintf(t.out, "%s: %s\n", title, message)
}

// Unattended never prompts; it is used when no user is there to answer.
type Unattended struct{}

func (Unattended) RequestCredentials(context.Context) error { return nil }
func (Unattended) ShowError(context.Context, string, string) {}
