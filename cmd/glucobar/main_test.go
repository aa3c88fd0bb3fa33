package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tnunamak/glucobar/internal/cli"
)

func TestWithCode(t *testing.T) {
	assert.NoError(t, withCode(cli.ExitOK))
	assert.Equal(t, cli.ExitNotAuthenticated, exitCode(withCode(cli.ExitNotAuthenticated)))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, cli.ExitOK, exitCode(nil))
	assert.Equal(t, cli.ExitError, exitCode(errors.New("boom")))
	assert.Equal(t, 2, exitCode(exitError{code: 2}))
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd(&app{})

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"tray", "status", "login", "logout", "update", "version"} {
		assert.Contains(t, names, want)
	}

	status, _, err := root.Find([]string{"status"})
	assert.NoError(t, err)
	for _, flag := range []string{"json", "yaml", "plain"} {
		assert.NotNil(t, status.Flags().Lookup(flag), flag)
	}

	trayCmd, _, err := root.Find([]string{"tray"})
	assert.NoError(t, err)
	assert.NotNil(t, trayCmd.Flags().Lookup("install"))
	assert.NotNil(t, trayCmd.Flags().Lookup("uninstall"))
}

func TestVersionCmd_SkipsSetup(t *testing.T) {
	root := newRootCmd(&app{configPath: "/nonexistent/dir/config.yaml"})
	root.SetArgs([]string{"version"})
	assert.NoError(t, root.Execute())
}
