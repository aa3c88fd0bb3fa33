// Package main is the entry point for glucobar.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tnunamak/glucobar/internal/cli"
	"github.com/tnunamak/glucobar/internal/logging"
)

// Version is set via ldflags during build.
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	defer a.close()

	err := newRootCmd(a).ExecuteContext(ctx)
	return exitCode(err)
}

// exitError carries a process exit code out of a command without printing
// anything further.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// withCode turns a subcommand's exit code into an error for cobra.
func withCode(code int) error {
	if code == cli.ExitOK {
		return nil
	}
	return exitError{code: code}
}

func exitCode(err error) int {
	if err == nil {
		return cli.ExitOK
	}

	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("glucobar:"), err)
	return cli.ExitError
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "glucobar",
		Short:         "Dexcom glucose level in the system tray",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCode(a.runTray(cmd.Context()))
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default <config dir>/glucobar/config.yaml)")

	root.AddCommand(
		newTrayCmd(a),
		newStatusCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newUpdateCmd(a),
		newVersionCmd(),
	)
	return root
}
