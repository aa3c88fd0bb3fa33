package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tnunamak/glucobar/internal/autostart"
	"github.com/tnunamak/glucobar/internal/cli"
	"github.com/tnunamak/glucobar/internal/monitor"
	"github.com/tnunamak/glucobar/internal/prompt"
	"github.com/tnunamak/glucobar/internal/update"
)

func newTrayCmd(a *app) *cobra.Command {
	var install, uninstall bool

	cmd := &cobra.Command{
		Use:   "tray",
		Short: "Run as system tray icon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !install && !uninstall {
				return withCode(a.runTray(cmd.Context()))
			}

			r, err := autostart.New()
			if err != nil {
				return err
			}
			if install {
				if err := r.Register(); err != nil {
					return err
				}
				fmt.Println("glucobar will start at login")
				return nil
			}
			if err := r.Unregister(); err != nil {
				return err
			}
			fmt.Println("glucobar autostart removed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&install, "install", false, "enable launch at login")
	cmd.Flags().BoolVar(&uninstall, "uninstall", false, "disable launch at login")
	cmd.MarkFlagsMutuallyExclusive("install", "uninstall")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var jsonMode, yamlMode, plainMode bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest glucose reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p monitor.Prompter = prompt.Unattended{}
			if prompt.CanPrompt() {
				p = prompt.NewTerminal(a.store)
			}

			auth, err := a.authenticator(p)
			if err != nil {
				return err
			}

			format := cli.FormatAuto
			switch {
			case jsonMode:
				format = cli.FormatJSON
			case yamlMode:
				format = cli.FormatYAML
			case plainMode:
				format = cli.FormatPlain
			}

			s := &cli.Status{
				Source: auth,
				Cache:  a.readingCache(),
				TTL:    a.cfg.CacheTTL,
				Format: format,
				Logger: a.logger,
			}
			return withCode(s.Run(cmd.Context()))
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON")
	cmd.Flags().BoolVar(&yamlMode, "yaml", false, "output YAML")
	cmd.Flags().BoolVar(&plainMode, "plain", false, "plain text (no color)")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml", "plain")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store Dexcom credentials in the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !prompt.CanPrompt() {
				return fmt.Errorf("login needs an interactive terminal")
			}
			return withCode(cli.Login(cmd.Context(), prompt.NewTerminal(a.store), os.Stderr))
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored Dexcom credentials",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withCode(cli.Logout(a.store, os.Stdout, os.Stderr))
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	var restart bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update glucobar to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rel, err := update.NewChecker().Check(cmd.Context(), Version)
			if err != nil {
				return err
			}
			if rel == nil {
				fmt.Printf("glucobar %s is up to date\n", update.StripV(Version))
				return nil
			}

			a.logger.Info("applying update", "version", rel.Version, "url", rel.URL)
			fmt.Printf("Updating to %s...\n", update.StripV(rel.Version))
			if err := update.Apply(cmd.Context(), rel.URL); err != nil {
				return err
			}
			fmt.Printf("Updated to %s\n", update.StripV(rel.Version))

			if restart {
				return update.Restart()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&restart, "restart", false, "start the tray after updating")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("glucobar " + Version)
		},
	}
}
