// Package autostart registers glucobar to launch at login.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrUnsupported is returned on platforms without a launch-at-login
// mechanism.
var ErrUnsupported = fmt.Errorf("autostart not supported on %s", runtime.GOOS)

// Registrar toggles launch at login.
type Registrar interface {
	IsRegistered() bool
	Register() error
	Unregister() error
}

// New returns the Registrar for the current platform.
func New() (Registrar, error) {
	bin, err := execPath()
	if err != nil {
		return nil, err
	}

	switch runtime.GOOS {
	case "linux":
		path, err := linuxDesktopPath()
		if err != nil {
			return nil, err
		}
		return &DesktopEntry{Path: path, Exec: bin}, nil
	case "darwin":
		path, err := darwinPlistPath()
		if err != nil {
			return nil, err
		}
		return &LaunchAgent{Path: path, Exec: bin, Launchctl: launchctl}, nil
	case "windows":
		path, err := windowsStartupPath()
		if err != nil {
			return nil, err
		}
		return &StartupShortcut{Path: path, Target: bin}, nil
	default:
		return nil, ErrUnsupported
	}
}

func execPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Linux: XDG autostart .desktop file

const desktopEntry = `[Desktop Entry]
Type=Application
Name=Glucobar
Comment=Glucose level in the system tray
Exec=%s tray
Terminal=false
X-GNOME-Autostart-enabled=true
`

// DesktopEntry is an XDG autostart entry.
type DesktopEntry struct {
	Path string
	Exec string
}

func linuxDesktopPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autostart", "glucobar.desktop"), nil
}

func (d *DesktopEntry) IsRegistered() bool { return exists(d.Path) }

func (d *DesktopEntry) Register() error {
	if err := os.MkdirAll(filepath.Dir(d.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(d.Path, []byte(fmt.Sprintf(desktopEntry, d.Exec)), 0o644)
}

func (d *DesktopEntry) Unregister() error { return removeIfExists(d.Path) }

// macOS: LaunchAgent plist

const launchAgentLabel = "com.glucobar.tray"

const launchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>` + launchAgentLabel + `</string>
    <key>ProgramArguments</key>
    <array>
        <string>%s</string>
        <string>tray</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

// LaunchAgent is a per-user launchd agent.
type LaunchAgent struct {
	Path string
	Exec string
	// Launchctl runs launchctl with args; nil skips loading.
	Launchctl func(args ...string) error
}

func darwinPlistPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", launchAgentLabel+".plist"), nil
}

func launchctl(args ...string) error {
	return exec.Command("launchctl", args...).Run()
}

func (a *LaunchAgent) IsRegistered() bool { return exists(a.Path) }

func (a *LaunchAgent) Register() error {
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(a.Path, []byte(fmt.Sprintf(launchAgentPlist, a.Exec)), 0o644); err != nil {
		return err
	}
	if a.Launchctl == nil {
		return nil
	}
	return a.Launchctl("load", a.Path)
}

func (a *LaunchAgent) Unregister() error {
	if a.Launchctl != nil && exists(a.Path) {
		_ = a.Launchctl("unload", a.Path)
	}
	return removeIfExists(a.Path)
}

// Windows: shortcut in the per-user Startup folder

const shortcutName = "GlucoseMonitor.lnk"

// StartupShortcut is a .lnk in the Startup folder.
type StartupShortcut struct {
	Path   string
	Target string
}

func windowsStartupPath() (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		return "", fmt.Errorf("APPDATA is not set")
	}
	return filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup", shortcutName), nil
}

func (s *StartupShortcut) IsRegistered() bool { return exists(s.Path) }

func (s *StartupShortcut) Register() error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	return createShortcut(s.Path, s.Target, "tray")
}

func (s *StartupShortcut) Unregister() error { return removeIfExists(s.Path) }

// Toggle flips the registration and returns the new state, re-read from the
// registrar.
func Toggle(r Registrar) (bool, error) {
	var err error
	if r.IsRegistered() {
		err = r.Unregister()
	} else {
		err = r.Register()
	}
	return r.IsRegistered(), err
}
