package autostart

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesktopEntry_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autostart", "glucobar.desktop")
	d := &DesktopEntry{Path: path, Exec: "/opt/glucobar/glucobar"}

	assert.False(t, d.IsRegistered())
	require.NoError(t, d.Register())
	assert.True(t, d.IsRegistered())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exec=/opt/glucobar/glucobar tray\n")
	assert.Contains(t, string(data), "[Desktop Entry]")

	require.NoError(t, d.Unregister())
	assert.False(t, d.IsRegistered())
}

func TestDesktopEntry_UnregisterMissing(t *testing.T) {
	d := &DesktopEntry{Path: filepath.Join(t.TempDir(), "none.desktop")}
	assert.NoError(t, d.Unregister())
}

func TestLaunchAgent_LoadsAndUnloads(t *testing.T) {
	var calls [][]string
	path := filepath.Join(t.TempDir(), "LaunchAgents", launchAgentLabel+".plist")
	a := &LaunchAgent{
		Path: path,
		Exec: "/Applications/glucobar",
		Launchctl: func(args ...string) error {
			calls = append(calls, args)
			return nil
		},
	}

	require.NoError(t, a.Register())
	assert.True(t, a.IsRegistered())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<string>/Applications/glucobar</string>")
	assert.Contains(t, string(data), "<string>"+launchAgentLabel+"</string>")

	require.NoError(t, a.Unregister())
	assert.False(t, a.IsRegistered())
	assert.Equal(t, [][]string{{"load", path}, {"unload", path}}, calls)
}

func TestStartupShortcut_Unregister(t *testing.T) {
	path := filepath.Join(t.TempDir(), shortcutName)
	require.NoError(t, os.WriteFile(path, []byte("lnk"), 0o644))

	s := &StartupShortcut{Path: path, Target: `C:\glucobar.exe`}
	assert.True(t, s.IsRegistered())
	require.NoError(t, s.Unregister())
	assert.False(t, s.IsRegistered())
}

func TestStartupShortcut_RegisterOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("creates a real shortcut on windows")
	}
	s := &StartupShortcut{Path: filepath.Join(t.TempDir(), shortcutName)}
	assert.ErrorIs(t, s.Register(), ErrUnsupported)
	assert.False(t, s.IsRegistered())
}

func TestToggle(t *testing.T) {
	d := &DesktopEntry{Path: filepath.Join(t.TempDir(), "glucobar.desktop"), Exec: "glucobar"}

	on, err := Toggle(d)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = Toggle(d)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestWindowsStartupPath(t *testing.T) {
	t.Setenv("APPDATA", filepath.FromSlash("/users/me/AppData/Roaming"))
	path, err := windowsStartupPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.FromSlash("/users/me/AppData/Roaming"),
		"Microsoft", "Windows", "Start Menu", "Programs", "Startup", "GlucoseMonitor.lnk"), path)

	t.Setenv("APPDATA", "")
	_, err = windowsStartupPath()
	assert.Error(t, err)
}
