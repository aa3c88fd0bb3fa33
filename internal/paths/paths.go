// Package paths resolves the per-user files glucobar reads and writes.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "glucobar"

// base is one per-user directory: an absolute $XDG_* value wins, then the
// OS default, then a directory under $HOME.
type base struct {
	env       string
	osDefault func() (string, error)
	underHome string
}

var (
	configBase = base{"XDG_CONFIG_HOME", os.UserConfigDir, ".config"}
	stateBase  = base{"XDG_STATE_HOME", nil, filepath.Join(".local", "state")}
	cacheBase  = base{"XDG_CACHE_HOME", os.UserCacheDir, ".cache"}
)

func (b base) file(elem ...string) (string, error) {
	root, err := b.root()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{root, appName}, elem...)...), nil
}

func (b base) root() (string, error) {
	if dir := os.Getenv(b.env); filepath.IsAbs(dir) {
		return dir, nil
	}
	if b.osDefault != nil {
		if dir, err := b.osDefault(); err == nil && dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("resolve %s: no home directory", b.env)
	}
	return filepath.Join(home, b.underHome), nil
}

// ConfigFile is the optional YAML config file.
func ConfigFile() (string, error) { return configBase.file("config.yaml") }

// DefaultLogFile is where the tray logs when no log.file is configured.
func DefaultLogFile() (string, error) { return stateBase.file("logs", "glucobar.log") }

// ReadingCacheFile holds the last fetched reading.
func ReadingCacheFile() (string, error) { return cacheBase.file("reading.json") }
