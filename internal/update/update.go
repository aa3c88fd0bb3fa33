// Package update checks GitHub releases for a newer glucobar and swaps the
// running binary for it.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	Repo          = "tnunamak/glucobar"
	DefaultAPIURL = "https://api.github.com/repos/" + Repo + "/releases/latest"
	httpTimeout   = 15 * time.Second

	// DevVersion is the version of builds without release ldflags.
	DevVersion = "dev"
)

type Release struct {
	Version string
	URL     string
}

type ghRelease struct {
	TagName string `json:"tag_name"`
}

// Checker looks up the latest release.
type Checker struct {
	APIURL     string
	HTTPClient *http.Client
	GOOS       string
	GOARCH     string
}

// NewChecker returns a Checker for the public release feed and the running
// platform.
func NewChecker() *Checker {
	return &Checker{
		APIURL:     DefaultAPIURL,
		HTTPClient: &http.Client{Timeout: httpTimeout},
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}
}

// Check returns the latest release if it is newer than currentVersion, and
// nil when already up to date. Development builds never update.
func (c *Checker) Check(ctx context.Context, currentVersion string) (*Release, error) {
	if currentVersion == DevVersion {
		return nil, nil
	}
	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return nil, fmt.Errorf("check update: bad current version %q: %w", currentVersion, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("check update: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check update: GitHub API returned %d", resp.StatusCode)
	}

	var rel ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("check update: %w", err)
	}

	latest, err := semver.NewVersion(rel.TagName)
	if err != nil {
		return nil, fmt.Errorf("check update: bad release tag %q: %w", rel.TagName, err)
	}
	if !latest.GreaterThan(current) {
		return nil, nil
	}

	return &Release{Version: rel.TagName, URL: c.assetURL(rel.TagName)}, nil
}

func (c *Checker) assetURL(tag string) string {
	name := fmt.Sprintf("glucobar-%s-%s", c.GOOS, c.GOARCH)
	if c.GOOS == "windows" {
		name += ".exe"
	}
	return fmt.Sprintf("https://github.com/%s/releases/download/%s/%s", Repo, tag, name)
}

// Apply downloads the binary from url, verifies it, and replaces the
// currently running executable. The caller should restart after Apply returns.
func Apply(ctx context.Context, url string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("resolve symlinks: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "glucobar-update-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpBin := filepath.Join(tmpDir, filepath.Base(exe))
	if err := download(ctx, url, tmpBin); err != nil {
		return err
	}

	// macOS quarantine
	if runtime.GOOS == "darwin" {
		_ = exec.Command("xattr", "-d", "com.apple.quarantine", tmpBin).Run()
	}

	if err := exec.CommandContext(ctx, tmpBin, "version").Run(); err != nil {
		return fmt.Errorf("verify binary: %w", err)
	}

	// os.Rename fails across filesystems; fall back to copy.
	if err := os.Rename(tmpBin, exe); err != nil {
		if err := copyFile(tmpBin, exe); err != nil {
			return fmt.Errorf("replace binary: %w", err)
		}
	}

	return nil
}

func download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("write binary: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write binary: %w", err)
	}
	return os.Chmod(dst, 0o755)
}

// Restart launches a new tray process and returns. The caller should
// exit after calling this.
func Restart() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, "tray")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Chmod(0o755)
}

// StripV removes a leading "v" prefix for display: "v1.2.3" -> "1.2.3".
func StripV(version string) string {
	return strings.TrimPrefix(version, "v")
}
