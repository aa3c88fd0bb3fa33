//go:build !windows

package autostart

func createShortcut(_, _, _ string) error {
	return ErrUnsupported
}
