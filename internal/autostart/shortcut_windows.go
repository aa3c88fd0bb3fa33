//go:build windows

package autostart

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

const sFalse = 0x00000001

// createShortcut writes a .lnk through the WScript.Shell COM object.
func createShortcut(path, target, args string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return fmt.Errorf("initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return fmt.Errorf("create WScript.Shell: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("query WScript.Shell: %w", err)
	}
	defer shell.Release()

	result, err := oleutil.CallMethod(shell, "CreateShortcut", path)
	if err != nil {
		return fmt.Errorf("create shortcut: %w", err)
	}
	shortcut := result.ToIDispatch()
	defer shortcut.Release()

	props := map[string]string{
		"TargetPath":       target,
		"Arguments":        args,
		"WorkingDirectory": filepath.Dir(target),
	}
	for name, value := range props {
		if _, err := oleutil.PutProperty(shortcut, name, value); err != nil {
			return fmt.Errorf("set shortcut %s: %w", name, err)
		}
	}

	if _, err := oleutil.CallMethod(shortcut, "Save"); err != nil {
		return fmt.Errorf("save shortcut: %w", err)
	}
	return nil
}
