//go:build windows

package main

import (
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

var (
	procGetConsoleWindow = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetConsoleWindow")
	procFreeConsole      = windows.NewLazySystemDLL("kernel32.dll").NewProc("FreeConsole")
	procShowWindow       = windows.NewLazySystemDLL("user32.dll").NewProc("ShowWindow")
)

// hideConsoleWindow hides the console window the process was started with and
// then detaches from it. The window handle is read before detaching, since
// GetConsoleWindow returns 0 afterwards.
func hideConsoleWindow(logger *zap.Logger) {
	log := logger.Named("console")

	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		log.Debug("no console window attached")
		return
	}
	// ShowWindow returns whether the window was previously visible.
	wasVisible, _, _ := procShowWindow.Call(hwnd, windows.SW_HIDE)
	log.Debug("console window hidden", zap.Bool("was_visible", wasVisible != 0))

	if ok, _, err := procFreeConsole.Call(); ok == 0 {
		log.Warn("detach from console failed", zap.Error(err))
	}
}
