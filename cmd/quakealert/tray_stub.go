//go:build !windows

package main

import "go.uber.org/zap"

// startTray is only available on Windows.
func startTray(_ func(), logger *zap.Logger) {
	logger.Warn("TRAY is only supported on Windows, ignoring")
}
