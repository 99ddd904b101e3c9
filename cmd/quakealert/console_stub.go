//go:build !windows

package main

import "go.uber.org/zap"

// hideConsoleWindow is only available on Windows.
func hideConsoleWindow(logger *zap.Logger) {
	logger.Warn("HIDE_CONSOLE is only supported on Windows, ignoring")
}
