//go:build windows

package main

import (
	"github.com/getlantern/systray"
	"go.uber.org/zap"
)

// startTray shows a tray icon whose Quit entry calls onQuit. It blocks until
// the tray exits, so callers run it on its own goroutine.
func startTray(onQuit func(), logger *zap.Logger) {
	systray.Run(func() {
		systray.SetTitle("Quake Alert")
		systray.SetTooltip("Earthquake alerts running in the background")
		mQuit := systray.AddMenuItem("Quit", "Stop monitoring")
		go func() {
			<-mQuit.ClickedCh
			if onQuit != nil {
				onQuit()
			}
			systray.Quit()
		}()
	}, func() {
		logger.Info("tray closed")
	})
}
