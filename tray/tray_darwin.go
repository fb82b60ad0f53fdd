//go:build darwin

package tray

import (
	"fyne.io/systray"
	"golang.design/x/hotkey/mainthread"
)

// Init starts the tray on the main thread and returns a channel closed when
// the user picks Quit.
func Init() <-chan struct{} {
	start, _ := systray.RunWithExternalLoop(onReady, onExit)
	mainthread.Call(start)
	return quitCh
}
