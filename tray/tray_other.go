//go:build !darwin

package tray

import "fyne.io/systray"

// Init starts the tray in the background and returns a channel closed when
// the user picks Quit.
func Init() <-chan struct{} {
	go systray.Run(onReady, onExit)
	return quitCh
}
