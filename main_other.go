//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// The tray and the overlay need the process main thread.
func main() {
	mainthread.Init(run)
}

func onMain(fn func()) { mainthread.Call(fn) }
