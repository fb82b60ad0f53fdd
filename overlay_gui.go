//go:build gui

package main

import (
	"fmt"
	"os"
	"runtime"

	"voiceclip/config"
	"voiceclip/gui"
	"voiceclip/log"
)

func newOverlay(cfg config.Config, level func() float64) overlay {
	if !cfg.Overlay {
		return nil
	}
	if runtime.GOOS == "darwin" && cfg.Tray {
		const msg = "overlay disabled: on macOS the overlay and the tray cannot share the main thread (run with -tray=false)"
		log.Warn(msg)
		fmt.Fprintln(os.Stderr, "Warning: "+msg)
		return nil
	}
	return gui.New(level)
}
