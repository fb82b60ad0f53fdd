//go:build !gui

package main

import (
	"fmt"
	"os"

	"voiceclip/config"
	"voiceclip/log"
)

func newOverlay(cfg config.Config, _ func() float64) overlay {
	if cfg.Overlay {
		log.Warn("overlay requested in a build without gui support")
		fmt.Fprintln(os.Stderr, "Warning: -overlay needs a build with -tags gui")
	}
	return nil
}
