package main

import (
	"bufio"
	"context"
	"io"
)

// toggleOnEnter calls toggle once per line read from r. It is the manual
// trigger when neither the hotkey, the tray nor the TUI is available.
func toggleOnEnter(ctx context.Context, r io.Reader, toggle func()) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		toggle()
	}
}
