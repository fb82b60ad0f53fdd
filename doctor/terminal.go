package doctor

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"voiceclip/shutdown"
)

// terminal holds the tty state from before the checks ran. Key sources
// that grab the keyboard can leave echo off; restore puts it back.
type terminal struct {
	fd    int
	state *term.State
}

func saveTerminal(f *os.File) *terminal {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	st, err := term.GetState(fd)
	if err != nil {
		return nil
	}
	return &terminal{fd: fd, state: st}
}

func (t *terminal) restore() {
	if t != nil {
		term.Restore(t.fd, t.state)
	}
}

// exitOnInterrupt restores the terminal and exits on the first termination
// signal until stop is called.
func exitOnInterrupt(t *terminal, out io.Writer) (stop func()) {
	ctx, cancel := shutdown.Context(context.Background())
	quit := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			t.restore()
			fmt.Fprintln(out, "\nInterrupted")
			os.Exit(1)
		case <-quit:
		}
	}()
	return func() {
		close(quit)
		<-exited
		cancel()
	}
}
