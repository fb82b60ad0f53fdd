package audio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrCancelled is returned when the user aborts device selection.
var ErrCancelled = errors.New("device selection cancelled")

// picker is the state of the arrow-key device menu.
type picker struct {
	devices []DeviceInfo
	cursor  int
}

func (p *picker) render(w io.Writer) {
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Select input device (↑/↓ or j/k, Enter to confirm, q to cancel):\r\n\r\n")
	for i, d := range p.devices {
		label := d.Name
		if IsBluetooth(d.Name) {
			label += " \x1b[33m[bluetooth: lower quality]\x1b[0m"
		}
		if i == p.cursor {
			fmt.Fprintf(w, "  \x1b[1;36m> %s\x1b[0m\r\n", label)
		} else {
			fmt.Fprintf(w, "    %s\r\n", label)
		}
	}
}

// lines is how many rows render draws, for moving the cursor back up.
func (p *picker) lines() int {
	return len(p.devices) + 2
}

// key applies one keypress. It reports whether the selection is finished
// and, if so, whether it was confirmed.
func (p *picker) key(in []byte) (done, ok bool) {
	switch {
	case len(in) == 1 && (in[0] == '\r' || in[0] == '\n'):
		return true, true
	case len(in) == 1 && (in[0] == 3 || in[0] == 'q' || in[0] == 0x1b):
		return true, false
	case len(in) == 1 && in[0] == 'j', len(in) == 3 && in[0] == 0x1b && in[1] == '[' && in[2] == 'B':
		if p.cursor < len(p.devices)-1 {
			p.cursor++
		}
	case len(in) == 1 && in[0] == 'k', len(in) == 3 && in[0] == 0x1b && in[1] == '[' && in[2] == 'A':
		if p.cursor > 0 {
			p.cursor--
		}
	}
	return false, false
}

// SelectDevice asks the user to pick a capture device. With a single device
// there is nothing to ask. On a terminal it shows an arrow-key menu,
// otherwise a numbered list read from stdin.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, ErrNoDevice
	case 1:
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return selectNumbered(devices, os.Stdin, os.Stdout)
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, old)

	p := &picker{devices: devices}
	p.render(os.Stdout)
	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		if done, ok := p.key(buf[:n]); done {
			fmt.Print("\r\n")
			if !ok {
				return nil, ErrCancelled
			}
			return &devices[p.cursor], nil
		}
		fmt.Printf("\x1b[%dA", p.lines())
		p.render(os.Stdout)
	}
}

func selectNumbered(devices []DeviceInfo, in io.Reader, out io.Writer) (*DeviceInfo, error) {
	for i, d := range devices {
		fmt.Fprintf(out, "%2d) %s\n", i+1, d.Name)
	}
	fmt.Fprint(out, "Device number: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(devices) {
		return nil, fmt.Errorf("invalid device number %q", strings.TrimSpace(line))
	}
	return &devices[n-1], nil
}
