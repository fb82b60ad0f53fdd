//go:build !linux

package hotkey

import "fmt"

type evdevSource struct {
	events chan KeyEvent
}

func newEvdev() Source {
	return &evdevSource{events: make(chan KeyEvent)}
}

func (h *evdevSource) Register() error {
	return fmt.Errorf("%w: evdev is only available on linux", ErrUnavailable)
}

func (h *evdevSource) Unregister()             {}
func (h *evdevSource) Events() <-chan KeyEvent { return h.events }

func Diagnose() (string, error) {
	return "", fmt.Errorf("evdev not supported on this platform, using global hook")
}
