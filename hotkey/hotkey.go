// Package hotkey watches global key state and reports when a configured
// key combination starts and stops being held.
package hotkey

import (
	"errors"
	"fmt"
)

type KeyEvent struct {
	Key  Key
	Down bool
}

// Source delivers raw key transitions from the OS. Events must be closed
// after Unregister.
type Source interface {
	Register() error
	Unregister()
	Events() <-chan KeyEvent
}

var ErrUnavailable = errors.New("global key source unavailable")

const (
	SourceHook  = "hook"
	SourceEvdev = "evdev"
)

// New returns the named key source. An empty name picks evdev on Linux when
// an input device is readable and the global hook otherwise.
func New(name string) (Source, error) {
	switch name {
	case "":
		if _, err := Diagnose(); err == nil {
			return newEvdev(), nil
		}
		return newHook(), nil
	case SourceHook:
		return newHook(), nil
	case SourceEvdev:
		return newEvdev(), nil
	}
	return nil, fmt.Errorf("unknown key source %q (use %s or %s)", name, SourceHook, SourceEvdev)
}
