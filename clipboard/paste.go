package clipboard

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

// Init prepares the virtual keyboard. On Linux this needs write access to
// /dev/uinput.
func Init() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

func pasteChord() string {
	if runtime.GOOS == "darwin" {
		return "Cmd+V"
	}
	return "Ctrl+V"
}

// Paste sends the platform paste shortcut to the focused window.
func Paste() error {
	if err := Init(); err != nil {
		return err
	}
	kb.Clear()
	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	return kb.Launching()
}

// Verify checks that the keyboard event binding is initialized.
func Verify() (string, error) {
	if err := Init(); err != nil {
		if runtime.GOOS == "linux" {
			return "", fmt.Errorf("%w (fix: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput)", err)
		}
		return "", err
	}
	return fmt.Sprintf("keyboard event binding OK (%s)", pasteChord()), nil
}
