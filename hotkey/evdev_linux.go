//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey       = 1
	valRelease  = 0
	valPress    = 1
	valAutoRept = 2
)

const inputEventSize = 24

type evdevSource struct {
	events chan KeyEvent
	files  []*os.File
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func newEvdev() Source {
	return &evdevSource{events: make(chan KeyEvent, 64)}
}

func (h *evdevSource) Register() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("%w: no keyboard devices found (is user in 'input' group?)", ErrUnavailable)
	}

	h.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		h.wg.Add(1)
		go h.readEvents(f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("%w: could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)", ErrUnavailable)
	}

	return nil
}

func (h *evdevSource) readEvents(f *os.File) {
	defer h.wg.Done()
	buf := make([]byte, inputEventSize*16)

	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey || evValue == valAutoRept {
				continue
			}
			k, ok := evdevKey(evCode)
			if !ok {
				continue
			}
			select {
			case h.events <- KeyEvent{Key: k, Down: evValue == valPress}:
			case <-h.stop:
				return
			}
		}
	}
}

func (h *evdevSource) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
		h.wg.Wait()
		close(h.events)
	})
}

func (h *evdevSource) Events() <-chan KeyEvent {
	return h.events
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

// isKeyboard checks the key capability bitmap; mice and power buttons expose
// only a handful of bits.
func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(data))) > 10
}

// Diagnose reports whether evdev keyboards are readable by this user.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
