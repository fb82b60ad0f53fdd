package hotkey

import (
	"fmt"
	"runtime"
	"sync"

	hook "github.com/robotn/gohook"
)

// hookSource reads the libuiohook global event stream. gohook reports a
// physical press as KeyHold and a release as KeyUp; KeyDown is the synthetic
// "typed" event and is ignored.
type hookSource struct {
	events chan KeyEvent
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newHook() *hookSource {
	return &hookSource{events: make(chan KeyEvent, 64)}
}

func (h *hookSource) Register() error {
	raw := hook.Start()
	if raw == nil {
		if runtime.GOOS == "darwin" {
			return fmt.Errorf("%w (fix: allow this terminal under System Settings > Privacy & Security > Input Monitoring and Accessibility)", ErrUnavailable)
		}
		return ErrUnavailable
	}
	h.stop = make(chan struct{})
	h.done = make(chan struct{})
	go func() {
		defer close(h.done)
		defer close(h.events)
		for {
			select {
			case <-h.stop:
				return
			case ev, ok := <-raw:
				if !ok {
					return
				}
				var down bool
				switch ev.Kind {
				case hook.KeyHold:
					down = true
				case hook.KeyUp:
				default:
					continue
				}
				k, ok := uiohookKey(ev.Keycode)
				if !ok {
					continue
				}
				select {
				case h.events <- KeyEvent{Key: k, Down: down}:
				case <-h.stop:
					return
				}
			}
		}
	}()
	return nil
}

func (h *hookSource) Unregister() {
	h.once.Do(func() {
		if h.stop == nil {
			close(h.events)
			return
		}
		close(h.stop)
		hook.End()
		<-h.done
	})
}

func (h *hookSource) Events() <-chan KeyEvent {
	return h.events
}
