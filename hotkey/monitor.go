package hotkey

import "context"

// Monitor turns raw key transitions into start/stop edges for a Combo.
// Start fires once when the last combo member goes down; Stop fires when any
// combo member is released after a Start. Key auto-repeat never re-triggers.
// Monitor is not safe for concurrent use; Run owns it.
type Monitor struct {
	combo   Combo
	pressed map[Key]bool
	fired   bool
	onStart func()
	onStop  func()
}

func NewMonitor(combo Combo, onStart, onStop func()) *Monitor {
	return &Monitor{
		combo:   combo,
		pressed: make(map[Key]bool),
		onStart: onStart,
		onStop:  onStop,
	}
}

func (m *Monitor) Handle(ev KeyEvent) {
	if ev.Down {
		if m.pressed[ev.Key] {
			return
		}
		m.pressed[ev.Key] = true
		if !m.fired && m.held() {
			m.fired = true
			m.onStart()
		}
		return
	}

	if !m.pressed[ev.Key] {
		return
	}
	delete(m.pressed, ev.Key)
	if m.fired && m.combo.Contains(ev.Key) {
		m.fired = false
		m.onStop()
	}
}

// Active reports whether a Start is outstanding.
func (m *Monitor) Active() bool {
	return m.fired
}

func (m *Monitor) held() bool {
	if len(m.combo) == 0 {
		return false
	}
	for _, k := range m.combo {
		if !m.pressed[k] {
			return false
		}
	}
	return true
}

// Run feeds events from src until ctx is done or the source closes.
func (m *Monitor) Run(ctx context.Context, src Source) {
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.Handle(ev)
		}
	}
}
