package hotkey

import (
	"fmt"
	"slices"
	"strings"
)

// Key identifies a physical key by name, e.g. "ctrl_l", "space", "f9".
type Key string

// Base scancodes shared by evdev and libuiohook. Both derive from PC set-1
// scancodes, so below 0x60 the two tables agree.
var baseCodes = map[uint16]Key{
	1: "esc", 15: "tab", 28: "enter", 57: "space", 58: "caps_lock",
	14: "backspace",

	2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",

	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",

	29: "ctrl_l", 42: "shift_l", 54: "shift_r", 56: "alt_l",

	59: "f1", 60: "f2", 61: "f3", 62: "f4", 63: "f5", 64: "f6",
	65: "f7", 66: "f8", 67: "f9", 68: "f10", 87: "f11", 88: "f12",
}

var evdevExtra = map[uint16]Key{
	97: "ctrl_r", 100: "alt_r", 125: "super_l", 126: "super_r",
}

var uiohookExtra = map[uint16]Key{
	0x0E1D: "ctrl_r", 0x0E38: "alt_r", 0x0E5B: "super_l", 0x0E5C: "super_r",
}

var aliases = map[string]Key{
	"ctrl": "ctrl_l", "control": "ctrl_l", "control_l": "ctrl_l", "control_r": "ctrl_r",
	"alt": "alt_l", "option": "alt_l", "alt_gr": "alt_r",
	"shift": "shift_l",
	"cmd": "super_l", "cmd_l": "super_l", "cmd_r": "super_r",
	"super": "super_l", "win": "super_l", "meta": "super_l",
	"escape": "esc", "return": "enter",
}

func evdevKey(code uint16) (Key, bool) {
	if k, ok := baseCodes[code]; ok {
		return k, true
	}
	k, ok := evdevExtra[code]
	return k, ok
}

func uiohookKey(code uint16) (Key, bool) {
	if k, ok := baseCodes[code]; ok {
		return k, true
	}
	k, ok := uiohookExtra[code]
	return k, ok
}

func known(k Key) bool {
	for _, v := range baseCodes {
		if v == k {
			return true
		}
	}
	for _, v := range evdevExtra {
		if v == k {
			return true
		}
	}
	return false
}

// Combo is the set of keys that must be held together to record.
type Combo []Key

// DefaultCombo is left control plus left alt.
var DefaultCombo = Combo{"alt_l", "ctrl_l"}

// ParseCombo parses a "+"-separated list such as "ctrl_l+alt_l".
func ParseCombo(s string) (Combo, error) {
	var c Combo
	for _, part := range strings.Split(s, "+") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			return nil, fmt.Errorf("empty key in combo %q", s)
		}
		k := Key(name)
		if a, ok := aliases[name]; ok {
			k = a
		}
		if !known(k) {
			return nil, fmt.Errorf("unknown key %q in combo %q", part, s)
		}
		if !slices.Contains(c, k) {
			c = append(c, k)
		}
	}
	slices.Sort(c)
	return c, nil
}

func (c Combo) Contains(k Key) bool {
	return slices.Contains(c, k)
}

func (c Combo) String() string {
	parts := make([]string, len(c))
	for i, k := range c {
		parts[i] = string(k)
	}
	return strings.Join(parts, "+")
}
