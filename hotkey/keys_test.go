package hotkey

import "testing"

func TestParseCombo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ctrl_l+alt_l", "alt_l+ctrl_l"},
		{"Ctrl + Alt", "alt_l+ctrl_l"},
		{"cmd+shift+space", "shift_l+space+super_l"},
		{"f9", "f9"},
		{"ctrl_r+ctrl_r", "ctrl_r"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseCombo(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := c.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseComboErrors(t *testing.T) {
	for _, in := range []string{"", "ctrl+", "ctrl+hyper", "+a"} {
		if _, err := ParseCombo(in); err == nil {
			t.Errorf("ParseCombo(%q) succeeded, want error", in)
		}
	}
}

func TestDefaultComboParses(t *testing.T) {
	c, err := ParseCombo("ctrl_l+alt_l")
	if err != nil {
		t.Fatal(err)
	}
	if c.String() != DefaultCombo.String() {
		t.Errorf("got %q, want %q", c, DefaultCombo)
	}
}

func TestScancodeTables(t *testing.T) {
	tests := []struct {
		code  uint16
		evdev Key
		uio   Key
	}{
		{29, "ctrl_l", "ctrl_l"},
		{56, "alt_l", "alt_l"},
		{57, "space", "space"},
		{97, "ctrl_r", ""},
		{0x0E1D, "", "ctrl_r"},
		{125, "super_l", ""},
		{0x0E5B, "", "super_l"},
	}
	for _, tt := range tests {
		got, _ := evdevKey(tt.code)
		if got != tt.evdev {
			t.Errorf("evdevKey(%d) = %q, want %q", tt.code, got, tt.evdev)
		}
		got, _ = uiohookKey(tt.code)
		if got != tt.uio {
			t.Errorf("uiohookKey(%#x) = %q, want %q", tt.code, got, tt.uio)
		}
	}
}
