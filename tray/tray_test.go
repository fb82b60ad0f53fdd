package tray

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"runtime"
	"testing"

	"voiceclip/model"
	"voiceclip/status"
)

func TestRecordItem(t *testing.T) {
	tests := []struct {
		state   status.State
		title   string
		enabled bool
	}{
		{status.Idle, "Start Recording", true},
		{status.Recording, "Stop Recording", true},
		{status.Transcribing, "Transcribing…", false},
		{status.Error, "Start Recording", true},
	}
	for _, tt := range tests {
		title, enabled := recordItem(tt.state)
		if title != tt.title || enabled != tt.enabled {
			t.Errorf("%s: got (%q, %v), want (%q, %v)", tt.state, title, enabled, tt.title, tt.enabled)
		}
	}
}

func TestStatusLine(t *testing.T) {
	if got := statusLine(status.Update{}); got != "Ready" {
		t.Errorf("idle = %q", got)
	}
	if got := statusLine(status.Update{Notice: "Too short"}); got != "Too short" {
		t.Errorf("notice = %q", got)
	}
	got := statusLine(status.Update{State: status.Error, Reason: status.EngineMissing})
	if got != "Error: Transcription engine not found" {
		t.Errorf("error = %q", got)
	}
}

func TestTooltip(t *testing.T) {
	if got := tooltipFor(status.Update{}, "alt_l+ctrl_l"); got != "voiceclip – hold alt_l+ctrl_l to talk" {
		t.Errorf("idle tooltip = %q", got)
	}
	if got := tooltipFor(status.Update{State: status.Recording}, "x"); got != "voiceclip – Recording…" {
		t.Errorf("recording tooltip = %q", got)
	}
}

func TestModelTitle(t *testing.T) {
	title, ok := modelTitle(model.Descriptor{Label: "Tiny", Downloaded: false})
	if ok || title != "Tiny (not downloaded)" {
		t.Errorf("got (%q, %v)", title, ok)
	}
	title, ok = modelTitle(model.Descriptor{Label: "Base", Downloaded: true})
	if !ok || title != "Base" {
		t.Errorf("got (%q, %v)", title, ok)
	}
}

func TestIconsDistinct(t *testing.T) {
	seen := map[string]status.State{}
	for _, s := range []status.State{status.Idle, status.Recording, status.Transcribing, status.Error} {
		icon := iconFor(s)
		if len(icon) == 0 {
			t.Fatalf("%s: empty icon", s)
		}
		if prev, dup := seen[string(icon)]; dup {
			t.Errorf("%s shares an icon with %s", s, prev)
		}
		seen[string(icon)] = s
	}
}

func TestIconsDecode(t *testing.T) {
	data := iconRecHi
	if runtime.GOOS == "windows" {
		data = data[22:]
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 44 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}

func TestWrapICO(t *testing.T) {
	payload := []byte("png-bytes")
	ico := wrapICO(payload, 44)
	if len(ico) != 22+len(payload) {
		t.Fatalf("len = %d", len(ico))
	}
	if binary.LittleEndian.Uint16(ico[2:]) != 1 || binary.LittleEndian.Uint16(ico[4:]) != 1 {
		t.Error("bad header")
	}
	if ico[6] != 44 || ico[7] != 44 {
		t.Errorf("dims = %d x %d", ico[6], ico[7])
	}
	if binary.LittleEndian.Uint32(ico[14:]) != uint32(len(payload)) || binary.LittleEndian.Uint32(ico[18:]) != 22 {
		t.Error("bad size or offset")
	}
	if !bytes.Equal(ico[22:], payload) {
		t.Error("payload not copied")
	}
}

func TestIndicatorBeforeInit(t *testing.T) {
	// Must not touch systray before onReady.
	Indicator{}.Show(status.Update{State: status.Recording})
}

func TestPaintLayersInOrder(t *testing.T) {
	data := paint(10, layer{red, rect(0, 0, 1, 1)}, layer{white, rect(0, 0, 0.5, 1)})
	if runtime.GOOS == "windows" {
		data = data[22:]
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if r, g, _, _ := img.At(0, 0).RGBA(); r>>8 != 255 || g>>8 != 255 {
		t.Errorf("left pixel not white: %v", img.At(0, 0))
	}
	if r, g, _, _ := img.At(9, 0).RGBA(); r>>8 != 255 || g>>8 != 59 {
		t.Errorf("right pixel not red: %v", img.At(9, 0))
	}
}

func TestMicShape(t *testing.T) {
	m := mic(1)
	if !m(0.5, 0.35) {
		t.Error("capsule centre outside")
	}
	if !m(0.5, 0.83) {
		t.Error("base outside")
	}
	for _, p := range [][2]float64{{0.02, 0.02}, {0.98, 0.02}, {0.5, 0.05}, {0.5, 0.66}} {
		if m(p[0], p[1]) {
			t.Errorf("%v inside", p)
		}
	}
}
