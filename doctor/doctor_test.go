package doctor

import (
	"bufio"
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voiceclip/audio"
	"voiceclip/clipboard"
	"voiceclip/hotkey"
	"voiceclip/model"
)

func newDoctor(t *testing.T, opts Options) (*doctor, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts.Out = &out
	if opts.In == nil {
		opts.In = strings.NewReader("")
	}
	if opts.RecordFor == 0 {
		opts.RecordFor = 20 * time.Millisecond
	}
	d := &doctor{Options: opts}
	d.in = bufio.NewReader(opts.In)
	return d, &out
}

func catalog(t *testing.T, files ...string) *model.Catalog {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("ggml"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	c, err := model.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func tone(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	return s
}

func TestCheckModels(t *testing.T) {
	d, out := newDoctor(t, Options{Models: catalog(t, "ggml-base.bin"), Model: "base"})
	if err := checkModels(d); err != nil {
		t.Fatalf("base present: %v", err)
	}
	if !strings.Contains(out.String(), "[x] base") {
		t.Errorf("listing missing downloaded mark:\n%s", out)
	}

	d, out = newDoctor(t, Options{Models: catalog(t, "ggml-base.bin"), Model: "tiny"})
	err := checkModels(d)
	if !errors.Is(err, model.ErrNotDownloaded) {
		t.Fatalf("tiny missing: got %v", err)
	}
	if !strings.Contains(out.String(), "ggml-tiny.bin") {
		t.Errorf("no download hint:\n%s", out)
	}
}

func TestCheckEngineMissing(t *testing.T) {
	d, _ := newDoctor(t, Options{})
	if err := checkEngine(d); err == nil {
		t.Fatal("expected failure without engine")
	}
}

func TestCheckMic(t *testing.T) {
	fake := audio.NewFakeContextPCM(tone(16000), false)
	d, out := newDoctor(t, Options{NewAudio: func() (audio.Context, error) { return fake, nil }})
	if err := checkMic(d); err != nil {
		t.Fatalf("checkMic: %v", err)
	}
	if d.buf == nil || len(d.buf.Samples) < 16000 {
		t.Fatalf("recording not kept: %+v", d.buf)
	}
	if !strings.Contains(out.String(), "recorded") {
		t.Errorf("output:\n%s", out)
	}
	if strings.Contains(out.String(), "silent") {
		t.Errorf("tone reported as silent:\n%s", out)
	}
}

func TestCheckMicUnknownDevice(t *testing.T) {
	fake := audio.NewFakeContextPCM(tone(100), false)
	d, _ := newDoctor(t, Options{
		Device:   "USB Mic",
		NewAudio: func() (audio.Context, error) { return fake, nil },
	})
	if err := checkMic(d); !errors.Is(err, audio.ErrNoDevice) {
		t.Fatalf("got %v, want ErrNoDevice", err)
	}
}

func TestCheckMicNoBackend(t *testing.T) {
	d, _ := newDoctor(t, Options{NewAudio: func() (audio.Context, error) { return nil, errors.New("no pulse") }})
	if err := checkMic(d); err == nil || !strings.Contains(err.Error(), "no pulse") {
		t.Fatalf("got %v", err)
	}
}

func TestCheckClipboard(t *testing.T) {
	d, _ := newDoctor(t, Options{Clipboard: &clipboard.Memory{}})
	if err := checkClipboard(d); err != nil {
		t.Fatalf("memory clipboard: %v", err)
	}
	d, _ = newDoctor(t, Options{Clipboard: &clipboard.Memory{Err: errors.New("no display")}})
	if err := checkClipboard(d); err == nil || !strings.Contains(err.Error(), "write") {
		t.Fatalf("got %v", err)
	}
}

func TestCheckHotkeyInteractive(t *testing.T) {
	combo, _ := hotkey.ParseCombo("ctrl_l+alt_l")
	src := hotkey.NewFake()
	d, out := newDoctor(t, Options{
		Combo:       combo,
		Interactive: true,
		NewSource:   func(string) (hotkey.Source, error) { return src, nil },
	})
	go func() {
		src.Press("ctrl_l")
		src.Press("alt_l")
		src.Release("alt_l")
		src.Release("ctrl_l")
	}()
	if err := checkHotkey(d); err != nil {
		t.Fatalf("checkHotkey: %v", err)
	}
	if !strings.Contains(out.String(), "released") {
		t.Errorf("output:\n%s", out)
	}
}

func TestCheckHotkeyRegisterFails(t *testing.T) {
	d, _ := newDoctor(t, Options{
		NewSource: func(string) (hotkey.Source, error) { return hotkey.NewFailingFake(hotkey.ErrUnavailable), nil },
	})
	if err := checkHotkey(d); !errors.Is(err, hotkey.ErrUnavailable) {
		t.Fatalf("got %v", err)
	}
}

func TestRunReportsFailures(t *testing.T) {
	fake := audio.NewFakeContextPCM(tone(16000), false)
	var out bytes.Buffer
	code := Run(Options{
		Models:    catalog(t, "ggml-base.bin"),
		Model:     "base",
		Out:       &out,
		In:        strings.NewReader(""),
		Clipboard: &clipboard.Memory{},
		NewAudio:  func() (audio.Context, error) { return fake, nil },
		NewSource: func(string) (hotkey.Source, error) { return hotkey.NewFake(), nil },
		RecordFor: 20 * time.Millisecond,
	})
	if code != 1 {
		t.Fatalf("exit code = %d, want 1 (no engine)", code)
	}
	s := out.String()
	if strings.Count(s, "FAIL") != 1 || strings.Count(s, "PASS") != 4 {
		t.Errorf("unexpected tally:\n%s", s)
	}
}
