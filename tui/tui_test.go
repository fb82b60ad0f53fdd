package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"voiceclip/status"
)

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func sized(opts Options) Model {
	m := New(opts)
	m.width, m.height = 120, 30
	return m
}

func TestUpdateTracksState(t *testing.T) {
	m := sized(Options{})
	m, _ = send(t, m, UpdateMsg{State: status.Recording, Model: "base", At: time.Now()})
	if m.state != status.Recording || m.model != "base" {
		t.Fatalf("state=%s model=%q", m.state, m.model)
	}
	if !strings.Contains(m.View(), "REC") {
		t.Error("recording view missing REC")
	}

	m, _ = send(t, m, UpdateMsg{State: status.Transcribing, Model: "base"})
	if !strings.Contains(m.View(), "TRANSCRIBING") {
		t.Error("transcribing view missing label")
	}

	m, _ = send(t, m, UpdateMsg{State: status.Idle, Job: "j1", Text: "hello world", Model: "base"})
	if m.count != 1 || m.lastText != "hello world" || !m.copied {
		t.Fatalf("count=%d text=%q copied=%v", m.count, m.lastText, m.copied)
	}
	v := m.View()
	if !strings.Contains(v, "hello world") || !strings.Contains(v, "copied") {
		t.Errorf("view missing last text:\n%s", v)
	}

	// Same job re-published does not double count.
	m, _ = send(t, m, UpdateMsg{State: status.Idle, Job: "j1", Text: "hello world"})
	if m.count != 1 {
		t.Errorf("count = %d after duplicate", m.count)
	}
}

func TestClipboardErrorNotMarkedCopied(t *testing.T) {
	m := sized(Options{})
	m, _ = send(t, m, UpdateMsg{State: status.Error, Reason: status.ClipboardError, Job: "j2", Text: "kept"})
	if m.copied {
		t.Error("text from failed clipboard write marked copied")
	}
	v := m.View()
	if !strings.Contains(v, "Could not write clipboard") {
		t.Errorf("error reason missing:\n%s", v)
	}
	if strings.Contains(v, "copied]") {
		t.Error("copied marker shown")
	}
}

func TestNoticeExpires(t *testing.T) {
	m := sized(Options{})
	m, _ = send(t, m, UpdateMsg{State: status.Idle, Notice: "Too short"})
	if !strings.Contains(m.View(), "Too short") {
		t.Fatal("notice not shown")
	}
	m, _ = send(t, m, tickMsg(time.Now().Add(noticeTTL+time.Second)))
	if m.notice != "" {
		t.Errorf("notice still set: %q", m.notice)
	}
}

func TestKeysInvokeHandlers(t *testing.T) {
	var toggled, copied int
	m := sized(Options{
		Toggle:   func() { toggled++ },
		CopyLast: func() { copied++ },
	})
	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("no command for r")
	}
	cmd()
	_, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	cmd()
	if toggled != 1 || copied != 1 {
		t.Errorf("toggled=%d copied=%d", toggled, copied)
	}

	_, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if cmd != nil {
		t.Error("unbound key produced a command")
	}
}

func TestLevelFollowsInput(t *testing.T) {
	lv := &Level{}
	m := sized(Options{Level: lv})
	m, _ = send(t, m, UpdateMsg{State: status.Recording, At: time.Now()})
	lv.Set(0.5)
	m, _ = send(t, m, tickMsg(time.Now()))
	if m.level <= 0 || m.peak != 0.5 {
		t.Errorf("level=%f peak=%f", m.level, m.peak)
	}
	m, _ = send(t, m, UpdateMsg{State: status.Transcribing})
	if m.level != 0 {
		t.Errorf("level not reset: %f", m.level)
	}
}

func TestLevelNil(t *testing.T) {
	var lv *Level
	if lv.Get() != 0 {
		t.Error("nil level should read 0")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q", got)
	}
	if got := wrapText("", 5); len(got) != 1 || got[0] != "" {
		t.Errorf("empty: %q", got)
	}
	for _, line := range wrapText(strings.Repeat("ü", 25), 10) {
		if n := len([]rune(line)); n > 10 {
			t.Errorf("line too long: %d runes", n)
		}
	}
}

func TestEyeAllStates(t *testing.T) {
	for _, st := range []status.State{status.Idle, status.Recording, status.Transcribing, status.Error} {
		out := renderEye(3, 0.1, st)
		if n := strings.Count(out, "\n"); n != eyeRows {
			t.Errorf("%s: %d rows", st, n)
		}
	}
}
