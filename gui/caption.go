// Package gui is the floating overlay that follows a recording: "Listening…"
// while the key is held, "Transcribing…" while the engine runs, then the
// copied text for a moment. The window needs the gui build tag; what it
// shows does not.
package gui

import (
	"image/color"
	"sync"
	"time"
	"unicode/utf8"

	"voiceclip/status"
)

type Tone int

const (
	Hidden Tone = iota
	Listening
	Working
	Done
	Failed
)

const (
	doneLinger   = 1500 * time.Millisecond
	previewRunes = 40
)

// Caption is one overlay frame. Linger is how long it stays up before the
// overlay hides itself; zero keeps it until the next update.
type Caption struct {
	Text   string
	Tone   Tone
	Linger time.Duration
}

func (c Caption) Visible() bool { return c.Tone != Hidden }

func CaptionFor(u status.Update) Caption {
	switch u.State {
	case status.Recording:
		return Caption{Text: "Listening…", Tone: Listening}
	case status.Transcribing:
		text := "Transcribing…"
		if u.Notice != "" {
			text += " (" + u.Notice + ")"
		}
		return Caption{Text: text, Tone: Working}
	case status.Error:
		return Caption{Text: u.Reason.Message(), Tone: Failed}
	}
	switch {
	case u.Text != "":
		return Caption{Text: "Copied: " + preview(u.Text, previewRunes), Tone: Done, Linger: doneLinger}
	case u.Notice != "":
		return Caption{Text: u.Notice, Tone: Done, Linger: doneLinger}
	}
	return Caption{}
}

// preview cuts s to n runes, marking the cut with an ellipsis.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func toneColor(t Tone) color.Color {
	switch t {
	case Listening:
		return color.RGBA{220, 40, 40, 255}
	case Working:
		return color.RGBA{235, 170, 30, 255}
	case Done:
		return color.RGBA{60, 180, 90, 255}
	case Failed:
		return color.RGBA{200, 60, 200, 255}
	}
	return color.Transparent
}

// presenter turns updates into show and hide calls. A lingering caption
// hides itself when its time is up unless a newer update replaced it.
type presenter struct {
	mu    sync.Mutex
	gen   uint64
	show  func(Caption)
	hide  func()
	after func(time.Duration, func())
}

func newPresenter(show func(Caption), hide func()) *presenter {
	return &presenter{
		show: show,
		hide: hide,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

func (p *presenter) Show(u status.Update) {
	c := CaptionFor(u)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if !c.Visible() {
		p.hide()
		return
	}
	p.show(c)
	if c.Linger <= 0 {
		return
	}
	gen := p.gen
	p.after(c.Linger, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.gen == gen {
			p.hide()
		}
	})
}

// meter smooths input levels into the width fraction of the level bar.
type meter struct{ v float64 }

func (m *meter) step(level float64) float32 {
	m.v = m.v*0.6 + level*0.4
	return float32(min(1, max(0, m.v*10)))
}
