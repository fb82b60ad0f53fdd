// Package clipboard publishes transcriptions to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	cb "github.com/atotto/clipboard"

	"voiceclip/log"
)

var ErrClipboard = errors.New("clipboard write failed")

// Writer is a clipboard sink.
type Writer interface {
	Copy(text string) error
}

// System is the OS clipboard.
type System struct{}

func (System) Copy(text string) error { return Copy(text) }
func (System) Read() (string, error) { return Read() }

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

// Publisher writes final text to a Writer, optionally followed by a paste
// keystroke into the focused window.
type Publisher struct {
	w         Writer
	autoPaste atomic.Bool
	paste     func() error
}

func NewPublisher(w Writer) *Publisher {
	return &Publisher{w: w, paste: Paste}
}

func (p *Publisher) SetAutoPaste(on bool) { p.autoPaste.Store(on) }
func (p *Publisher) AutoPaste() bool      { return p.autoPaste.Load() }

// Publish replaces the clipboard contents with text. Empty text leaves the
// clipboard untouched. A failed paste keystroke is logged but not returned:
// the text is already on the clipboard.
func (p *Publisher) Publish(text string) error {
	if text == "" {
		return nil
	}
	if err := p.w.Copy(text); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboard, err)
	}
	if p.autoPaste.Load() {
		if err := p.paste(); err != nil {
			log.Warnf("auto-paste failed: %v", err)
		}
	}
	return nil
}

// Memory is an in-process Writer.
type Memory struct {
	mu     sync.Mutex
	text   string
	writes int
	Err    error
}

func (m *Memory) Copy(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.text = text
	m.writes++
	return nil
}

func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, m.Err
}

func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
