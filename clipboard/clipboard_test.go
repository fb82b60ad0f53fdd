package clipboard

import (
	"errors"
	"testing"
)

func TestPublishWritesText(t *testing.T) {
	m := &Memory{}
	p := NewPublisher(m)
	if err := p.Publish("hello world"); err != nil {
		t.Fatal(err)
	}
	if m.Text() != "hello world" {
		t.Errorf("clipboard = %q", m.Text())
	}
}

func TestPublishEmptyIsNoop(t *testing.T) {
	m := &Memory{}
	m.Copy("previous")
	p := NewPublisher(m)
	if err := p.Publish(""); err != nil {
		t.Fatal(err)
	}
	if m.Text() != "previous" || m.Writes() != 1 {
		t.Errorf("empty publish touched clipboard: %q (%d writes)", m.Text(), m.Writes())
	}
}

func TestPublishWrapsError(t *testing.T) {
	m := &Memory{Err: errors.New("no display")}
	p := NewPublisher(m)
	err := p.Publish("text")
	if !errors.Is(err, ErrClipboard) {
		t.Fatalf("err = %v, want ErrClipboard", err)
	}
}

func TestAutoPaste(t *testing.T) {
	m := &Memory{}
	p := NewPublisher(m)
	pastes := 0
	p.paste = func() error { pastes++; return errors.New("uinput denied") }

	p.Publish("one")
	if pastes != 0 {
		t.Fatal("pasted with auto-paste off")
	}
	p.SetAutoPaste(true)
	if err := p.Publish("two"); err != nil {
		t.Fatalf("paste failure surfaced as publish error: %v", err)
	}
	if pastes != 1 {
		t.Errorf("pastes = %d, want 1", pastes)
	}
	p.Publish("")
	if pastes != 1 {
		t.Error("pasted empty text")
	}
}
