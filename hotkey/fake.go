package hotkey

import "sync"

// FakeSource is a Source driven by Press and Release calls.
type FakeSource struct {
	events chan KeyEvent
	once   sync.Once
	err    error
}

func NewFake() *FakeSource {
	return &FakeSource{events: make(chan KeyEvent, 64)}
}

// NewFailingFake returns a source whose Register fails with err.
func NewFailingFake(err error) *FakeSource {
	return &FakeSource{events: make(chan KeyEvent), err: err}
}

func (f *FakeSource) Register() error         { return f.err }
func (f *FakeSource) Events() <-chan KeyEvent { return f.events }

func (f *FakeSource) Unregister() {
	f.once.Do(func() { close(f.events) })
}

func (f *FakeSource) Press(k Key)   { f.events <- KeyEvent{Key: k, Down: true} }
func (f *FakeSource) Release(k Key) { f.events <- KeyEvent{Key: k, Down: false} }
