package app

import (
	"fmt"

	"voiceclip/engine"
)

type Kind int

const (
	StartRecording Kind = iota
	StopRecording
	ToggleRecording
	TranscriptionDone
	SwitchModel
	SetLanguage
	Announce
	errorExpired
)

func (k Kind) String() string {
	switch k {
	case StartRecording:
		return "start"
	case StopRecording:
		return "stop"
	case ToggleRecording:
		return "toggle"
	case TranscriptionDone:
		return "transcription_done"
	case SwitchModel:
		return "switch_model"
	case SetLanguage:
		return "set_language"
	case Announce:
		return "announce"
	case errorExpired:
		return "error_expired"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Source names who asked for a start or stop.
const (
	FromHotkey  = "hotkey"
	FromTray    = "tray"
	FromTUI     = "tui"
	FromConsole = "console"
	FromLimit   = "max_duration"
	FromTest    = "test"
)

// Event is the only way other goroutines talk to the orchestrator.
type Event struct {
	Kind   Kind
	Source string
	Name   string
	Result engine.Result

	gen uint64
}
