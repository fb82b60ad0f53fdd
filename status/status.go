// Package status defines the application state published to indicators and
// the hub that fans state changes out to them.
package status

import (
	"fmt"
	"time"
)

type State int

const (
	Idle State = iota
	Recording
	Transcribing
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	case Error:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Reason classifies a failure. The zero value means no failure.
type Reason string

const (
	None            Reason = ""
	DeviceError     Reason = "device_error"
	EngineMissing   Reason = "engine_missing"
	ModelMissing    Reason = "model_missing"
	EngineTimeout   Reason = "engine_timeout"
	MalformedOutput Reason = "malformed_output"
	EngineFailed    Reason = "engine_failed"
	EngineBusy      Reason = "engine_busy"
	ClipboardError  Reason = "clipboard_error"
	ModelNotFound   Reason = "model_not_found"
)

// Message is the short text indicators show for r.
func (r Reason) Message() string {
	switch r {
	case None:
		return ""
	case DeviceError:
		return "Microphone unavailable"
	case EngineMissing:
		return "Transcription engine not found"
	case ModelMissing:
		return "Model file missing"
	case EngineTimeout:
		return "Transcription timed out"
	case MalformedOutput:
		return "Unreadable engine output"
	case EngineFailed:
		return "Transcription failed"
	case EngineBusy:
		return "Engine busy, recording dropped"
	case ClipboardError:
		return "Could not write clipboard"
	case ModelNotFound:
		return "Unknown or missing model"
	}
	return string(r)
}

// Update is one snapshot sent to indicators. Job and Text are set when the
// update follows a finished transcription; Notice carries a transient message
// that does not change State.
type Update struct {
	State    State
	Job      string
	Reason   Reason
	Detail   string
	Text     string
	Model    string
	Language string
	Notice   string
	Recorded time.Duration
	At       time.Time
}

func (u Update) String() string {
	s := u.State.String()
	if u.Reason != None {
		s += " (" + string(u.Reason) + ")"
	}
	return s
}

// Indicator renders updates. Show is called from a goroutine owned by the Hub,
// never from the orchestrator itself, so implementations may block briefly.
type Indicator interface {
	Show(Update)
}

type IndicatorFunc func(Update)

func (f IndicatorFunc) Show(u Update) { f(u) }
