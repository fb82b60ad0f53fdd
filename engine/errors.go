package engine

import (
	"errors"

	"voiceclip/status"
)

var (
	ErrEngineMissing = errors.New("whisper-cli not found")
	ErrModelMissing  = errors.New("model file missing")
	ErrTimeout       = errors.New("transcription timed out")
	ErrMalformed     = errors.New("malformed engine output")
	ErrFailed        = errors.New("engine exited with an error")
	ErrBusy          = errors.New("engine busy")
)

// Reason maps an engine error to the status taxonomy.
func Reason(err error) status.Reason {
	switch {
	case err == nil:
		return status.None
	case errors.Is(err, ErrEngineMissing):
		return status.EngineMissing
	case errors.Is(err, ErrModelMissing):
		return status.ModelMissing
	case errors.Is(err, ErrTimeout):
		return status.EngineTimeout
	case errors.Is(err, ErrMalformed):
		return status.MalformedOutput
	case errors.Is(err, ErrBusy):
		return status.EngineBusy
	}
	return status.EngineFailed
}
