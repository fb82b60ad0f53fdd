// Package encoder writes recorded samples as WAV for the engine and FLAC for
// the optional audio archive.
package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)
