// Package recorder owns a single microphone capture and the samples it
// accumulates between Start and Stop.
package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"voiceclip/audio"
)

var (
	ErrDevice           = errors.New("audio device error")
	ErrTooShort         = errors.New("recording too short")
	ErrNotRecording     = errors.New("not recording")
	ErrAlreadyRecording = errors.New("already recording")
)

const (
	SampleRate = 16000
	Channels   = 1
)

// Buffer holds one finished recording as mono S16 samples.
type Buffer struct {
	Samples    []int16
	SampleRate int
	Started    time.Time
}

func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

type Config struct {
	Device      *audio.DeviceInfo
	Gain        int
	MinDuration time.Duration
	MaxDuration time.Duration
}

// Session records from ctx. Only one recording is active at a time; the
// buffer is handed to the caller by Stop and the session keeps no reference.
type Session struct {
	ctx audio.Context
	cfg Config

	// OnLevel, if set, receives the RMS level of every delivered chunk from
	// the driver thread.
	OnLevel func(rms float64)

	mu         sync.Mutex
	capture    audio.CaptureDevice
	buf        *Buffer
	maxSamples int
	limitHit   bool
	onLimit    func()
}

func New(ctx audio.Context, cfg Config) *Session {
	return &Session{ctx: ctx, cfg: cfg}
}

// SetDevice selects the input used by the next Start.
func (s *Session) SetDevice(d *audio.DeviceInfo) {
	s.mu.Lock()
	s.cfg.Device = d
	s.mu.Unlock()
}

func (s *Session) Device() *audio.DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Device
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf != nil
}

// Start opens the device and begins buffering. onLimit is called at most
// once, from the driver thread, when the maximum duration is reached.
func (s *Session) Start(onLimit func()) error {
	s.mu.Lock()
	if s.buf != nil {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}
	dev := s.cfg.Device
	s.mu.Unlock()

	capture, err := s.ctx.NewCapture(dev, audio.CaptureConfig{
		SampleRate: SampleRate,
		Channels:   Channels,
		Gain:       s.cfg.Gain,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDevice, err)
	}

	maxSamples := math.MaxInt
	if s.cfg.MaxDuration > 0 {
		maxSamples = int(s.cfg.MaxDuration.Seconds() * SampleRate)
	}

	s.mu.Lock()
	s.capture = capture
	s.buf = &Buffer{
		Samples:    make([]int16, 0, SampleRate*4),
		SampleRate: SampleRate,
		Started:    time.Now(),
	}
	s.maxSamples = maxSamples
	s.limitHit = false
	s.onLimit = onLimit
	s.mu.Unlock()

	capture.SetCallback(s.onData)
	if err := capture.Start(); err != nil {
		s.mu.Lock()
		s.capture = nil
		s.buf = nil
		s.mu.Unlock()
		capture.ClearCallback()
		capture.Close()
		return fmt.Errorf("%w: %v", ErrDevice, err)
	}
	return nil
}

func (s *Session) onData(data []byte, frameCount uint32) {
	n := min(int(frameCount), len(data)/2)

	s.mu.Lock()
	if s.buf == nil {
		s.mu.Unlock()
		return
	}
	room := s.maxSamples - len(s.buf.Samples)
	take := min(n, room)
	var sumSquares float64
	for i := 0; i < take; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		s.buf.Samples = append(s.buf.Samples, v)
		f := float64(v) / 32768.0
		sumSquares += f * f
	}
	var fire func()
	if take < n || len(s.buf.Samples) >= s.maxSamples {
		if !s.limitHit {
			s.limitHit = true
			fire = s.onLimit
		}
	}
	onLevel := s.OnLevel
	s.mu.Unlock()

	if onLevel != nil && take > 0 {
		onLevel(math.Sqrt(sumSquares / float64(take)))
	}
	if fire != nil {
		fire()
	}
}

// Stop closes the device and returns the recording. A recording shorter than
// the minimum is discarded and ErrTooShort returned.
func (s *Session) Stop() (*Buffer, error) {
	s.mu.Lock()
	capture, buf := s.capture, s.buf
	s.capture, s.buf, s.onLimit = nil, nil, nil
	s.mu.Unlock()

	if buf == nil {
		return nil, ErrNotRecording
	}
	capture.Stop()
	capture.ClearCallback()
	capture.Close()

	if d := buf.Duration(); d < s.cfg.MinDuration || d == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTooShort, d.Round(time.Millisecond))
	}
	return buf, nil
}

// LimitReached reports whether the active recording hit the ceiling.
func (s *Session) LimitReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limitHit
}
