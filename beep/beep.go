// Package beep plays short audio cues when recording starts, stops or fails.
package beep

import (
	"math"
	"sync"
	"sync/atomic"

	"voiceclip/status"
)

type Sound int

const (
	None Sound = iota
	Start
	End
	Error
)

var (
	disabled  atomic.Bool
	soundOnce sync.Once
	sounds    map[Sound][]int16
)

func Disable() { disabled.Store(true) }

const (
	sampleRate = 44100

	// Start beep: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End beep: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error beep: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

func initSound() {
	sounds = map[Sound][]int16{
		Start: tick(startFreq, startTail, startVolume, startDecay),
		End:   tick(endFreq, endTail, endVolume, endDecay),
		Error: doubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay),
	}
	initOutput()
}

// tick renders a decaying sine as mono samples.
func tick(freq, duration, volume, decay float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func doubleBeep(freq, beepDur, gapDur, volume, decay float64) []int16 {
	b := tick(freq, beepDur, volume, decay)
	gap := make([]int16, int(sampleRate*gapDur))
	out := make([]int16, 0, len(b)*2+len(gap))
	out = append(out, b...)
	out = append(out, gap...)
	return append(out, b...)
}

// Cue picks the sound for a transition from prev to next.
func Cue(prev, next status.State) Sound {
	switch {
	case next == status.Error && prev != status.Error:
		return Error
	case next == status.Recording && prev != status.Recording:
		return Start
	case prev == status.Recording && next != status.Recording:
		return End
	}
	return None
}

func Play(s Sound) {
	if s == None || disabled.Load() {
		return
	}
	soundOnce.Do(initSound)
	play(sounds[s])
}

// Indicator plays a cue on each state change it is shown.
type Indicator struct {
	mu   sync.Mutex
	prev status.State
	play func(Sound)
}

func NewIndicator() *Indicator {
	return &Indicator{play: Play}
}

func (i *Indicator) Show(u status.Update) {
	i.mu.Lock()
	s := Cue(i.prev, u.State)
	i.prev = u.State
	i.mu.Unlock()
	if s != None {
		i.play(s)
	}
}
