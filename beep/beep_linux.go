//go:build linux

package beep

import (
	"github.com/jfreymuth/pulse"

	"voiceclip/log"
)

// Pulse cuts the end of a stream short on Drain; the tails pad the tone
// with enough decay to be heard in full.
const (
	startTail = 0.2
	endTail   = 0.2
)

var cues chan []int16

func initOutput() {
	c, err := pulse.NewClient(pulse.ClientApplicationName("voiceclip"))
	if err != nil {
		log.Warnf("beep: %v", err)
		return
	}
	cues = make(chan []int16, 1)
	go player(c)
}

// player owns the pulse client and plays one cue at a time.
func player(c *pulse.Client) {
	for s := range cues {
		if err := playOn(c, s); err != nil {
			log.Warnf("beep: %v", err)
		}
	}
}

func playOn(c *pulse.Client, samples []int16) error {
	pos := 0
	src := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(src,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
	)
	if err != nil {
		return err
	}
	defer stream.Close()
	stream.Start()
	stream.Drain()
	stream.Stop()
	return nil
}

// play queues samples behind the cue being played. A cue still waiting is
// replaced.
func play(samples []int16) {
	if cues == nil || len(samples) == 0 {
		return
	}
	for {
		select {
		case cues <- samples:
			return
		default:
		}
		select {
		case <-cues:
		default:
		}
	}
}
