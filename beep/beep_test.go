package beep

import (
	"testing"

	"voiceclip/status"
)

func TestCue(t *testing.T) {
	tests := []struct {
		prev, next status.State
		want       Sound
	}{
		{status.Idle, status.Recording, Start},
		{status.Error, status.Recording, Start},
		{status.Recording, status.Transcribing, End},
		{status.Recording, status.Idle, End},
		{status.Transcribing, status.Idle, None},
		{status.Transcribing, status.Error, Error},
		{status.Recording, status.Error, Error},
		{status.Error, status.Error, None},
		{status.Idle, status.Idle, None},
	}
	for _, tt := range tests {
		if got := Cue(tt.prev, tt.next); got != tt.want {
			t.Errorf("Cue(%s, %s) = %d, want %d", tt.prev, tt.next, got, tt.want)
		}
	}
}

func TestIndicatorTracksTransitions(t *testing.T) {
	var played []Sound
	ind := &Indicator{play: func(s Sound) { played = append(played, s) }}

	for _, st := range []status.State{
		status.Recording, status.Recording, status.Transcribing, status.Idle,
		status.Recording, status.Transcribing, status.Error, status.Idle,
	} {
		ind.Show(status.Update{State: st})
	}

	want := []Sound{Start, End, Start, End, Error}
	if len(played) != len(want) {
		t.Fatalf("played %v, want %v", played, want)
	}
	for i := range want {
		if played[i] != want[i] {
			t.Errorf("played[%d] = %d, want %d", i, played[i], want[i])
		}
	}
}

func TestTones(t *testing.T) {
	s := tick(1000, 0.1, 0.5, 10)
	if len(s) != sampleRate/10 {
		t.Fatalf("len = %d", len(s))
	}
	var peak int16
	for _, v := range s {
		peak = max(peak, v, -v)
	}
	if peak == 0 || peak > 32767/2+1 {
		t.Errorf("peak = %d, want within volume", peak)
	}

	d := doubleBeep(350, 0.08, 0.05, 0.6, 30)
	if len(d) != 2*int(sampleRate*0.08)+int(sampleRate*0.05) {
		t.Errorf("double beep len = %d", len(d))
	}
}
