package engine

import (
	"errors"
	"testing"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Hello world.\n", "Hello world."},
		{"collapse", "Hello\n\n   there\tfriend  \n", "Hello there friend"},
		{"timestamps", "[00:00:00.000 --> 00:00:01.240]   One\n[00:00:01.240 --> 00:00:02.000]  two.\n", "One two."},
		{"blank", "[BLANK_AUDIO]\n", ""},
		{"annotations", "(Music) Hi [NOISE] there\n", "Hi there"},
		{"unicode", " Grüße, 世界 \n", "Grüße, 世界"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOutput([]byte(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseOutputMalformed(t *testing.T) {
	for _, in := range []string{
		"\xff\xfe garbage",
		"[00:00:00.000 --> 00:00:01.000 no close\n",
		"[aa:bb:cc.ddd --> 00:00:01.000] hi\n",
		"[00:00:00.000 --> 00:99:01.000] hi\n",
	} {
		if _, err := parseOutput([]byte(in)); !errors.Is(err, ErrMalformed) {
			t.Errorf("parseOutput(%q) err = %v, want ErrMalformed", in, err)
		}
	}
}

func TestModelLoadFailed(t *testing.T) {
	if !modelLoadFailed([]byte("error: failed to initialize whisper context\n")) {
		t.Error("context init failure not detected")
	}
	if modelLoadFailed([]byte("error: failed to read WAV file 'x.wav'\n")) {
		t.Error("wav failure classified as model failure")
	}
}
