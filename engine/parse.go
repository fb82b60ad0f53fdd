package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// nonSpeech matches the annotations whisper.cpp emits in place of words.
var nonSpeech = regexp.MustCompile(`(?i)[\[(](blank_audio|silence|music|noise|inaudible|no speech|applause|laughter)[\])]`)

// parseOutput turns whisper-cli stdout into a single line of text. Lines may
// carry a "[hh:mm:ss.mmm --> hh:mm:ss.mmm]" prefix when timestamps are on.
func parseOutput(out []byte) (string, error) {
	if !utf8.Valid(out) {
		return "", fmt.Errorf("%w: output is not valid UTF-8", ErrMalformed)
	}
	var words []string
	for n, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.Contains(line, "-->") {
			rest, err := stripTimestamp(line)
			if err != nil {
				return "", fmt.Errorf("%w: line %d: %v", ErrMalformed, n+1, err)
			}
			line = rest
		}
		line = nonSpeech.ReplaceAllString(line, " ")
		words = append(words, strings.Fields(line)...)
	}
	return strings.Join(words, " "), nil
}

func stripTimestamp(line string) (string, error) {
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return "", fmt.Errorf("unterminated timestamp")
	}
	from, to, ok := strings.Cut(line[1:end], "-->")
	if !ok {
		return "", fmt.Errorf("bad timestamp %q", line[:end+1])
	}
	for _, ts := range []string{from, to} {
		if _, err := parseTimestamp(strings.TrimSpace(ts)); err != nil {
			return "", err
		}
	}
	return line[end+1:], nil
}

func parseTimestamp(s string) (time.Duration, error) {
	var h, m, sec, ms int
	if n, err := fmt.Sscanf(s, "%d:%d:%d.%d", &h, &m, &sec, &ms); err != nil || n != 4 || m > 59 || sec > 59 {
		return 0, fmt.Errorf("bad timestamp %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(ms)*time.Millisecond, nil
}

// lastLine returns the final non-empty line of stderr for diagnostics.
func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

func modelLoadFailed(stderr []byte) bool {
	s := strings.ToLower(string(stderr))
	for _, marker := range []string{
		"failed to initialize whisper context",
		"failed to load model",
		"invalid model data",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
