package notify

import (
	"errors"
	"strings"
	"testing"

	"voiceclip/status"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name    string
		u       status.Update
		success bool
		want    string
	}{
		{"idle", status.Update{State: status.Idle}, true, ""},
		{"recording", status.Update{State: status.Recording}, true, ""},
		{"error", status.Update{State: status.Error, Reason: status.EngineTimeout}, false, "Transcription timed out"},
		{"error detail", status.Update{State: status.Error, Reason: status.EngineFailed, Detail: "exit status 3"}, false, "Transcription failed: exit status 3"},
		{"notice", status.Update{State: status.Idle, Notice: "Too short"}, false, "Too short"},
		{"success off", status.Update{State: status.Idle, Job: "a", Text: "hello"}, false, ""},
		{"success on", status.Update{State: status.Idle, Job: "a", Text: "hello"}, true, "Copied: hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.u, tt.success); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("é", 100)
	got := preview(long, 80)
	if n := len([]rune(got)); n != 80 {
		t.Errorf("rune length = %d, want 80", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("missing ellipsis: %q", got)
	}
}

func TestIndicatorSends(t *testing.T) {
	var sent []string
	n := &Indicator{send: func(title, msg string) error {
		sent = append(sent, title+"|"+msg)
		return errors.New("no dbus")
	}}
	n.Show(status.Update{State: status.Recording})
	n.Show(status.Update{State: status.Error, Reason: status.ClipboardError})
	if len(sent) != 1 || sent[0] != "voiceclip|Could not write clipboard" {
		t.Errorf("sent = %v", sent)
	}
}
