// Package notify shows desktop notifications for failures and notices.
package notify

import (
	"github.com/gen2brain/beeep"

	"voiceclip/log"
	"voiceclip/status"
)

const title = "voiceclip"

// Indicator turns status updates into desktop notifications. Plain state
// changes are ignored; errors, notices and optionally finished
// transcriptions are shown.
type Indicator struct {
	// Success also notifies when text lands on the clipboard.
	Success bool
	send    func(title, message string) error
}

func NewIndicator() *Indicator {
	return &Indicator{send: func(t, m string) error { return beeep.Notify(t, m, "") }}
}

func (n *Indicator) Show(u status.Update) {
	msg := Message(u, n.Success)
	if msg == "" {
		return
	}
	if err := n.send(title, msg); err != nil {
		log.Warnf("notification failed: %v", err)
	}
}

// Message is the notification body for u, or "" when u needs none.
func Message(u status.Update, success bool) string {
	switch {
	case u.State == status.Error && u.Reason != status.None:
		msg := u.Reason.Message()
		if u.Detail != "" {
			msg += ": " + u.Detail
		}
		return msg
	case u.Notice != "":
		return u.Notice
	case success && u.Job != "" && u.Text != "":
		return "Copied: " + preview(u.Text, 80)
	}
	return ""
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
