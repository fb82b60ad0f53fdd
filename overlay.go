package main

import "voiceclip/status"

// overlay is the floating recording window. Run owns the main thread until
// Quit.
type overlay interface {
	status.Indicator
	Run()
	Quit()
}
