//go:build linux

package main

func main() {
	run()
}

// onMain runs fn on the process main thread. run already owns it on linux.
func onMain(fn func()) { fn() }
