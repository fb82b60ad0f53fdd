package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"voiceclip/app"
	"voiceclip/audio"
	"voiceclip/beep"
	"voiceclip/clipboard"
	"voiceclip/config"
	"voiceclip/engine"
	"voiceclip/hotkey"
	"voiceclip/log"
	"voiceclip/model"
	"voiceclip/status"
)

// lineIndicator prints one line per status update and signals settle
// whenever a recording cycle ends in Idle or Error.
type lineIndicator struct {
	mu     sync.Mutex
	w      io.Writer
	prev   status.State
	settle chan status.State
}

func newLineIndicator(w io.Writer) *lineIndicator {
	return &lineIndicator{w: w, settle: make(chan status.State, 16)}
}

func (l *lineIndicator) Show(u status.Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := "STATE " + u.String()
	if u.Text != "" {
		line += " text=" + strconv.Quote(u.Text)
	}
	if u.Notice != "" {
		line += " notice=" + strconv.Quote(u.Notice)
	}
	fmt.Fprintln(l.w, line)

	busy := l.prev == status.Recording || l.prev == status.Transcribing
	if busy && (u.State == status.Idle || u.State == status.Error) {
		select {
		case l.settle <- u.State:
		default:
		}
	}
	l.prev = u.State
}

// runTestMode drives the full pipeline headless: audio comes from a WAV
// file, key events and commands from stdin, and the clipboard is kept in
// memory. Commands: KEYDOWN, KEYUP, TOGGLE, WAIT, SLEEP <ms>,
// MODEL <name>, LANG <code>, CLIPBOARD, QUIT.
func runTestMode(wavPath string, cfg config.Config, combo hotkey.Combo, runner *engine.Runner, catalog *model.Catalog) int {
	beep.Disable()

	actx, err := audio.NewFakeContext(wavPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		return 1
	}
	defer actx.Close()

	clip := &clipboard.Memory{}
	cfg.AutoPaste = false
	p, err := newPipeline(cfg, actx, nil, runner, catalog, clip)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	out := newLineIndicator(os.Stdout)
	p.hub.Subscribe("stdout", out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wait := p.start(ctx)

	hk := hotkey.NewFake()
	mon := hotkey.NewMonitor(combo,
		func() { p.orch.Start(app.FromTest) },
		func() { p.orch.Stop(app.FromTest) },
	)
	go mon.Run(ctx, hk)

	scanner := bufio.NewScanner(os.Stdin)
loop:
	for scanner.Scan() {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch cmd {
		case "KEYDOWN":
			for _, k := range combo {
				hk.Press(k)
			}
		case "KEYUP":
			for i := len(combo) - 1; i >= 0; i-- {
				hk.Release(combo[i])
			}
		case "TOGGLE":
			p.orch.Toggle(app.FromTest)
		case "WAIT":
			select {
			case <-out.settle:
			case <-time.After(cfg.Timeout.Duration + 10*time.Second):
				fmt.Fprintln(os.Stderr, "WAIT timed out")
			}
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "MODEL":
			p.orch.SwitchModel(arg)
		case "LANG":
			p.orch.SetLanguage(arg)
		case "CLIPBOARD":
			fmt.Printf("CLIPBOARD %s\n", strconv.Quote(clip.Text()))
		case "QUIT":
			break loop
		case "":
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		}
	}

	cancel()
	wait()
	p.hub.Close()
	log.SessionEnd(p.orch.Completed())
	return 0
}
