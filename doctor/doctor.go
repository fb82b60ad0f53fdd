// Package doctor runs setup diagnostics: engine, models, hotkey, microphone
// and clipboard. Interactive mode also asks the user to press the hotkey,
// speak, and confirm the transcription.
package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"voiceclip/audio"
	"voiceclip/clipboard"
	"voiceclip/engine"
	"voiceclip/hotkey"
	"voiceclip/model"
	"voiceclip/recorder"
)

type Clipboard interface {
	Copy(text string) error
	Read() (string, error)
}

type Options struct {
	Engine      *engine.Runner
	Models      *model.Catalog
	Model       string
	Language    string
	Combo       hotkey.Combo
	KeySource   string
	Device      string
	Interactive bool

	In        io.Reader
	Out       io.Writer
	Clipboard Clipboard
	// NewAudio opens the capture backend; defaults to audio.NewContext.
	NewAudio func() (audio.Context, error)
	// NewSource opens the key source; defaults to hotkey.New.
	NewSource func(name string) (hotkey.Source, error)
	// RecordFor is how long the microphone check records.
	RecordFor time.Duration
}

type check struct {
	name string
	run  func(d *doctor) error
}

type doctor struct {
	Options
	in   *bufio.Reader
	buf  *recorder.Buffer
	term *terminal
}

var errNotConfirmed = errors.New("not confirmed")

// Run executes every check and returns an exit code (0 = all pass).
func Run(opts Options) int {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.System{}
	}
	if opts.NewAudio == nil {
		opts.NewAudio = audio.NewContext
	}
	if opts.NewSource == nil {
		opts.NewSource = hotkey.New
	}
	if opts.RecordFor <= 0 {
		opts.RecordFor = 3 * time.Second
	}
	d := &doctor{Options: opts, in: bufio.NewReader(opts.In)}
	if opts.Interactive {
		d.term = saveTerminal(os.Stdin)
		defer exitOnInterrupt(d.term, opts.Out)()
	}

	checks := []check{
		{"Transcription engine", checkEngine},
		{"Models", checkModels},
		{"Hotkey", checkHotkey},
		{"Microphone", checkMic},
		{"Clipboard", checkClipboard},
	}
	if opts.Interactive {
		checks = append(checks, check{"Transcription", checkTranscription}, check{"Paste", checkPaste})
	}

	d.println("voiceclip doctor - system diagnostics")
	d.println("=====================================")

	failed := 0
	for i, c := range checks {
		d.println()
		d.printf("[%d/%d] %s\n", i+1, len(checks), c.name)
		if err := c.run(d); err != nil {
			d.printf("  FAIL: %v\n", err)
			failed++
			continue
		}
		d.println("  PASS")
	}

	d.println()
	if failed == 0 {
		d.println("All checks passed!")
		return 0
	}
	d.printf("%d check(s) failed. See details above.\n", failed)
	return 1
}

func (d *doctor) printf(format string, args ...any) {
	fmt.Fprintf(d.Out, format, args...)
}

func (d *doctor) println(args ...any) {
	fmt.Fprintln(d.Out, args...)
}

func (d *doctor) confirm(question string) bool {
	d.printf("%s [y/n]: ", question)
	line, _ := d.in.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

func checkEngine(d *doctor) error {
	if d.Engine == nil || d.Engine.Binary == "" {
		return fmt.Errorf("%w; build whisper.cpp or pass -engine", engine.ErrEngineMissing)
	}
	d.printf("  binary: %s\n", d.Engine.Binary)
	return d.Engine.Probe(context.Background())
}

func checkModels(d *doctor) error {
	if d.Models == nil {
		return errors.New("no model catalog")
	}
	if err := d.Models.Refresh(); err != nil {
		return err
	}
	d.printf("  directory: %s\n", d.Models.Dir())
	for _, m := range d.Models.All() {
		mark := " "
		if m.Downloaded {
			mark = "x"
		}
		sel := ""
		if m.Name == d.Model {
			sel = "  <- selected"
		}
		d.printf("  [%s] %-10s %-8s %s%s\n", mark, m.Name, m.Size, m.Label, sel)
	}
	if _, err := d.Models.Lookup(d.Model); err != nil {
		if m, ferr := d.Models.Find(d.Model); ferr == nil {
			d.printf("  download: %s\n", m.URL())
		}
		return err
	}
	return nil
}

func checkHotkey(d *doctor) error {
	if info, err := hotkey.Diagnose(); err == nil {
		d.printf("  evdev: %s\n", info)
	} else {
		d.printf("  evdev: %v\n", err)
	}

	src, err := d.NewSource(d.KeySource)
	if err != nil {
		return err
	}
	if err := src.Register(); err != nil {
		return fmt.Errorf("could not register key source: %w", err)
	}
	defer src.Unregister()

	if !d.Interactive {
		d.printf("  key source registered (%s)\n", d.Combo)
		return nil
	}
	return d.waitForCombo(src, 10*time.Second)
}

func (d *doctor) waitForCombo(src hotkey.Source, timeout time.Duration) error {
	d.printf("  Hold %s, then release...\n", d.Combo)
	pressed := make(chan struct{}, 1)
	released := make(chan struct{}, 1)
	signal := func(ch chan struct{}) func() {
		return func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
	mon := hotkey.NewMonitor(d.Combo, signal(pressed), signal(released))
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	go mon.Run(ctx, src)

	select {
	case <-pressed:
	case <-ctx.Done():
		return errors.New("timeout waiting for hotkey")
	}
	d.println("  pressed")
	select {
	case <-released:
	case <-ctx.Done():
		return errors.New("timeout waiting for release")
	}
	d.println("  released")
	d.term.restore()
	return nil
}

func checkMic(d *doctor) error {
	ctx, err := d.NewAudio()
	if err != nil {
		return fmt.Errorf("cannot connect to audio: %w", err)
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		return fmt.Errorf("cannot list devices: %w", err)
	}
	if len(devices) == 0 {
		return audio.ErrNoDevice
	}
	var dev *audio.DeviceInfo
	for i := range devices {
		marker := " "
		if devices[i].Name == d.Device {
			dev = &devices[i]
			marker = "*"
		}
		bt := ""
		if audio.IsBluetooth(devices[i].Name) {
			bt = " (bluetooth: lower quality)"
		}
		d.printf("  %s %s%s\n", marker, devices[i].Name, bt)
	}
	if d.Device != "" && dev == nil {
		return fmt.Errorf("%w: %q", audio.ErrNoDevice, d.Device)
	}

	if d.Interactive {
		d.printf("  Press Enter and speak for %s...", d.RecordFor)
		d.in.ReadString('\n')
	}

	sess := recorder.New(ctx, recorder.Config{Device: dev})
	var (
		mu   sync.Mutex
		peak float64
	)
	sess.OnLevel = func(rms float64) {
		mu.Lock()
		peak = math.Max(peak, rms)
		mu.Unlock()
	}
	if err := sess.Start(nil); err != nil {
		return err
	}
	time.Sleep(d.RecordFor)
	buf, err := sess.Stop()
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	d.printf("  recorded %.1fs, peak level %.3f\n", buf.Duration().Seconds(), peak)
	if len(buf.Samples) == 0 {
		return errors.New("no audio captured")
	}
	if peak < 0.001 {
		d.println("  warning: input is silent; check the microphone and its gain")
	}
	d.buf = buf
	return nil
}

func checkClipboard(d *doctor) error {
	want := fmt.Sprintf("voiceclip-doctor-%d", time.Now().UnixNano())
	type result struct {
		got   string
		err   error
		phase string
	}
	ch := make(chan result, 1)
	go func() {
		if err := d.Clipboard.Copy(want); err != nil {
			ch <- result{err: err, phase: "write"}
			return
		}
		got, err := d.Clipboard.Read()
		ch <- result{got: got, err: err, phase: "read"}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return fmt.Errorf("clipboard %s failed: %w", res.phase, res.err)
		}
		if res.got != want {
			return fmt.Errorf("clipboard mismatch: wrote %q, got %q", want, res.got)
		}
		return nil
	case <-time.After(3 * time.Second):
		return errors.New("clipboard timed out (clipboard tool hung, display not accessible?)")
	}
}

func checkTranscription(d *doctor) error {
	if d.buf == nil {
		return errors.New("skipped: no recording from the microphone check")
	}
	m, err := d.Models.Lookup(d.Model)
	if err != nil {
		return err
	}
	d.println("  transcribing...")
	res := d.Engine.Transcribe(context.Background(), engine.Request{
		ID:       "doctor",
		Buffer:   d.buf,
		Model:    m,
		Language: d.Language,
	})
	if !res.Success {
		if res.Detail != "" {
			return fmt.Errorf("%w (%s)", res.Err, res.Detail)
		}
		return res.Err
	}
	text := res.Text
	if text == "" {
		text = "(no speech detected)"
	}
	d.printf("\n  %s\n  (%s in %s)\n\n", text, m.Name, res.Elapsed.Round(time.Millisecond))
	if !d.confirm("Is this correct?") {
		return errNotConfirmed
	}
	return nil
}

func checkPaste(d *doctor) error {
	msg, err := clipboard.Verify()
	if err != nil {
		return err
	}
	d.printf("  %s\n", msg)

	const sample = "voiceclip-doctor-paste"
	d.println("  Focus a text editor window...")
	for i := 5; i > 0; i-- {
		d.printf("  %d...\n", i)
		time.Sleep(time.Second)
	}
	if err := d.Clipboard.Copy(sample); err != nil {
		return err
	}
	if err := clipboard.Paste(); err != nil {
		return err
	}
	d.term.restore()
	d.println()
	if !d.confirm(fmt.Sprintf("Did the text %q appear?", sample)) {
		return errNotConfirmed
	}
	return nil
}
