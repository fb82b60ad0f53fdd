package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"voiceclip/app"
	"voiceclip/audio"
	"voiceclip/beep"
	"voiceclip/clipboard"
	"voiceclip/config"
	"voiceclip/doctor"
	"voiceclip/engine"
	"voiceclip/history"
	"voiceclip/hotkey"
	"voiceclip/log"
	"voiceclip/model"
	"voiceclip/notify"
	"voiceclip/recorder"
	"voiceclip/shutdown"
	"voiceclip/status"
	"voiceclip/tray"
	"voiceclip/tui"
)

var version = "dev"

// pipeline is the orchestrator with the components it drives.
type pipeline struct {
	hub    *status.Hub
	rec    *recorder.Session
	worker *engine.Worker
	clip   *clipboard.Publisher
	orch   *app.Orchestrator
}

func newPipeline(cfg config.Config, actx audio.Context, dev *audio.DeviceInfo, tr engine.Transcriber, cat *model.Catalog, w clipboard.Writer) (*pipeline, error) {
	initial, err := cat.Lookup(cfg.Model)
	if err != nil {
		// Keep going with the descriptor so the tray can offer other models;
		// the first transcription reports the missing file.
		d, ferr := cat.Find(cfg.Model)
		if ferr != nil {
			return nil, ferr
		}
		log.Warnf("initial model: %v", err)
		initial = d
	}

	p := &pipeline{hub: status.NewHub()}
	p.rec = recorder.New(actx, recorder.Config{
		Device:      dev,
		Gain:        cfg.Gain,
		MinDuration: cfg.MinDuration.Duration,
		MaxDuration: cfg.MaxDuration.Duration,
	})
	p.worker = engine.NewWorker(tr, func(r engine.Result) { p.orch.Deliver(r) })
	p.clip = clipboard.NewPublisher(w)
	p.clip.SetAutoPaste(cfg.AutoPaste)
	p.orch = app.New(app.Config{
		Model:     initial,
		Language:  cfg.Language,
		ErrorHold: cfg.ErrorHold.Duration,
	}, p.rec, p.worker, p.clip, cat, p.hub)
	return p, nil
}

// start runs the worker and orchestrator until ctx is done. The returned
// function waits for both to exit.
func (p *pipeline) start(ctx context.Context) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); p.worker.Run(ctx) }()
	go func() { defer wg.Done(); p.orch.Run(ctx) }()
	return wg.Wait
}

// engineSetup resolves the engine binary and models directory from config,
// falling back to the whisper.cpp layout under the base directory.
func engineSetup(cfg config.Config) (*engine.Runner, *model.Catalog, error) {
	base := cfg.BaseDir
	if base == "" {
		if exe, err := os.Executable(); err == nil {
			base = filepath.Dir(exe)
		}
	}
	binary := cfg.Engine
	if binary == "" {
		var err error
		if binary, err = engine.FindBinary(base); err != nil {
			log.Warnf("engine: %v", err)
		}
	}
	dir := cfg.ModelsDir
	if dir == "" {
		dir = model.FindDir(base, binary)
	}
	cat, err := model.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	r := engine.NewRunner(binary)
	r.Timeout = cfg.Timeout.Duration
	r.Threads = cfg.Threads
	r.KeepDir = cfg.KeepAudio
	return r, cat, nil
}

func findDevice(actx audio.Context, name string) *audio.DeviceInfo {
	if name == "" {
		return nil
	}
	devices, err := actx.Devices()
	if err != nil {
		log.Warnf("device enumeration failed: %v", err)
		return nil
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i]
		}
	}
	log.Warnf("device not found, using default: %s", name)
	fmt.Fprintf(os.Stderr, "Warning: device %q not found, using system default\n", name)
	return nil
}

func printHistory(dir string, n int) error {
	store, err := history.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()
	entries, err := store.Recent(n)
	if err != nil {
		return err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Printf("%s  %-8s %5.1fs  %s\n", e.At.Format("2006-01-02 15:04:05"), e.Model, e.Audio.Seconds(), e.Text)
	}
	return nil
}

func run() {
	flags := config.Bind(flag.CommandLine)
	setupFlag := flag.Bool("setup", false, "Select microphone device and save it to the config file")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	historyFlag := flag.Int("history", 0, "Print the last N transcriptions and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven): voiceclip -test <wav-file>")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("voiceclip %s\n", version)
		os.Exit(0)
	}

	cfg, err := flags.Resolve(flag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: config: %v\n", err)
		os.Exit(2)
	}
	combo, _ := hotkey.ParseCombo(cfg.Hotkey)

	if *historyFlag > 0 {
		if err := printHistory(cfg.HistoryDir, *historyFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *setupFlag {
		actx, err := audio.NewContext()
		if err != nil {
			fmt.Printf("Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		dev, err := audio.SelectDevice(actx)
		actx.Close()
		if err != nil {
			fmt.Printf("Error: device selection failed: %v\n", err)
			os.Exit(1)
		}
		cfg.Device = dev.Name
		if err := saveDevice(flags.Path(), dev.Name); err != nil {
			fmt.Printf("Warning: could not save config: %v\n", err)
		} else {
			fmt.Printf("Saved device %q to %s\n", dev.Name, flags.Path())
		}
	}

	runner, catalog, err := engineSetup(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(doctor.Options{
			Engine:      runner,
			Models:      catalog,
			Model:       cfg.Model,
			Language:    cfg.Language,
			Combo:       combo,
			KeySource:   cfg.KeySource,
			Device:      cfg.Device,
			Interactive: true,
		}))
	}

	// Daemonize in tray-only mode: re-exec in background, return shell prompt
	if !cfg.TUI && !*testFlag && os.Getenv("_VOICECLIP_BG") == "" {
		args := os.Args[1:]
		if cfg.Device != "" {
			args = append(args, "-device", cfg.Device)
		}
		exe, _ := os.Executable()
		cmd := exec.Command(exe, args...)
		cmd.Env = append(os.Environ(), "_VOICECLIP_BG=1")
		devnull, _ := os.Open(os.DevNull)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	log.SessionStart(runner.Binary, cfg.Model, combo.String())

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: voiceclip -test <wav-file>")
			os.Exit(1)
		}
		os.Exit(runTestMode(args[0], cfg, combo, runner, catalog))
	}

	os.Exit(runApp(cfg, combo, runner, catalog))
}

func saveDevice(path, device string) error {
	cfg := config.Default()
	if err := config.LoadFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	cfg.Device = device
	return config.Save(path, cfg)
}

func runApp(cfg config.Config, combo hotkey.Combo, runner *engine.Runner, catalog *model.Catalog) int {
	if cfg.AutoPaste {
		if msg, err := clipboard.Verify(); err != nil {
			fmt.Printf("Warning: paste init failed: %v\n", err)
		} else {
			log.Info(msg)
		}
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		return 1
	}
	defer actx.Close()
	dev := findDevice(actx, cfg.Device)

	p, err := newPipeline(cfg, actx, dev, runner, catalog, clipboard.System{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var store *history.Store
	if cfg.HistoryDir != "" {
		if store, err = history.Open(cfg.HistoryDir); err != nil {
			log.Warnf("history disabled: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: history disabled: %v\n", err)
		} else {
			defer store.Close()
			p.hub.SubscribeAll("history", store)
		}
	}

	copyLast := func() {
		if store == nil {
			p.orch.Announce("History is disabled")
			return
		}
		e, err := store.Last()
		if err != nil {
			p.orch.Announce("Nothing to copy yet")
			return
		}
		if err := clipboard.Copy(e.Text); err != nil {
			log.Errorf("copy last: %v", err)
			p.orch.Announce(status.ClipboardError.Message())
			return
		}
		p.orch.Announce("Copied last transcription")
	}

	if cfg.Beep {
		p.hub.Subscribe("beep", beep.NewIndicator())
	} else {
		beep.Disable()
	}
	if cfg.Notify {
		p.hub.Subscribe("notify", notify.NewIndicator())
	}

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	var trayQuit <-chan struct{}
	if cfg.Tray {
		tray.Configure(tray.Menu{
			Models:    catalog.All(),
			Model:     cfg.Model,
			Language:  cfg.Language,
			AutoPaste: cfg.AutoPaste,
			Hotkey:    combo.String(),
		}, tray.Handlers{
			Toggle:      func() { p.orch.Toggle(app.FromTray) },
			CopyLast:    copyLast,
			SwitchModel: func(name string) { p.orch.SwitchModel(name) },
			SetLanguage: func(code string) { p.orch.SetLanguage(code) },
			AutoPaste: func(on bool) {
				p.clip.SetAutoPaste(on)
				log.Infof("autopaste: %v", on)
			},
		})
		trayQuit = tray.Init()
		p.hub.Subscribe("tray", tray.Indicator{})
		defer tray.Quit()
	}

	level := &tui.Level{}
	p.rec.OnLevel = level.Set

	ov := newOverlay(cfg, level.Get)
	if ov != nil {
		p.hub.Subscribe("overlay", ov)
	}

	var prog *tea.Program
	tuiDone := make(chan struct{})
	if cfg.TUI {
		prog = tui.NewProgram(tui.Options{
			Hotkey:   combo.String(),
			Version:  version,
			Toggle:   func() { p.orch.Toggle(app.FromTUI) },
			CopyLast: copyLast,
			Level:    level,
		})
		p.hub.Subscribe("tui", tui.Indicator{P: prog})
		go func() {
			defer close(tuiDone)
			if _, err := prog.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
		}()
		name := "system default"
		if dev != nil {
			name = dev.Name
		}
		if audio.IsBluetooth(name) {
			name += " (BT!)"
		}
		prog.Send(tui.DeviceMsg(name))
	} else {
		fmt.Printf("voiceclip %s: hold %s to talk\n", version, combo)
	}

	src, err := hotkey.New(cfg.KeySource)
	if err == nil {
		err = src.Register()
	}
	if err != nil {
		log.Errorf("hotkey register error: %v", err)
		msg := "Global hotkey unavailable: " + err.Error()
		if !cfg.TUI {
			fmt.Fprintln(os.Stderr, msg)
			if cfg.Tray {
				fmt.Fprintln(os.Stderr, "Use the tray menu to start and stop recording.")
			} else {
				fmt.Fprintln(os.Stderr, "Press Enter to start and stop recording.")
				go toggleOnEnter(ctx, os.Stdin, func() { p.orch.Toggle(app.FromConsole) })
			}
		}
		p.orch.Announce(msg)
		src = nil
	}

	wait := p.start(ctx)
	if src != nil {
		defer src.Unregister()
		mon := hotkey.NewMonitor(combo,
			func() { p.orch.Start(app.FromHotkey) },
			func() { p.orch.Stop(app.FromHotkey) },
		)
		go mon.Run(ctx, src)
	}

	waitQuit := func() {
		select {
		case <-ctx.Done():
		case <-trayQuit:
		case <-tuiDone:
		}
	}
	if ov != nil {
		go func() {
			waitQuit()
			ov.Quit()
		}()
		onMain(ov.Run)
	} else {
		waitQuit()
	}
	stop()
	wait()
	p.hub.Close()
	if prog != nil {
		prog.Quit()
		<-tuiDone
	}
	log.SessionEnd(p.orch.Completed())
	return 0
}
