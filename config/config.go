// Package config loads settings from an optional TOML file and command-line
// flags. Flags win over the file; the file wins over defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"voiceclip/hotkey"
)

// Duration accepts "300ms"-style strings in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Hotkey      string   `toml:"hotkey"`
	KeySource   string   `toml:"key_source"`
	Device      string   `toml:"device"`
	Gain        int      `toml:"gain"`
	MinDuration Duration `toml:"min_duration"`
	MaxDuration Duration `toml:"max_duration"`

	BaseDir   string   `toml:"base_dir"`
	Engine    string   `toml:"engine"`
	ModelsDir string   `toml:"models_dir"`
	Model     string   `toml:"model"`
	Language  string   `toml:"language"`
	Threads   int      `toml:"threads"`
	Timeout   Duration `toml:"timeout"`

	ErrorHold  Duration `toml:"error_hold"`
	AutoPaste  bool     `toml:"autopaste"`
	Notify     bool     `toml:"notify"`
	Beep       bool     `toml:"beep"`
	Tray       bool     `toml:"tray"`
	TUI        bool     `toml:"tui"`
	Overlay    bool     `toml:"overlay"`
	KeepAudio  string   `toml:"keep_audio"`
	HistoryDir string   `toml:"history_dir"`
}

func Default() Config {
	return Config{
		Hotkey:      "ctrl_l+alt_l",
		Gain:        8,
		MinDuration: Duration{300 * time.Millisecond},
		MaxDuration: Duration{2 * time.Minute},
		Model:       "base",
		Timeout:     Duration{120 * time.Second},
		ErrorHold:   Duration{3 * time.Second},
		Beep:        true,
		Tray:        true,
		TUI:         true,
	}
}

// DefaultPath is <user config dir>/voiceclip/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voiceclip", "config.toml"), nil
}

// DefaultHistoryDir is <user config dir>/voiceclip/history.
func DefaultHistoryDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "voiceclip", "history")
}

// LoadFile decodes path over cfg. Unknown keys are an error so typos don't
// pass silently.
func LoadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Save writes cfg as TOML, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c Config) Validate() error {
	var errs []error
	if _, err := hotkey.ParseCombo(c.Hotkey); err != nil {
		errs = append(errs, err)
	}
	if c.MinDuration.Duration < 0 {
		errs = append(errs, errors.New("min_duration must not be negative"))
	}
	if c.MaxDuration.Duration <= c.MinDuration.Duration {
		errs = append(errs, fmt.Errorf("max_duration %s must exceed min_duration %s", c.MaxDuration, c.MinDuration))
	}
	if c.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.ErrorHold.Duration <= 0 {
		errs = append(errs, errors.New("error_hold must be positive"))
	}
	if c.KeySource != "" && c.KeySource != hotkey.SourceHook && c.KeySource != hotkey.SourceEvdev {
		errs = append(errs, fmt.Errorf("key_source %q: use %s or %s", c.KeySource, hotkey.SourceHook, hotkey.SourceEvdev))
	}
	return errors.Join(errs...)
}

// Flags binds every Config field to a command-line flag.
type Flags struct {
	path    string
	vals    Config
	setters map[string]func(dst *Config)
}

func Bind(fs *flag.FlagSet) *Flags {
	f := &Flags{vals: Default(), setters: make(map[string]func(*Config))}
	v := &f.vals

	fs.StringVar(&f.path, "config", "", "config file (default: <user config dir>/voiceclip/config.toml)")

	str := func(p *string, name, usage string, set func(*Config)) {
		fs.StringVar(p, name, *p, usage)
		f.setters[name] = set
	}
	boolean := func(p *bool, name, usage string, set func(*Config)) {
		fs.BoolVar(p, name, *p, usage)
		f.setters[name] = set
	}
	dur := func(p *time.Duration, name, usage string, set func(*Config)) {
		fs.DurationVar(p, name, *p, usage)
		f.setters[name] = set
	}
	num := func(p *int, name, usage string, set func(*Config)) {
		fs.IntVar(p, name, *p, usage)
		f.setters[name] = set
	}

	str(&v.Hotkey, "hotkey", "key combination to hold while speaking (e.g. ctrl_l+alt_l)", func(c *Config) { c.Hotkey = v.Hotkey })
	str(&v.KeySource, "keys", "global key source: hook or evdev (default: auto)", func(c *Config) { c.KeySource = v.KeySource })
	str(&v.Device, "device", "use named microphone device", func(c *Config) { c.Device = v.Device })
	num(&v.Gain, "gain", "input gain multiplier", func(c *Config) { c.Gain = v.Gain })
	dur(&v.MinDuration.Duration, "min", "discard recordings shorter than this", func(c *Config) { c.MinDuration = v.MinDuration })
	dur(&v.MaxDuration.Duration, "max", "stop recording automatically after this long", func(c *Config) { c.MaxDuration = v.MaxDuration })
	str(&v.BaseDir, "base", "directory holding the whisper.cpp checkout (default: executable dir)", func(c *Config) { c.BaseDir = v.BaseDir })
	str(&v.Engine, "engine", "path to whisper-cli (default: search base dir, then PATH)", func(c *Config) { c.Engine = v.Engine })
	str(&v.ModelsDir, "models", "directory holding ggml-*.bin models", func(c *Config) { c.ModelsDir = v.ModelsDir })
	str(&v.Model, "model", "model name (large-v3, medium, base, tiny, ...)", func(c *Config) { c.Model = v.Model })
	str(&v.Language, "lang", "language hint for the engine (e.g. en, de, auto). Empty = engine default", func(c *Config) { c.Language = v.Language })
	num(&v.Threads, "threads", "engine thread count (0 = engine default)", func(c *Config) { c.Threads = v.Threads })
	dur(&v.Timeout.Duration, "timeout", "abandon a transcription after this long", func(c *Config) { c.Timeout = v.Timeout })
	dur(&v.ErrorHold.Duration, "errorhold", "how long errors stay on screen", func(c *Config) { c.ErrorHold = v.ErrorHold })
	boolean(&v.AutoPaste, "autopaste", "paste into the focused window after copying", func(c *Config) { c.AutoPaste = v.AutoPaste })
	boolean(&v.Notify, "notify", "show desktop notifications", func(c *Config) { c.Notify = v.Notify })
	boolean(&v.Beep, "beep", "play start/stop sounds", func(c *Config) { c.Beep = v.Beep })
	boolean(&v.Tray, "tray", "show system tray icon", func(c *Config) { c.Tray = v.Tray })
	boolean(&v.TUI, "tui", "run with terminal UI", func(c *Config) { c.TUI = v.TUI })
	boolean(&v.Overlay, "overlay", "show a floating recording overlay (gui builds)", func(c *Config) { c.Overlay = v.Overlay })
	str(&v.KeepAudio, "keep-audio", "save transcribed recordings as FLAC in this directory", func(c *Config) { c.KeepAudio = v.KeepAudio })
	str(&v.HistoryDir, "historydir", "transcription history database directory", func(c *Config) { c.HistoryDir = v.HistoryDir })

	return f
}

// Path is the config file the caller asked for, or the default location.
func (f *Flags) Path() string {
	if f.path != "" {
		return f.path
	}
	p, _ := DefaultPath()
	return p
}

// Resolve builds the effective config after fs has been parsed. A missing
// default config file is fine; a missing explicit -config file is not.
func (f *Flags) Resolve(fs *flag.FlagSet) (Config, error) {
	cfg := Default()
	path := f.Path()
	if path != "" {
		err := LoadFile(path, &cfg)
		switch {
		case err == nil:
		case errors.Is(err, os.ErrNotExist) && f.path == "":
		default:
			return cfg, err
		}
	}
	fs.Visit(func(fl *flag.Flag) {
		if set, ok := f.setters[fl.Name]; ok {
			set(&cfg)
		}
	})
	if cfg.HistoryDir == "" {
		cfg.HistoryDir = DefaultHistoryDir()
	}
	return cfg, cfg.Validate()
}
