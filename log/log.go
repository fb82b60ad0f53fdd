// Package log writes the diagnostics log (structured, one line per event)
// and the transcription log (one line per transcribed text) into a single
// directory. Every helper is a no-op until Init succeeds.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	diagnosticsFile = "diagnostics_log.txt"
	transcribeFile  = "transcribe_log.txt"
)

var (
	mu     sync.Mutex
	dir    string
	diag   = zerolog.Nop()
	files  []*os.File
	texts  *os.File
	pid    = os.Getpid()
	active bool
)

type Metrics struct {
	JobID        string
	Model        string
	Language     string
	AudioS       float64
	EngineMs     float64
	QueueMs      float64
	Chars        int
	Success      bool
	FailReason   string
	EngineDetail string
}

func SetDir(d string) {
	mu.Lock()
	dir = d
	mu.Unlock()
}

func Dir() string {
	mu.Lock()
	defer mu.Unlock()
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(Dir(), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func appendTo(name string) (*os.File, error) {
	return os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// Init opens both log files in the configured directory.
func Init() error {
	if err := EnsureDir(); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	closeLocked()

	d, err := appendTo(diagnosticsFile)
	if err != nil {
		return err
	}
	t, err := appendTo(transcribeFile)
	if err != nil {
		d.Close()
		return err
	}
	files = []*os.File{d, t}
	texts = t
	diag = zerolog.New(zerolog.ConsoleWriter{
		Out:        d,
		TimeFormat: time.DateTime,
		NoColor:    true,
	}).With().Timestamp().Int("pid", pid).Logger()
	active = true
	return nil
}

func closeLocked() {
	for _, f := range files {
		f.Close()
	}
	files, texts = nil, nil
	diag = zerolog.Nop()
	active = false
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

// event returns a zerolog event at lvl, or nil when logging is off. zerolog
// treats methods on a nil event as no-ops.
func event(lvl zerolog.Level) *zerolog.Event {
	mu.Lock()
	defer mu.Unlock()
	if !active {
		return nil
	}
	return diag.WithLevel(lvl)
}

func Info(msg string)  { event(zerolog.InfoLevel).Msg(msg) }
func Warn(msg string)  { event(zerolog.WarnLevel).Msg(msg) }
func Error(msg string) { event(zerolog.ErrorLevel).Msg(msg) }

func Infof(format string, args ...any)  { event(zerolog.InfoLevel).Msgf(format, args...) }
func Warnf(format string, args ...any)  { event(zerolog.WarnLevel).Msgf(format, args...) }
func Errorf(format string, args ...any) { event(zerolog.ErrorLevel).Msgf(format, args...) }

// StateChange records one orchestrator transition. reason may be empty.
func StateChange(from, to, reason string) {
	ev := event(zerolog.InfoLevel).Str("from", from).Str("to", to)
	if reason != "" {
		ev = ev.Str("reason", reason)
	}
	ev.Msg("state")
}

func TranscriptionMetrics(m Metrics) {
	ev := event(zerolog.InfoLevel).
		Str("job", m.JobID).
		Str("model", m.Model).
		Float64("audio_s", m.AudioS).
		Float64("queue_ms", m.QueueMs).
		Float64("engine_ms", m.EngineMs).
		Int("chars", m.Chars).
		Bool("ok", m.Success)
	if m.Language != "" {
		ev = ev.Str("lang", m.Language)
	}
	if m.FailReason != "" {
		ev = ev.Str("fail", m.FailReason)
	}
	if m.EngineDetail != "" {
		ev = ev.Str("detail", m.EngineDetail)
	}
	ev.Msg("transcription")
}

// TranscriptionText appends text to the transcription log as
// "time<TAB>[pid]<TAB>text".
func TranscriptionText(text string) {
	mu.Lock()
	defer mu.Unlock()
	if texts == nil {
		return
	}
	fmt.Fprintf(texts, "%s\t[%d]\t%s\n", time.Now().Format(time.DateTime), pid, text)
}

func SessionStart(engine, model, hotkey string) {
	event(zerolog.InfoLevel).
		Str("engine", engine).
		Str("model", model).
		Str("hotkey", hotkey).
		Msg("session_start")
}

func SessionEnd(count int) {
	event(zerolog.InfoLevel).Int("count", count).Msg("session_end")
}
