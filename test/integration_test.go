//go:build integration && !windows

package test_test

import (
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("VOICECLIP_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "VOICECLIP_TEST_BIN not set; run: go build -o /tmp/voiceclip . && VOICECLIP_TEST_BIN=/tmp/voiceclip go test -tags integration ./test")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func writeWAV(t *testing.T, dir string, durationS float64) string {
	t.Helper()
	const sampleRate = 16000
	const headerSize = 44
	numSamples := int(sampleRate * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], sampleRate*2)
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i := 0; i < numSamples; i++ {
		v := int16(2000)
		if i%40 < 20 {
			v = -2000
		}
		binary.LittleEndian.PutUint16(buf[headerSize+2*i:], uint16(v))
	}

	path := filepath.Join(dir, "input.wav")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// stubEngine writes a shell script standing in for whisper-cli.
func stubEngine(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "whisper-cli")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

type env struct {
	dir    string
	engine string
	models string
	wav    string
}

func newEnv(t *testing.T, engineBody string) env {
	t.Helper()
	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	if err := os.MkdirAll(models, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(models, "ggml-base.bin"), []byte("model"), 0644); err != nil {
		t.Fatal(err)
	}
	return env{
		dir:    dir,
		engine: stubEngine(t, dir, engineBody),
		models: models,
		wav:    writeWAV(t, dir, 3),
	}
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func (e env) run(t *testing.T, stdin string, args ...string) (stdout, logDir string) {
	t.Helper()
	logDir = filepath.Join(e.dir, "logs")
	base := []string{
		"-logpath", logDir,
		"-engine", e.engine,
		"-models", e.models,
		"-timeout", "5s",
		"-errorhold", "500ms",
		"-tray=false", "-tui=false", "-beep=false",
	}
	cmd := exec.Command(testBinary, append(append(base, args...), "-test", e.wav)...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "HOME="+e.dir, "XDG_CONFIG_HOME="+filepath.Join(e.dir, "config"))

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("voiceclip exited with error: %v\noutput: %s", err, out)
	}
	return string(out), logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestPushToTalkCopiesTranscript(t *testing.T) {
	e := newEnv(t, `echo "[00:00:00.000 --> 00:00:01.500]   hello world"`)
	out, logDir := e.run(t, cmds("KEYDOWN", "SLEEP 1200", "KEYUP", "WAIT", "CLIPBOARD", "QUIT"))

	if !strings.Contains(out, `CLIPBOARD "hello world"`) {
		t.Errorf("clipboard not set:\n%s", out)
	}
	for _, want := range []string{"STATE recording", "STATE transcribing", "STATE idle"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	if text := readLog(t, logDir, "transcribe_log.txt"); !strings.Contains(text, "hello world") {
		t.Errorf("transcribe_log.txt = %q", text)
	}
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "session_end") {
		t.Error("expected session_end in diagnostics")
	}
}

func TestShortPressSkipsEngine(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	e := newEnv(t, "touch "+marker+"\necho hi")
	out, _ := e.run(t, cmds("KEYDOWN", "SLEEP 50", "KEYUP", "WAIT", "CLIPBOARD", "QUIT"), "-min", "500ms")

	if _, err := os.Stat(marker); err == nil {
		t.Error("engine ran for a too-short recording")
	}
	if !strings.Contains(out, `CLIPBOARD ""`) {
		t.Errorf("clipboard changed:\n%s", out)
	}
}

func TestEngineFailureRecovers(t *testing.T) {
	e := newEnv(t, "echo boom >&2\nexit 3")
	out, _ := e.run(t, cmds("KEYDOWN", "SLEEP 800", "KEYUP", "WAIT", "SLEEP 1000", "QUIT"))

	if !strings.Contains(out, "STATE error (engine_failed)") {
		t.Errorf("expected engine_failed error:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var last string
	for _, l := range lines {
		if strings.HasPrefix(l, "STATE ") {
			last = l
		}
	}
	if !strings.HasPrefix(last, "STATE idle") {
		t.Errorf("last state = %q, want Idle after error hold", last)
	}
}

func TestToggleAndLanguage(t *testing.T) {
	e := newEnv(t, `for a in "$@"; do printf '%s ' "$a"; done; echo`)
	out, _ := e.run(t, cmds("LANG de", "TOGGLE", "SLEEP 800", "TOGGLE", "WAIT", "CLIPBOARD", "QUIT"))

	if !strings.Contains(out, "-l de") {
		t.Errorf("language not passed to engine:\n%s", out)
	}
}
