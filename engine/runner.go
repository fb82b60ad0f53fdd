// Package engine runs whisper.cpp's whisper-cli on finished recordings.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"voiceclip/encoder"
	"voiceclip/log"
	"voiceclip/model"
	"voiceclip/recorder"
	"voiceclip/status"
)

const (
	DefaultTimeout = 120 * time.Second
	waitDelay      = 2 * time.Second
	probeTimeout   = 10 * time.Second
)

type Request struct {
	ID       string
	Buffer   *recorder.Buffer
	Model    model.Descriptor
	Language string
}

type Result struct {
	JobID   string
	Text    string
	Success bool
	Reason  status.Reason
	Err     error
	Detail  string
	Model   string
	Audio   time.Duration
	Elapsed time.Duration
}

// Transcriber turns one request into one result. Implementations never
// return a Result with both Success and Err set.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) Result
}

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

type Runner struct {
	Binary  string
	Timeout time.Duration
	Threads int
	TempDir string
	// KeepDir, when set, receives a FLAC copy of every recording that
	// transcribed successfully.
	KeepDir string

	newCommand commandFunc
}

func NewRunner(binary string) *Runner {
	return &Runner{
		Binary:     binary,
		Timeout:    DefaultTimeout,
		newCommand: exec.CommandContext,
	}
}

func (r *Runner) args(modelPath, wavPath, lang string) []string {
	args := []string{"-m", modelPath, "-f", wavPath, "-nt", "-np"}
	if lang != "" {
		args = append(args, "-l", lang)
	}
	if r.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(r.Threads))
	}
	return args
}

func (r *Runner) Transcribe(ctx context.Context, req Request) Result {
	start := time.Now()
	res := Result{JobID: req.ID, Model: req.Model.Name, Audio: req.Buffer.Duration()}

	text, detail, err := r.run(ctx, req)
	res.Elapsed = time.Since(start)
	res.Detail = detail
	if err != nil {
		res.Err = err
		res.Reason = Reason(err)
		return res
	}
	res.Text = text
	res.Success = true

	if r.KeepDir != "" {
		r.archive(req)
	}
	return res
}

func (r *Runner) run(ctx context.Context, req Request) (string, string, error) {
	if r.Binary == "" {
		return "", "", ErrEngineMissing
	}
	if _, err := exec.LookPath(r.Binary); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrEngineMissing, err)
	}
	if _, err := os.Stat(req.Model.Path); err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrModelMissing, req.Model.Path)
	}

	dir := r.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	wavPath := filepath.Join(dir, "voiceclip-"+uuid.NewString()+".wav")
	if err := encoder.WriteWAVFile(wavPath, req.Buffer.Samples, req.Buffer.SampleRate); err != nil {
		return "", "", fmt.Errorf("%w: writing wav: %v", ErrFailed, err)
	}
	defer os.Remove(wavPath)

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := r.newCommand(runCtx, r.Binary, r.args(req.Model.Path, wavPath, req.Language)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return "", lastLine(stderr.Bytes()), fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if ctx.Err() != nil {
		return "", "", fmt.Errorf("%w: %v", ErrFailed, ctx.Err())
	}
	if err != nil {
		detail := lastLine(stderr.Bytes())
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			if modelLoadFailed(stderr.Bytes()) {
				return "", detail, fmt.Errorf("%w: engine could not load %s", ErrModelMissing, req.Model.File)
			}
			return "", detail, fmt.Errorf("%w: exit status %d", ErrFailed, exitErr.ExitCode())
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
			return "", detail, fmt.Errorf("%w: %v", ErrEngineMissing, err)
		}
		return "", detail, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	text, err := parseOutput(stdout.Bytes())
	if err != nil {
		return "", lastLine(stderr.Bytes()), err
	}
	return text, "", nil
}

func (r *Runner) archive(req Request) {
	if err := os.MkdirAll(r.KeepDir, 0755); err != nil {
		log.Warnf("audio archive: %v", err)
		return
	}
	name := req.Buffer.Started.Format("20060102-150405") + "-" + req.ID + ".flac"
	if err := encoder.WriteFLACFile(filepath.Join(r.KeepDir, name), req.Buffer.Samples, req.Buffer.SampleRate); err != nil {
		log.Warnf("audio archive: %v", err)
	}
}

// Probe starts the engine with --help and reports whether it runs at all.
func (r *Runner) Probe(ctx context.Context) error {
	if r.Binary == "" {
		return ErrEngineMissing
	}
	if _, err := exec.LookPath(r.Binary); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineMissing, err)
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var out bytes.Buffer
	cmd := r.newCommand(ctx, r.Binary, "--help")
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = waitDelay
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w after %s", ErrTimeout, probeTimeout)
	}
	if err != nil {
		return fmt.Errorf("%w: %v: %s", ErrFailed, err, lastLine(out.Bytes()))
	}
	return nil
}
