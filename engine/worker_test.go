package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"voiceclip/recorder"
	"voiceclip/status"
)

// gatedTranscriber blocks each job until the test releases it.
type gatedTranscriber struct {
	started chan string
	release chan struct{}
}

func newGated() *gatedTranscriber {
	return &gatedTranscriber{started: make(chan string, 8), release: make(chan struct{})}
}

func (g *gatedTranscriber) Transcribe(ctx context.Context, req Request) Result {
	g.started <- req.ID
	select {
	case <-g.release:
	case <-ctx.Done():
		return Result{JobID: req.ID, Err: ctx.Err(), Reason: status.EngineFailed}
	}
	return Result{JobID: req.ID, Success: true, Text: "text " + req.ID}
}

func buf() *recorder.Buffer {
	return &recorder.Buffer{Samples: make([]int16, 100), SampleRate: recorder.SampleRate}
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func TestWorkerQueueDepthOne(t *testing.T) {
	g := newGated()
	results := make(chan Result, 8)
	w := NewWorker(g, func(r Result) { results <- r })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if _, err := w.Submit(Request{ID: "a", Buffer: buf()}); err != nil {
		t.Fatal(err)
	}
	if id := waitFor(t, g.started); id != "a" {
		t.Fatalf("started %q, want a", id)
	}
	if _, err := w.Submit(Request{ID: "b", Buffer: buf()}); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if _, err := w.Submit(Request{ID: "c", Buffer: buf()}); !errors.Is(err, ErrBusy) {
		t.Fatalf("third submit err = %v, want ErrBusy", err)
	}
	if w.Pending() != 2 {
		t.Errorf("pending = %d, want 2", w.Pending())
	}

	g.release <- struct{}{}
	if r := waitFor(t, results); r.JobID != "a" {
		t.Fatalf("first result %q, want a", r.JobID)
	}
	if id := waitFor(t, g.started); id != "b" {
		t.Fatalf("started %q, want b", id)
	}
	g.release <- struct{}{}
	if r := waitFor(t, results); r.JobID != "b" || r.Text != "text b" {
		t.Fatalf("second result %+v", r)
	}

	if _, err := w.Submit(Request{ID: "d", Buffer: buf()}); err != nil {
		t.Fatalf("submit after drain: %v", err)
	}
	waitFor(t, g.started)
	g.release <- struct{}{}
	waitFor(t, results)
}

func TestWorkerAssignsIDs(t *testing.T) {
	g := newGated()
	close(g.release)
	results := make(chan Result, 1)
	w := NewWorker(g, func(r Result) { results <- r })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	id, err := w.Submit(Request{Buffer: buf()})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty job id")
	}
	if r := waitFor(t, results); r.JobID != id {
		t.Errorf("result id %q, want %q", r.JobID, id)
	}
}

func TestWorkerShutdownReportsQueued(t *testing.T) {
	g := newGated()
	results := make(chan Result, 8)
	w := NewWorker(g, func(r Result) { results <- r })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.Submit(Request{ID: "a", Buffer: buf()})
	waitFor(t, g.started)
	w.Submit(Request{ID: "b", Buffer: buf()})
	cancel()
	waitFor(t, done)

	got := map[string]bool{}
	for len(results) > 0 {
		r := <-results
		if r.Success {
			t.Errorf("job %s succeeded after shutdown", r.JobID)
		}
		got[r.JobID] = true
	}
	if !got["a"] || !got["b"] {
		t.Errorf("results after shutdown = %v, want a and b", got)
	}
}
