package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"voiceclip/log"
)

// maxPending is one running job plus one queued behind it.
const maxPending = 2

type job struct {
	req    Request
	queued time.Time
}

// Worker serializes transcriptions on a single goroutine. Results are
// delivered in submission order.
type Worker struct {
	t       Transcriber
	deliver func(Result)
	jobs    chan job

	mu      sync.Mutex
	pending int
}

func NewWorker(t Transcriber, deliver func(Result)) *Worker {
	return &Worker{
		t:       t,
		deliver: deliver,
		jobs:    make(chan job, maxPending),
	}
}

// Submit queues req and returns its job id. It fails with ErrBusy when a job
// is already running and another is waiting. The worker takes ownership of
// req.Buffer.
func (w *Worker) Submit(req Request) (string, error) {
	w.mu.Lock()
	if w.pending >= maxPending {
		w.mu.Unlock()
		return "", ErrBusy
	}
	w.pending++
	w.mu.Unlock()

	if req.ID == "" {
		req.ID = uuid.NewString()[:8]
	}
	w.jobs <- job{req: req, queued: time.Now()}
	return req.ID, nil
}

// Pending reports queued plus running jobs.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Run processes jobs until ctx is done. Jobs still queued at that point are
// reported as failed so every Submit gets exactly one result.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain(ctx.Err())
			return
		case j := <-w.jobs:
			w.process(ctx, j)
		}
	}
}

func (w *Worker) process(ctx context.Context, j job) {
	queueWait := time.Since(j.queued)
	res := w.t.Transcribe(ctx, j.req)
	j.req.Buffer = nil

	m := log.Metrics{
		JobID:        res.JobID,
		Model:        res.Model,
		Language:     j.req.Language,
		AudioS:       res.Audio.Seconds(),
		QueueMs:      float64(queueWait.Microseconds()) / 1000,
		EngineMs:     float64(res.Elapsed.Microseconds()) / 1000,
		Chars:        len(res.Text),
		Success:      res.Success,
		FailReason:   string(res.Reason),
		EngineDetail: res.Detail,
	}
	log.TranscriptionMetrics(m)

	w.mu.Lock()
	w.pending--
	w.mu.Unlock()
	w.deliver(res)
}

func (w *Worker) drain(err error) {
	for {
		select {
		case j := <-w.jobs:
			w.mu.Lock()
			w.pending--
			w.mu.Unlock()
			w.deliver(Result{
				JobID:  j.req.ID,
				Model:  j.req.Model.Name,
				Audio:  j.req.Buffer.Duration(),
				Err:    err,
				Reason: Reason(err),
			})
		default:
			return
		}
	}
}
