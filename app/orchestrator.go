// Package app holds the orchestrator: the single owner of application state.
// Every other component reports to it through events and never touches
// another component directly.
package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	"voiceclip/engine"
	"voiceclip/log"
	"voiceclip/model"
	"voiceclip/recorder"
	"voiceclip/status"
)

const (
	DefaultErrorHold = 3 * time.Second
	queueSize        = 64
)

type Recorder interface {
	Start(onLimit func()) error
	Stop() (*recorder.Buffer, error)
}

type Submitter interface {
	Submit(req engine.Request) (string, error)
}

type Publisher interface {
	Publish(text string) error
}

type Catalog interface {
	Refresh() error
	Lookup(name string) (model.Descriptor, error)
}

type Notifier interface {
	Publish(u status.Update)
}

type Config struct {
	Model     model.Descriptor
	Language  string
	ErrorHold time.Duration
}

type Orchestrator struct {
	events chan Event
	done   chan struct{}

	rec     Recorder
	engine  Submitter
	clip    Publisher
	catalog Catalog
	out     Notifier
	hold    time.Duration

	// Everything below is owned by the Run goroutine.
	state        status.State
	model        model.Descriptor
	language     string
	pendingModel *model.Descriptor
	pendingLang  *string
	errGen       uint64
	errTimer     *time.Timer
	job          string
	recorded     time.Duration

	current   atomic.Int32
	completed atomic.Int64
}

func New(cfg Config, rec Recorder, eng Submitter, clip Publisher, catalog Catalog, out Notifier) *Orchestrator {
	hold := cfg.ErrorHold
	if hold <= 0 {
		hold = DefaultErrorHold
	}
	return &Orchestrator{
		events:   make(chan Event, queueSize),
		done:     make(chan struct{}),
		rec:      rec,
		engine:   eng,
		clip:     clip,
		catalog:  catalog,
		out:      out,
		hold:     hold,
		state:    status.Idle,
		model:    cfg.Model,
		language: cfg.Language,
	}
}

// Post queues ev without blocking. It reports false if the queue is full or
// the orchestrator has stopped.
func (o *Orchestrator) Post(ev Event) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.events <- ev:
		return true
	default:
		log.Warnf("event queue full, dropped %s", ev.Kind)
		return false
	}
}

// Deliver hands a finished transcription to the orchestrator. Unlike Post it
// waits for queue space, so results are never dropped.
func (o *Orchestrator) Deliver(res engine.Result) {
	o.send(Event{Kind: TranscriptionDone, Result: res})
}

// send waits for queue space. It reports false once the orchestrator stopped.
func (o *Orchestrator) send(ev Event) bool {
	select {
	case o.events <- ev:
		return true
	case <-o.done:
		return false
	}
}

func (o *Orchestrator) Start(source string) bool {
	return o.Post(Event{Kind: StartRecording, Source: source})
}

// Stop never blocks and is never dropped: when the queue is full a goroutine
// waits for space, since a lost stop would leave the microphone open.
func (o *Orchestrator) Stop(source string) bool {
	ev := Event{Kind: StopRecording, Source: source}
	select {
	case <-o.done:
		return false
	case o.events <- ev:
		return true
	default:
	}
	log.Warnf("event queue full, deferring %s", ev.Kind)
	go o.send(ev)
	return true
}

func (o *Orchestrator) Toggle(source string) bool {
	return o.Post(Event{Kind: ToggleRecording, Source: source})
}

func (o *Orchestrator) SwitchModel(name string) bool {
	return o.Post(Event{Kind: SwitchModel, Name: name})
}

func (o *Orchestrator) SetLanguage(code string) bool {
	return o.Post(Event{Kind: SetLanguage, Name: code})
}

// Announce publishes a transient notice without changing state.
func (o *Orchestrator) Announce(notice string) bool {
	return o.Post(Event{Kind: Announce, Name: notice})
}

// State is a snapshot for readers outside the Run goroutine.
func (o *Orchestrator) State() status.State {
	return status.State(o.current.Load())
}

// Completed counts transcriptions that produced text.
func (o *Orchestrator) Completed() int {
	return int(o.completed.Load())
}

// Run consumes events until ctx is done. An active recording is discarded
// on shutdown.
func (o *Orchestrator) Run(ctx context.Context) {
	defer close(o.done)
	o.publish(status.Update{})
	for {
		select {
		case <-ctx.Done():
			if o.state == status.Recording {
				o.rec.Stop()
			}
			if o.errTimer != nil {
				o.errTimer.Stop()
			}
			return
		case ev := <-o.events:
			o.handle(ev)
		}
	}
}

func (o *Orchestrator) handle(ev Event) {
	switch ev.Kind {
	case StartRecording:
		o.startRecording(ev.Source)
	case StopRecording:
		o.stopRecording(ev.Source)
	case ToggleRecording:
		if o.state == status.Recording {
			o.stopRecording(ev.Source)
		} else {
			o.startRecording(ev.Source)
		}
	case TranscriptionDone:
		o.finish(ev.Result)
	case SwitchModel:
		o.switchModel(ev.Name)
	case SetLanguage:
		o.setLanguage(ev.Name)
	case Announce:
		o.publish(status.Update{Notice: ev.Name})
	case errorExpired:
		if o.state == status.Error && ev.gen == o.errGen {
			o.enterIdle(status.Update{})
		}
	}
}

func (o *Orchestrator) startRecording(source string) {
	if o.state == status.Error {
		o.clearError()
		o.enterIdle(status.Update{})
	}
	if o.state != status.Idle {
		log.Infof("start from %s ignored while %s", source, o.state)
		return
	}
	err := o.rec.Start(func() { o.Stop(FromLimit) })
	if err != nil {
		o.fail(status.DeviceError, err, status.Update{})
		return
	}
	log.Info("recording_start: " + source)
	o.setState(status.Recording, status.Update{})
}

func (o *Orchestrator) stopRecording(source string) {
	if o.state != status.Recording {
		return
	}
	log.Info("recording_stop: " + source)
	buf, err := o.rec.Stop()
	switch {
	case errors.Is(err, recorder.ErrTooShort):
		log.Info("recording_discarded: " + err.Error())
		o.enterIdle(status.Update{Notice: "Too short"})
		return
	case err != nil:
		o.fail(status.DeviceError, err, status.Update{})
		return
	}

	o.recorded = buf.Duration()
	notice := ""
	if source == FromLimit {
		notice = "Maximum recording length reached"
	}
	id, err := o.engine.Submit(engine.Request{Buffer: buf, Model: o.model, Language: o.language})
	if err != nil {
		o.fail(engine.Reason(err), err, status.Update{Recorded: o.recorded})
		return
	}
	o.job = id
	o.setState(status.Transcribing, status.Update{Recorded: o.recorded, Notice: notice})
}

func (o *Orchestrator) finish(res engine.Result) {
	if o.state != status.Transcribing || res.JobID != o.job {
		log.Warnf("stale result for job %s ignored in %s", res.JobID, o.state)
		return
	}
	o.job = ""
	upd := status.Update{Job: res.JobID, Recorded: res.Audio}

	if !res.Success {
		if res.Detail != "" {
			upd.Detail = res.Detail
		}
		o.fail(res.Reason, res.Err, upd)
		return
	}

	if res.Text == "" {
		upd.Notice = "No speech detected"
		o.enterIdle(upd)
		return
	}

	upd.Text = res.Text
	log.TranscriptionText(res.Text)
	o.completed.Add(1)
	if err := o.clip.Publish(res.Text); err != nil {
		o.fail(status.ClipboardError, err, upd)
		return
	}
	o.enterIdle(upd)
}

var languageCode = regexp.MustCompile(`^([a-z]{2,3}|auto)$`)

func (o *Orchestrator) setLanguage(code string) {
	if code != "" && !languageCode.MatchString(code) {
		o.publish(status.Update{Notice: fmt.Sprintf("Unknown language %q", code)})
		return
	}
	if o.state == status.Idle {
		o.language = code
		o.publish(status.Update{Notice: "Language: " + languageLabel(code)})
		return
	}
	o.pendingLang = &code
	o.publish(status.Update{Notice: "Language " + languageLabel(code) + " applies after this recording"})
}

func languageLabel(code string) string {
	if code == "" {
		return "engine default"
	}
	return code
}

func (o *Orchestrator) switchModel(name string) {
	if o.state == status.Idle {
		if err := o.catalog.Refresh(); err != nil {
			log.Warnf("model catalog refresh: %v", err)
		}
		d, err := o.catalog.Lookup(name)
		if err != nil {
			o.fail(status.ModelNotFound, err, status.Update{})
			return
		}
		o.model = d
		log.Info("model_switch: " + d.Name)
		o.publish(status.Update{Notice: "Model: " + d.Label})
		return
	}

	d, err := o.catalog.Lookup(name)
	if err != nil {
		o.publish(status.Update{Notice: status.ModelNotFound.Message() + ": " + name, Detail: err.Error()})
		return
	}
	o.pendingModel = &d
	o.publish(status.Update{Notice: "Model " + d.Label + " applies after this recording"})
}

// enterIdle moves to Idle and applies any deferred model or language change.
func (o *Orchestrator) enterIdle(upd status.Update) {
	if o.pendingModel != nil {
		o.model = *o.pendingModel
		o.pendingModel = nil
		log.Info("model_switch: " + o.model.Name)
		upd.Notice = joinNotice(upd.Notice, "Model: "+o.model.Label)
	}
	if o.pendingLang != nil {
		o.language = *o.pendingLang
		o.pendingLang = nil
		upd.Notice = joinNotice(upd.Notice, "Language: "+languageLabel(o.language))
	}
	o.setState(status.Idle, upd)
}

func joinNotice(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}

func (o *Orchestrator) fail(reason status.Reason, err error, upd status.Update) {
	if reason == status.None {
		reason = status.EngineFailed
	}
	if err != nil {
		log.Errorf("%s: %v", reason, err)
		if upd.Detail == "" {
			upd.Detail = err.Error()
		}
	}
	o.clearError()
	upd.Reason = reason
	o.setState(status.Error, upd)

	gen := o.errGen
	o.errTimer = time.AfterFunc(o.hold, func() {
		o.send(Event{Kind: errorExpired, gen: gen})
	})
}

func (o *Orchestrator) clearError() {
	o.errGen++
	if o.errTimer != nil {
		o.errTimer.Stop()
		o.errTimer = nil
	}
}

func (o *Orchestrator) setState(to status.State, upd status.Update) {
	from := o.state
	o.state = to
	o.current.Store(int32(to))
	log.StateChange(from.String(), to.String(), string(upd.Reason))
	o.publish(upd)
}

// publish stamps upd with the current state and settings.
func (o *Orchestrator) publish(upd status.Update) {
	upd.State = o.state
	upd.Model = o.model.Name
	upd.Language = o.language
	upd.At = time.Now()
	o.out.Publish(upd)
}
