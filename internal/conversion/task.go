// Package conversion runs one text-to-audio conversion at a time and reports
// its progress as a stream of events.
package conversion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/pdf-narrator/internal/audio"
	"github.com/lexiqai/pdf-narrator/internal/observability"
	"github.com/lexiqai/pdf-narrator/internal/tts"
)

// progressSteps is the number of progress events before synthesis starts.
const progressSteps = 100

// State is the lifecycle stage of the task.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Request is one conversion. It is never reused.
type Request struct {
	Text       string
	Voice      string
	OutputPath string
}

// Status is a snapshot of the current or most recent conversion.
type Status struct {
	ID         string     `json:"id,omitempty"`
	State      State      `json:"state"`
	Voice      string     `json:"voice,omitempty"`
	OutputPath string     `json:"output_path,omitempty"`
	Percent    int        `json:"percent"`
	Reason     string     `json:"reason,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Resolver maps a voice name to its backend.
type Resolver interface {
	Resolve(name string) (tts.Voice, tts.Synthesizer, error)
}

// AudioWriter stores a finished payload at path.
type AudioWriter interface {
	WriteFile(path string, data []byte) error
}

// TaskConfig holds the task's collaborators.
type TaskConfig struct {
	Resolver         Resolver
	Writer           AudioWriter
	ProgressInterval time.Duration
	// Events receives a copy of every event; a private log is used when nil.
	Events *EventLog
	Logger zerolog.Logger
}

// Task runs at most one conversion at a time.
type Task struct {
	resolver Resolver
	writer   AudioWriter
	interval time.Duration
	events   *EventLog
	logger   zerolog.Logger

	mu     sync.RWMutex
	status Status
}

// NewTask creates an idle task.
func NewTask(cfg TaskConfig) *Task {
	events := cfg.Events
	if events == nil {
		events = NewEventLog(0)
	}
	writer := cfg.Writer
	if writer == nil {
		writer = audio.NewWriter()
	}
	return &Task{
		resolver: cfg.Resolver,
		writer:   writer,
		interval: cfg.ProgressInterval,
		events:   events,
		logger:   cfg.Logger,
		status:   Status{State: StateIdle},
	}
}

// Status returns a snapshot of the current or last conversion.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Events returns the session event log.
func (t *Task) Events() *EventLog {
	return t.events
}

// Submit validates req and starts the conversion on its own goroutine.
// Validation failures are returned here and produce no events. The returned
// channel yields progress 1..100 then one done or failed event, and is
// closed afterwards. Cancelling ctx fails the conversion.
func (t *Task) Submit(ctx context.Context, req Request) (<-chan Event, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &EmptyTextError{}
	}
	voice, synth, err := t.resolver.Resolve(req.Voice)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return nil, ErrNoOutputPath
	}
	outputPath := audio.NormalizePath(req.OutputPath, audio.ExtMP3)

	t.mu.Lock()
	if t.status.State == StateRunning {
		t.mu.Unlock()
		return nil, ErrTaskRunning
	}
	now := time.Now().UTC()
	id := observability.NewConversionID()
	t.status = Status{
		ID:         id,
		State:      StateRunning,
		Voice:      string(voice),
		OutputPath: outputPath,
		StartedAt:  &now,
	}
	t.mu.Unlock()

	// Room for every event a conversion emits, so a slow reader never
	// stalls the task.
	ch := make(chan Event, progressSteps+1)

	r := &run{
		task:       t,
		id:         id,
		voice:      voice,
		synth:      synth,
		text:       req.Text,
		outputPath: outputPath,
		out:        ch,
		metrics:    observability.NewConversionMetrics(voice.ID()),
		logger:     observability.ConversionLogger(t.logger, id, voice.ID()),
	}
	go r.start(ctx)

	return ch, nil
}

// run is the state of one submitted conversion.
type run struct {
	task       *Task
	id         string
	voice      tts.Voice
	synth      tts.Synthesizer
	text       string
	outputPath string
	out        chan Event
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

func (r *run) start(ctx context.Context) {
	defer close(r.out)

	r.metrics.RecordConversionStart()
	r.logger.Info().
		Int("characters", len(r.text)).
		Str("output_path", r.outputPath).
		Msg("Conversion started")

	err := r.execute(ctx)

	// The terminal event reaches the session log in the same step that makes
	// the task idle, so a resubmitted conversion always logs after it.
	if err != nil {
		e := r.task.complete(Event{ConversionID: r.id, Type: EventFailed, Reason: err.Error()})
		r.metrics.RecordConversionEnd(false)
		r.logger.Error().Err(err).Msg("Conversion failed")
		r.out <- e
		return
	}

	e := r.task.complete(Event{ConversionID: r.id, Type: EventDone, Percent: progressSteps, OutputPath: r.outputPath})
	r.metrics.RecordConversionEnd(true)
	r.logger.Info().Msg("Conversion completed")
	r.out <- e
}

// execute converts any panic into an error so the conversion always ends
// with exactly one terminal event.
func (r *run) execute(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.metrics.RecordError("panic", "conversion")
			r.logger.Error().Interface("panic", p).Msg("Recovered from panic in conversion")
			err = fmt.Errorf("%v", p)
		}
	}()

	if err := r.progress(ctx); err != nil {
		return err
	}

	r.metrics.RecordSynthesisStart()
	data, err := r.synth.Synthesize(ctx, r.text)
	r.metrics.RecordSynthesisEnd(err == nil)
	if err != nil {
		r.metrics.RecordError(errorType(err), "synthesis")
		return err
	}
	if len(data) == 0 {
		r.metrics.RecordError("no_audio", "synthesis")
		return &tts.SynthesisError{
			Backend: string(r.voice),
			Message: fmt.Sprintf("%s returned no audio", r.voice),
			Err:     tts.ErrNoAudio,
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if f := audio.DetectFormat(data); f != audio.FormatMP3 {
		r.logger.Warn().Str("format", string(f)).Msg("Backend payload does not look like MP3")
	}

	if err := r.task.writer.WriteFile(r.outputPath, data); err != nil {
		r.metrics.RecordError("write", "audio")
		return err
	}
	r.metrics.RecordAudioBytes(len(data))
	r.logger.Debug().Int("bytes", len(data)).Msg("Audio written")
	return nil
}

// progress emits 1..100 with a fixed delay between ticks.
func (r *run) progress(ctx context.Context) error {
	var timer *time.Timer
	if r.task.interval > 0 {
		timer = time.NewTimer(r.task.interval)
		defer timer.Stop()
	}

	for i := 1; i <= progressSteps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.task.setPercent(i)
		r.emit(Event{Type: EventProgress, Percent: i})

		if timer == nil || i == progressSteps {
			continue
		}
		select {
		case <-timer.C:
			timer.Reset(r.task.interval)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *run) emit(e Event) {
	e.ConversionID = r.id
	r.out <- r.task.events.Publish(e)
}

func (t *Task) setPercent(p int) {
	t.mu.Lock()
	t.status.Percent = p
	t.mu.Unlock()
}

// complete publishes the terminal event and records the final state while
// holding the task lock.
func (t *Task) complete(e Event) Event {
	now := time.Now().UTC()
	t.mu.Lock()
	defer t.mu.Unlock()

	e = t.events.Publish(e)
	if e.Type == EventFailed {
		t.status.State = StateFailed
	} else {
		t.status.State = StateDone
	}
	t.status.Reason = e.Reason
	t.status.FinishedAt = &now
	return e
}

func errorType(err error) string {
	switch {
	case errors.Is(err, tts.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, tts.ErrBadStatus):
		return "bad_status"
	case errors.Is(err, tts.ErrTransport):
		return "transport"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case tts.IsSynthesisError(err):
		return "synthesis"
	default:
		return "unexpected"
	}
}
