// Package session wires the push-to-talk gesture to recording, the
// transcription pipeline and text insertion, and reports what happens as a
// stream of events.
package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"voiceink/audio"
	"voiceink/beep"
	"voiceink/config"
	"voiceink/history"
	"voiceink/hotkey"
	"voiceink/log"
	"voiceink/pipeline"
	"voiceink/recorder"
)

// Inserter places text with the insertion settings of the session that
// produced it, not whatever is configured when the pipeline finishes.
type Inserter interface {
	Insert(text string, settings config.GeneralConfig) error
}

type History interface {
	Add(e history.Entry) error
	Prune(maxDays int) (int64, error)
}

type Notifier interface {
	Notify(message string) error
}

type Cues interface {
	Play(c beep.Cue)
}

// Deps are the controller's collaborators. Only Audio, Config and
// NewPipeline are required.
type Deps struct {
	Audio  audio.Context
	Device *audio.DeviceInfo
	// Config returns the current snapshot. It is read once per session.
	Config func() config.Config
	// NewPipeline builds the pipeline for one session's configuration.
	NewPipeline func(cfg config.Config) (*pipeline.Pipeline, error)

	Inserter Inserter
	History  History
	Notifier Notifier
	Cues     Cues
	// Waveform, when set, observes every captured frame.
	Waveform *audio.Waveform
	// Settled, when set, is called once a gesture has no work left: after
	// a tap, a cancelled recording, or when its pipeline has finished or
	// been discarded. id is empty for taps.
	Settled func(id string)
}

type active struct {
	id      string
	seq     uint64
	cfg     config.Config
	started time.Time
	rec     *recorder.Session
	done    chan struct{}
}

// Controller runs at most one recording at a time. Pipelines of finished
// sessions run concurrently and never block the next gesture.
type Controller struct {
	deps    Deps
	gesture *hotkey.Gesture
	events  chan Event

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	current *active
	latest  uint64

	workers   sync.WaitGroup
	runMu     sync.Mutex
	running   bool
	closed    bool
	runDone   chan struct{}
	closeOnce sync.Once
}

const eventBuffer = 64

func New(deps Deps, opts ...hotkey.GestureOption) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		deps:    deps,
		events:  make(chan Event, eventBuffer),
		ctx:     ctx,
		cancel:  cancel,
		runDone: make(chan struct{}),
	}
	c.gesture = hotkey.NewGesture(func() time.Duration {
		return deps.Config().Timing().TriggerPress
	}, opts...)
	return c
}

// Events is the single-consumer event stream. It is closed by Close.
func (c *Controller) Events() <-chan Event { return c.events }

// Gesture exposes the state machine so callers can feed it directly.
func (c *Controller) Gesture() *hotkey.Gesture { return c.gesture }

// Run consumes gestures until ctx is done or Close is called. hk may be nil
// when the caller drives Gesture() itself.
func (c *Controller) Run(ctx context.Context, hk hotkey.Hotkey) {
	c.runMu.Lock()
	if c.running || c.closed {
		c.runMu.Unlock()
		return
	}
	c.running = true
	c.runMu.Unlock()
	defer close(c.runDone)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.ctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	if hk != nil {
		go c.gesture.Run(ctx, hk)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.gesture.Events():
			c.handle(ev)
		}
	}
}

func (c *Controller) handle(ev hotkey.Event) {
	switch ev.Kind {
	case hotkey.SessionStart:
		c.start()
	case hotkey.SessionEnd:
		c.stop(ev.Held)
	case hotkey.TapIgnored:
		log.Infof("tap ignored (held %s)", ev.Held)
		c.status("", msgTapIgnored, LevelInfo)
		c.settled("")
	}
}

func (c *Controller) start() {
	cfg := c.deps.Config()
	a := &active{
		id:      uuid.NewString()[:8],
		cfg:     cfg,
		started: time.Now(),
		done:    make(chan struct{}),
	}

	c.mu.Lock()
	prev := c.current
	c.latest++
	a.seq = c.latest
	c.current = a
	c.mu.Unlock()

	if prev != nil {
		// Gestures alternate, so this only happens if an end was lost.
		log.Warnf("session %s replaced while still recording", prev.id)
		c.finish(prev, 0)
	}

	log.Session(a.id, "recording_started", 0)
	c.emit(RecordingStarted{ID: a.id, At: a.started})
	c.play(beep.Start)

	observers := []audio.Observer{&levelObserver{c: c}}
	if c.deps.Waveform != nil {
		c.deps.Waveform.Reset()
		observers = append(observers, c.deps.Waveform)
	}
	rec, err := recorder.Start(c.deps.Audio, streamConfig(cfg, c.deps.Device), cfg.Timing(), observers...)
	if err != nil {
		log.Errorf("session %s: %v", a.id, err)
		c.play(beep.Error)
		c.status(a.id, describe(err), LevelError)
		return
	}
	a.rec = rec
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		c.watchTruncation(a)
	}()
}

func streamConfig(cfg config.Config, dev *audio.DeviceInfo) audio.StreamConfig {
	return audio.StreamConfig{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		FrameSize:  cfg.Audio.FrameSize,
		QueueSize:  cfg.Audio.QueueSize,
		Device:     dev,
	}
}

func (c *Controller) watchTruncation(a *active) {
	select {
	case <-a.rec.Truncated():
		log.Session(a.id, "max_record_time_reached", a.cfg.Timing().MaxRecord)
		c.status(a.id, msgTruncated(a.cfg.Timing().MaxRecord), LevelWarn)
	case <-a.done:
	}
}

func (c *Controller) stop(held time.Duration) {
	c.mu.Lock()
	a := c.current
	c.current = nil
	c.mu.Unlock()

	if a == nil {
		return
	}
	c.finish(a, held)
}

// finish stops the recording and hands the buffer to a pipeline worker.
func (c *Controller) finish(a *active, held time.Duration) {
	defer close(a.done)

	if a.rec == nil {
		c.emit(RecordingEnded{ID: a.id, Held: held, Cancelled: true})
		c.settled(a.id)
		return
	}

	out := a.rec.Stop(held)
	c.play(beep.End)
	if n := a.rec.Dropped(); n > 0 {
		log.Warnf("session %s: dropped %d frames", a.id, n)
	}
	log.Session(a.id, "recording_stopped", held)

	cancelled := out.Buffer == nil
	c.emit(RecordingEnded{ID: a.id, Held: held, Cancelled: cancelled, Truncated: out.Truncated})

	switch {
	case out.TooShort:
		log.Session(a.id, "too_short", held)
		c.status(a.id, msgTooShort(a.cfg.Timing().MinPress), LevelInfo)
		c.settled(a.id)
	case out.Empty:
		c.status(a.id, msgNoAudio, LevelWarn)
		c.settled(a.id)
	default:
		c.status(a.id, msgTranscribing, LevelInfo)
		c.workers.Add(1)
		go func() {
			defer c.workers.Done()
			c.process(a, out.Buffer)
		}()
	}
}

// superseded reports whether a newer session started after a.
func (c *Controller) superseded(a *active) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest != a.seq
}

func (c *Controller) process(a *active, buf *audio.Buffer) {
	defer c.settled(a.id)

	p, err := c.deps.NewPipeline(a.cfg)
	if err != nil {
		log.Errorf("session %s: building pipeline: %v", a.id, err)
		c.status(a.id, describe(err), LevelError)
		return
	}

	res, err := p.Run(c.ctx, buf)
	if c.ctx.Err() != nil {
		return
	}
	if c.superseded(a) {
		log.Warnf("session %s: discarding result that arrived after a newer session started (err=%v)", a.id, err)
		return
	}

	switch {
	case errors.Is(err, pipeline.ErrNoSpeech):
		log.Session(a.id, "no_speech", buf.Duration())
		c.status(a.id, msgNoSpeech, LevelWarn)
		return
	case err != nil:
		log.Errorf("session %s: %v", a.id, err)
		c.play(beep.Error)
		c.status(a.id, describe(err), LevelError)
		return
	}

	if res.Warning != nil {
		log.Warnf("session %s: %v", a.id, res.Warning)
		c.status(a.id, describe(res.Warning), LevelWarn)
	}

	text := res.Text()
	log.TranscriptionText(text)
	log.PipelineMetrics(a.id, a.cfg.Transcription.Provider, a.cfg.Transcription.Format, res.PostProcessed != "", res.Metrics)

	if c.deps.Inserter != nil {
		if err := c.deps.Inserter.Insert(text, a.cfg.General); err != nil {
			log.Errorf("session %s: insert: %v", a.id, err)
			c.status(a.id, "文本插入失败: "+err.Error(), LevelError)
		}
	}
	c.record(a, text, buf.Duration())

	c.emit(TranscriptionCompleted{ID: a.id, Text: text, Timestamp: time.Now(), Warning: res.Warning})
	if a.cfg.General.InsertMethod == "none" {
		c.status(a.id, msgCopied, LevelInfo)
	} else {
		c.status(a.id, msgInserted, LevelInfo)
	}
}

func (c *Controller) record(a *active, text string, dur time.Duration) {
	if c.deps.History == nil || !a.cfg.History.Enabled {
		return
	}
	err := c.deps.History.Add(history.Entry{
		ID:        a.id,
		Text:      text,
		Timestamp: time.Now(),
		Duration:  dur,
		Provider:  a.cfg.Transcription.Provider,
	})
	if err != nil {
		log.Warnf("session %s: history: %v", a.id, err)
		return
	}
	if n, err := c.deps.History.Prune(a.cfg.History.MaxDays); err != nil {
		log.Warnf("history prune: %v", err)
	} else if n > 0 {
		log.Infof("history: pruned %d entries", n)
	}
}

func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.ctx.Done():
	}
}

func (c *Controller) status(id, text string, level Level) {
	c.emit(StatusMessage{ID: id, Text: text, Level: level})
	if c.deps.Notifier != nil && level > LevelInfo {
		if err := c.deps.Notifier.Notify(text); err != nil {
			log.Warnf("notify: %v", err)
		}
	}
}

func (c *Controller) settled(id string) {
	if c.deps.Settled != nil {
		c.deps.Settled(id)
	}
}

func (c *Controller) play(cue beep.Cue) {
	if c.deps.Cues != nil {
		c.deps.Cues.Play(cue)
	}
}

// levelObserver forwards input levels as AudioLevel events, at most every
// levelInterval. It runs on the capture goroutine and never blocks.
type levelObserver struct {
	c    *Controller
	last time.Time
}

const (
	levelInterval = 50 * time.Millisecond
	levelGain     = 4
)

func (o *levelObserver) Observe(f audio.Frame) {
	now := time.Now()
	if now.Sub(o.last) < levelInterval {
		return
	}
	o.last = now
	// Speech rarely exceeds a quarter of full scale; stretch it for meters.
	level := math.Min(f.RMS()*levelGain, 1)
	select {
	case o.c.events <- AudioLevel{Level: level}:
	default:
	}
}

// Close stops gesture handling, discards any recording in progress and
// abandons running pipelines. The event channel is closed once every
// producer has exited.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.gesture.Close()
		c.runMu.Lock()
		c.closed = true
		running := c.running
		c.runMu.Unlock()
		if running {
			<-c.runDone
		}

		c.mu.Lock()
		a := c.current
		c.current = nil
		c.mu.Unlock()
		if a != nil && a.rec != nil {
			a.rec.Stop(0)
			close(a.done)
		}

		c.workers.Wait()
		close(c.events)
	})
}
