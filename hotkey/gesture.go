package hotkey

import (
	"context"
	"sync"
	"time"
)

type State int

const (
	Idle State = iota
	Armed
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Recording:
		return "recording"
	}
	return "unknown"
}

type EventKind int

const (
	// SessionStart: the key was held past the trigger delay.
	SessionStart EventKind = iota
	// SessionEnd: the key was released while recording.
	SessionEnd
	// TapIgnored: the key was released before the trigger delay.
	TapIgnored
)

func (k EventKind) String() string {
	switch k {
	case SessionStart:
		return "session_start"
	case SessionEnd:
		return "session_end"
	case TapIgnored:
		return "tap_ignored"
	}
	return "unknown"
}

// Event is a semantic gesture event. Held is measured from key-down
// (the moment the gesture armed) on the monotonic clock.
type Event struct {
	Kind EventKind
	Held time.Duration
	At   time.Time
}

// Gesture is the debounce state machine Idle -> Armed -> Recording -> Idle.
//
// KeyDown and KeyUp only take a short lock and queue events; they are safe
// to call from an OS input hook. Events are delivered in order on Events()
// by a separate goroutine, so a slow consumer never blocks key handling and
// no event is dropped.
type Gesture struct {
	trigger func() time.Duration
	now     func() time.Time

	mu      sync.Mutex
	state   State
	armedAt time.Time
	timer   *time.Timer
	gen     uint64
	queue   []Event

	wake   chan struct{}
	events chan Event
	done   chan struct{}
	once   sync.Once
}

type GestureOption func(*Gesture)

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) GestureOption {
	return func(g *Gesture) { g.now = now }
}

// NewGesture creates the state machine. trigger is read at every key-down,
// so configuration changes apply to the next gesture.
func NewGesture(trigger func() time.Duration, opts ...GestureOption) *Gesture {
	g := &Gesture{
		trigger: trigger,
		now:     time.Now,
		wake:    make(chan struct{}, 1),
		events:  make(chan Event, 16),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(g)
	}
	go g.pump()
	return g
}

func (g *Gesture) Events() <-chan Event { return g.events }

func (g *Gesture) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gesture) KeyDown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Idle {
		return // key repeat
	}
	g.state = Armed
	g.armedAt = g.now()
	g.gen++

	d := g.trigger()
	if d <= 0 {
		g.startLocked()
		return
	}
	gen := g.gen
	g.timer = time.AfterFunc(d, func() { g.fire(gen) })
}

func (g *Gesture) fire(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	// A stale timer from an earlier gesture that lost the race with Stop.
	if g.gen != gen || g.state != Armed {
		return
	}
	g.timer = nil
	g.startLocked()
}

func (g *Gesture) startLocked() {
	g.state = Recording
	g.postLocked(Event{Kind: SessionStart, Held: g.now().Sub(g.armedAt), At: g.now()})
}

func (g *Gesture) KeyUp() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	switch g.state {
	case Armed:
		g.cancelTimerLocked()
		g.state = Idle
		g.postLocked(Event{Kind: TapIgnored, Held: now.Sub(g.armedAt), At: now})
	case Recording:
		g.state = Idle
		g.postLocked(Event{Kind: SessionEnd, Held: now.Sub(g.armedAt), At: now})
	}
}

func (g *Gesture) cancelTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.gen++
}

func (g *Gesture) postLocked(ev Event) {
	g.queue = append(g.queue, ev)
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

func (g *Gesture) pump() {
	for {
		select {
		case <-g.done:
			return
		case <-g.wake:
		}
		g.mu.Lock()
		batch := g.queue
		g.queue = nil
		g.mu.Unlock()
		for _, ev := range batch {
			select {
			case g.events <- ev:
			case <-g.done:
				return
			}
		}
	}
}

// Run feeds hk into the state machine until ctx is done.
func (g *Gesture) Run(ctx context.Context, hk Hotkey) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Keydown():
			g.KeyDown()
		case <-hk.Keyup():
			g.KeyUp()
		}
	}
}

// Close stops event delivery and cancels any pending trigger timer.
func (g *Gesture) Close() {
	g.once.Do(func() {
		g.mu.Lock()
		g.cancelTimerLocked()
		g.state = Idle
		g.mu.Unlock()
		close(g.done)
	})
}
