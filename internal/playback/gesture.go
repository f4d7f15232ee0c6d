package playback

import (
	"sync"
	"time"
)

// State is the phase of a double-tap gesture.
type State int

const (
	Idle State = iota
	Armed
	LikeFeedback
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case LikeFeedback:
		return "like-feedback"
	}
	return "unknown"
}

const (
	DefaultTapWindow = 300 * time.Millisecond
	DefaultFeedback  = 1000 * time.Millisecond
)

// Timer is the part of *time.Timer the gesture needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. The default wraps time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Gesture is the double-tap-to-like state machine of one visible item. Two taps inside the
// tap window fire a single like intent and show feedback for a fixed time.
type Gesture struct {
	id       string
	window   time.Duration
	feedback time.Duration
	after    AfterFunc
	onLike   func(id string)
	onState  func(id string, s State)

	mu    sync.Mutex
	state State
	timer Timer
	gen   uint64 // bumped whenever timer is replaced so late fires are ignored
}

// ID returns the item the gesture belongs to.
func (g *Gesture) ID() string { return g.id }

func (g *Gesture) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Tap feeds one tap into the state machine.
func (g *Gesture) Tap() {
	g.mu.Lock()
	var like bool
	switch g.state {
	case Armed:
		g.setLocked(LikeFeedback, g.feedback)
		like = true
	default:
		// a tap during feedback starts a new gesture
		g.setLocked(Armed, g.window)
	}
	state := g.state
	g.mu.Unlock()

	g.notify(state)
	if like && g.onLike != nil {
		g.onLike(g.id)
	}
}

// Stop cancels any pending timer and returns the gesture to Idle.
func (g *Gesture) Stop() {
	g.mu.Lock()
	changed := g.state != Idle
	g.stopTimerLocked()
	g.state = Idle
	g.mu.Unlock()
	if changed {
		g.notify(Idle)
	}
}

// setLocked enters s and schedules the return to Idle after d.
func (g *Gesture) setLocked(s State, d time.Duration) {
	g.stopTimerLocked()
	g.state = s
	gen := g.gen
	g.timer = g.after(d, func() { g.expire(gen) })
}

func (g *Gesture) stopTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.gen++
}

func (g *Gesture) expire(gen uint64) {
	g.mu.Lock()
	if gen != g.gen {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	g.state = Idle
	g.mu.Unlock()
	g.notify(Idle)
}

func (g *Gesture) notify(s State) {
	if g.onState != nil {
		g.onState(g.id, s)
	}
}
