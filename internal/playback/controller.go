// Package playback keeps video playback in step with the feed's active item and turns
// double taps on a visible item into like intents.
package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/lanalbum/albumclient/internal/model"
	"github.com/lanalbum/albumclient/internal/store"
)

// Surface is the video output driven by the controller. Play starts from time zero, muted.
// Pause on an item that is not playing is harmless.
type Surface interface {
	Play(id string)
	Pause(id string)
}

// FeedSource is the part of *store.FeedStore the controller follows.
type FeedSource interface {
	Snapshot() store.FeedSnapshot
	Subscribe(fn func(store.FeedSnapshot)) (cancel func())
}

type Option func(*Controller)

// WithAfterFunc replaces the timer used by gestures.
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Controller) { c.after = f }
}

// WithLikeIntent sets the function called when a double tap lands on an item.
func WithLikeIntent(f func(id string)) Option {
	return func(c *Controller) { c.onLike = f }
}

// WithStateHook reports every gesture state change, e.g. to draw like feedback.
func WithStateHook(f func(id string, s State)) Option {
	return func(c *Controller) { c.onState = f }
}

// WithTiming overrides the tap window and the feedback duration.
func WithTiming(window, feedback time.Duration) Option {
	return func(c *Controller) {
		c.window = window
		c.feedback = feedback
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller plays the active item when it is a video and pauses every other visible video.
// It owns one Gesture per visible item.
type Controller struct {
	surface  Surface
	after    AfterFunc
	onLike   func(id string)
	onState  func(id string, s State)
	window   time.Duration
	feedback time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	synced   bool
	index    int
	activeID string
	playing  string
	gestures map[string]*Gesture
}

func NewController(surface Surface, opts ...Option) *Controller {
	c := &Controller{
		surface:  surface,
		after:    realAfterFunc,
		window:   DefaultTapWindow,
		feedback: DefaultFeedback,
		logger:   slog.Default(),
		gestures: make(map[string]*Gesture),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync recomputes playback for items with activeIndex in view. Playback is left alone
// unless the index or the id at the index changed since the last call, so a redundant
// call never restarts a video. Gestures of items no longer in items are stopped.
func (c *Controller) Sync(items []model.MediaItem, activeIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	visible := make(map[string]bool, len(items))
	for _, it := range items {
		visible[it.ID] = true
	}
	for id, g := range c.gestures {
		if !visible[id] {
			g.Stop()
			delete(c.gestures, id)
		}
	}

	activeID := ""
	if activeIndex >= 0 && activeIndex < len(items) {
		activeID = items[activeIndex].ID
	}
	if c.synced && c.index == activeIndex && c.activeID == activeID {
		return
	}
	c.synced = true
	c.index = activeIndex
	c.activeID = activeID

	play := ""
	for i, it := range items {
		if !it.IsVideo() {
			continue
		}
		if i == activeIndex {
			play = it.ID
			continue
		}
		c.surface.Pause(it.ID)
	}
	if c.playing != "" && c.playing != play && !visible[c.playing] {
		c.surface.Pause(c.playing)
	}
	if play != "" && play != c.playing {
		c.logger.Debug("starting playback", "media_id", play, "index", activeIndex)
		c.surface.Play(play)
	}
	c.playing = play
}

// Playing returns the id of the item being played, or "".
func (c *Controller) Playing() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Attach follows feed: the current state is applied immediately and every later
// transition is synced. The returned func detaches.
func (c *Controller) Attach(feed FeedSource) (detach func()) {
	snap := feed.Snapshot()
	c.Sync(snap.MediaItems, snap.ActiveIndex)
	return feed.Subscribe(func(s store.FeedSnapshot) {
		c.Sync(s.MediaItems, s.ActiveIndex)
	})
}

// Gesture returns the double-tap gesture of item id, creating it on first use.
func (c *Controller) Gesture(id string) *Gesture {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.gestures[id]; ok {
		return g
	}
	g := &Gesture{
		id:       id,
		window:   c.window,
		feedback: c.feedback,
		after:    c.after,
		onLike:   c.onLike,
		onState:  c.onState,
	}
	c.gestures[id] = g
	return g
}

// Close stops every gesture timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, g := range c.gestures {
		g.Stop()
		delete(c.gestures, id)
	}
}
