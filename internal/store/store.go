// Package store holds the client-side state containers: the media feed, the tag search
// and the folder browser. Each store is an explicit value built around a Gateway; state is
// read through Snapshot and changed only through the store's own operations.
//
// Every state transition happens inside one critical section and no lock is held while a
// gateway call is in flight. Mutations are commit-on-success: local state changes only
// after the backend confirms. Overlapping requests are not deduplicated; the last
// response to arrive wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lanalbum/albumclient/internal/event"
	"github.com/lanalbum/albumclient/internal/metrics"
	"github.com/lanalbum/albumclient/internal/storage"
)

// Sections written to the persistence port, one per store.
const (
	feedKey    = "feed"
	searchKey  = "search"
	browserKey = "browser"
)

const saveTimeout = 2 * time.Second

// Option configures a store.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	prefs     storage.Store
	publisher event.Publisher
	metrics   *metrics.Metrics
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPersistence saves preferences and the last confirmed view to s after confirmed
// transitions, so Restore can show them before the backend answers.
func WithPersistence(s storage.Store) Option {
	return func(o *options) { o.prefs = s }
}

// WithPublisher announces confirmed mutations through p.
func WithPublisher(p event.Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:    slog.Default(),
		publisher: event.NewNoop(),
		metrics:   metrics.NewMetrics(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) record(store, op string, err error) {
	o.metrics.StoreTransitionTotal.WithLabelValues(store, op, metrics.Outcome(err)).Inc()
}

// save writes v under key. Failures are logged and never surface to the caller.
func (o options) save(key string, v any) {
	if o.prefs == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		o.logger.Error("failed to encode preferences", "key", key, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := o.prefs.Put(ctx, key, b); err != nil {
		o.logger.Error("failed to save preferences", "key", key, "error", err)
	}
}

// load reads key into v. It reports false when nothing usable is stored.
func (o options) load(ctx context.Context, key string, v any) bool {
	if o.prefs == nil {
		return false
	}
	b, err := o.prefs.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		o.logger.Error("failed to load preferences", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		o.logger.Warn("ignoring unreadable preferences", "key", key, "error", err)
		return false
	}
	return true
}

// listeners fans snapshots out to subscribers. Deliveries are serialised so a subscriber
// never sees an older snapshot after a newer one. Subscribers must not call mutating
// operations of the same store synchronously.
type listeners[T any] struct {
	mu      sync.Mutex
	deliver sync.Mutex
	next    int
	fns     map[int]func(T)
}

func (l *listeners[T]) add(fn func(T)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

// notify takes a fresh snapshot and hands it to every subscriber, outside the state lock.
func (l *listeners[T]) notify(snapshot func() T) {
	l.deliver.Lock()
	defer l.deliver.Unlock()

	l.mu.Lock()
	if len(l.fns) == 0 {
		l.mu.Unlock()
		return
	}
	fns := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot())
	}
}
