package store

import (
	"context"
	"sync"

	"github.com/lanalbum/albumclient/internal/errors"
	"github.com/lanalbum/albumclient/internal/event"
	"github.com/lanalbum/albumclient/internal/gateway"
	"github.com/lanalbum/albumclient/internal/model"
)

// FeedSnapshot is a point-in-time copy of the feed state.
type FeedSnapshot struct {
	MediaItems    []model.MediaItem
	ActiveIndex   int
	SortingMode   model.SortingMode
	IsFetching    bool
	LastError     string
	SearchResults []model.MediaItem
}

// ActiveItem returns the item at ActiveIndex. The index is ignored when the feed is empty
// or the index is out of range.
func (s FeedSnapshot) ActiveItem() (model.MediaItem, bool) {
	if s.ActiveIndex < 0 || s.ActiveIndex >= len(s.MediaItems) {
		return model.MediaItem{}, false
	}
	return s.MediaItems[s.ActiveIndex], true
}

// feedSection is what the feed writes to the persistence port: the preferences plus the
// last confirmed items, so a restart against an unreachable backend still shows them.
type feedSection struct {
	SortingMode   model.SortingMode `json:"sortingMode"`
	ActiveIndex   int               `json:"activeIndex"`
	MediaItems    []model.MediaItem `json:"mediaItems"`
	SearchResults []model.MediaItem `json:"searchResults"`
}

// FeedStore owns the media feed: the ordered items for the current sorting mode, the
// active index, and a separate sequence of tag-search results.
type FeedStore struct {
	gw   gateway.Gateway
	opts options

	mu    sync.RWMutex
	state FeedSnapshot

	subs listeners[FeedSnapshot]
}

// NewFeedStore returns an empty feed sorted by recency.
func NewFeedStore(gw gateway.Gateway, opts ...Option) *FeedStore {
	return &FeedStore{
		gw:   gw,
		opts: newOptions(opts),
		state: FeedSnapshot{
			MediaItems:    []model.MediaItem{},
			SortingMode:   model.SortRecent,
			SearchResults: []model.MediaItem{},
		},
	}
}

// Snapshot returns a deep copy of the current state.
func (s *FeedStore) Snapshot() FeedSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.state
	c.MediaItems = model.CloneItems(s.state.MediaItems)
	c.SearchResults = model.CloneItems(s.state.SearchResults)
	return c
}

// Subscribe registers fn to receive a snapshot after every transition.
func (s *FeedStore) Subscribe(fn func(FeedSnapshot)) (cancel func()) {
	return s.subs.add(fn)
}

// transition applies fn to the state in one critical section and notifies subscribers.
func (s *FeedStore) transition(fn func(st *FeedSnapshot)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.subs.notify(s.Snapshot)
}

// Restore loads the persisted sorting mode, active index and the last confirmed items.
// It does not contact the backend.
func (s *FeedStore) Restore(ctx context.Context) {
	var p feedSection
	if !s.opts.load(ctx, feedKey, &p) || !p.SortingMode.Valid() {
		return
	}
	s.transition(func(st *FeedSnapshot) {
		st.SortingMode = p.SortingMode
		st.ActiveIndex = p.ActiveIndex
		if p.MediaItems != nil {
			st.MediaItems = p.MediaItems
		}
		if p.SearchResults != nil {
			st.SearchResults = p.SearchResults
		}
	})
}

// Flush saves the current state now. SetActiveIndex does not save on its own, so callers
// that need the index to survive call Flush before shutting down.
func (s *FeedStore) Flush() {
	s.persist()
}

func (s *FeedStore) persist() {
	s.mu.RLock()
	p := feedSection{
		SortingMode:   s.state.SortingMode,
		ActiveIndex:   s.state.ActiveIndex,
		MediaItems:    model.CloneItems(s.state.MediaItems),
		SearchResults: model.CloneItems(s.state.SearchResults),
	}
	s.mu.RUnlock()
	s.opts.save(feedKey, p)
}

// FetchMediaItems reloads the feed for the current sorting mode. On failure the previous
// items are kept and the message is recorded in LastError.
func (s *FeedStore) FetchMediaItems(ctx context.Context) error {
	var mode model.SortingMode
	s.transition(func(st *FeedSnapshot) {
		st.IsFetching = true
		st.LastError = ""
		mode = st.SortingMode
	})

	items, err := s.gw.ListMedia(ctx, mode)
	s.opts.record("feed", "fetch", err)
	if err != nil {
		s.opts.logger.Error("failed to fetch media items", "sorting_mode", mode, "error", err)
		s.transition(func(st *FeedSnapshot) {
			st.IsFetching = false
			st.LastError = failureMessage(err, "Failed to load media")
		})
		return err
	}

	s.transition(func(st *FeedSnapshot) {
		st.MediaItems = model.CloneItems(items)
		st.IsFetching = false
	})
	s.persist()
	return nil
}

// SetSortingMode changes the mode used by the next FetchMediaItems. It does not fetch.
func (s *FeedStore) SetSortingMode(mode model.SortingMode) error {
	if !mode.Valid() {
		return errors.Validation("unknown sorting mode %q", mode)
	}
	s.transition(func(st *FeedSnapshot) { st.SortingMode = mode })
	s.persist()
	return nil
}

// SetActiveIndex records the item in view. The index is not clamped. It is a pure state
// update and is written out with the next saved transition or Flush.
func (s *FeedStore) SetActiveIndex(i int) {
	s.transition(func(st *FeedSnapshot) { st.ActiveIndex = i })
}

// ClearError clears LastError and nothing else.
func (s *FeedStore) ClearError() {
	s.transition(func(st *FeedSnapshot) { st.LastError = "" })
}

// lookup finds id in the feed, then in the search results.
func (s *FeedStore) lookup(id string) (model.MediaItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, seq := range [][]model.MediaItem{s.state.MediaItems, s.state.SearchResults} {
		for _, it := range seq {
			if it.ID == id {
				return it.Clone(), true
			}
		}
	}
	return model.MediaItem{}, false
}

// updateItem rewrites every copy of id in both sequences within one transition.
func (s *FeedStore) updateItem(id string, fn func(model.MediaItem) model.MediaItem) {
	s.transition(func(st *FeedSnapshot) {
		for i := range st.MediaItems {
			if st.MediaItems[i].ID == id {
				st.MediaItems[i] = fn(st.MediaItems[i])
			}
		}
		for i := range st.SearchResults {
			if st.SearchResults[i].ID == id {
				st.SearchResults[i] = fn(st.SearchResults[i])
			}
		}
	})
}

// ToggleLike flips the liked flag of id once the backend accepts the new value. LikeCount
// is left alone; the next full fetch brings the server's count. An unknown id is a no-op.
// Failures are logged, returned, and never recorded in LastError.
func (s *FeedStore) ToggleLike(ctx context.Context, id string) error {
	item, ok := s.lookup(id)
	if !ok {
		return nil
	}
	liked := !item.Liked
	_, err := s.gw.SetLiked(ctx, id, liked)
	s.opts.record("feed", "toggle_like", err)
	if err != nil {
		s.opts.logger.Error("failed to toggle like", "media_id", id, "error", err)
		return err
	}
	s.updateItem(id, func(it model.MediaItem) model.MediaItem {
		it.Liked = liked
		return it
	})
	s.persist()

	action := event.ActionUnliked
	if liked {
		action = event.ActionLiked
	}
	s.publish(ctx, event.MediaChange{Action: action, MediaID: id})
	return nil
}

// ToggleFavorite is ToggleLike for the favorited flag.
func (s *FeedStore) ToggleFavorite(ctx context.Context, id string) error {
	item, ok := s.lookup(id)
	if !ok {
		return nil
	}
	favorited := !item.Favorited
	_, err := s.gw.SetFavorited(ctx, id, favorited)
	s.opts.record("feed", "toggle_favorite", err)
	if err != nil {
		s.opts.logger.Error("failed to toggle favorite", "media_id", id, "error", err)
		return err
	}
	s.updateItem(id, func(it model.MediaItem) model.MediaItem {
		it.Favorited = favorited
		return it
	})
	s.persist()

	action := event.ActionUnfavorited
	if favorited {
		action = event.ActionFavorited
	}
	s.publish(ctx, event.MediaChange{Action: action, MediaID: id})
	return nil
}

// DeleteMedia removes id from both sequences after the backend deletes it. A failure is
// returned to the caller and not stored.
func (s *FeedStore) DeleteMedia(ctx context.Context, id string) error {
	err := s.gw.DeleteMedia(ctx, id)
	s.opts.record("feed", "delete", err)
	if err != nil {
		s.opts.logger.Error("failed to delete media", "media_id", id, "error", err)
		return err
	}
	s.transition(func(st *FeedSnapshot) {
		st.MediaItems = withoutID(st.MediaItems, id)
		st.SearchResults = withoutID(st.SearchResults, id)
	})
	s.persist()
	s.publish(ctx, event.MediaChange{Action: event.ActionDeleted, MediaID: id})
	return nil
}

// AddTagToMedia attaches tag to id. When the cached item already carries the tag the
// call is a no-op and the backend is not contacted.
func (s *FeedStore) AddTagToMedia(ctx context.Context, id string, tag model.Tag) error {
	if item, ok := s.lookup(id); ok && item.HasTag(tag.ID) {
		return nil
	}
	_, err := s.gw.AddTag(ctx, id, tag.ID)
	s.opts.record("feed", "add_tag", err)
	if err != nil {
		s.opts.logger.Error("failed to add tag to media", "media_id", id, "tag_id", tag.ID, "error", err)
		return err
	}
	s.updateItem(id, func(it model.MediaItem) model.MediaItem { return it.WithTag(tag) })
	s.persist()
	s.publish(ctx, event.MediaChange{Action: event.ActionTagged, MediaID: id, TagID: tag.ID})
	return nil
}

// RemoveTagFromMedia detaches tagID from id. Removing a tag the cached item does not
// carry is a no-op.
func (s *FeedStore) RemoveTagFromMedia(ctx context.Context, id, tagID string) error {
	if item, ok := s.lookup(id); ok && !item.HasTag(tagID) {
		return nil
	}
	_, err := s.gw.RemoveTag(ctx, id, tagID)
	s.opts.record("feed", "remove_tag", err)
	if err != nil {
		s.opts.logger.Error("failed to remove tag from media", "media_id", id, "tag_id", tagID, "error", err)
		return err
	}
	s.updateItem(id, func(it model.MediaItem) model.MediaItem { return it.WithoutTag(tagID) })
	s.persist()
	s.publish(ctx, event.MediaChange{Action: event.ActionUntagged, MediaID: id, TagID: tagID})
	return nil
}

// SearchMediaByTags replaces SearchResults with the items carrying every tag in tagIDs.
// Search is a secondary track: failures are logged and returned but leave LastError and
// the previous results alone.
func (s *FeedStore) SearchMediaByTags(ctx context.Context, tagIDs []string) error {
	items, err := s.gw.SearchMediaByTags(ctx, tagIDs)
	s.opts.record("feed", "search", err)
	if err != nil {
		s.opts.logger.Error("failed to search media by tags", "tag_ids", tagIDs, "error", err)
		return err
	}
	s.transition(func(st *FeedSnapshot) { st.SearchResults = model.CloneItems(items) })
	s.persist()
	return nil
}

func (s *FeedStore) publish(ctx context.Context, change event.MediaChange) {
	if err := s.opts.publisher.PublishMediaChanged(ctx, change); err != nil {
		s.opts.logger.Warn("failed to publish media change", "action", change.Action, "media_id", change.MediaID, "error", err)
	}
}

// failureMessage prefers the error's own message and falls back to generic.
func failureMessage(err error, generic string) string {
	if msg := errors.MessageOf(err); msg != "" {
		return msg
	}
	return generic
}

func withoutID(items []model.MediaItem, id string) []model.MediaItem {
	out := make([]model.MediaItem, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
