package store

import (
	"context"
	"slices"
	"sync"
)

// FollowSelection keeps feed's search results in step with the tag selection. Whenever the
// set of selected tag ids changes and is not empty, the feed searches for it; an emptied
// selection leaves the last results in place. The current selection is searched right away.
// Search failures are logged by the feed and otherwise ignored. The returned func stops
// following.
func FollowSelection(ctx context.Context, tags *TagStore, feed *FeedStore) (cancel func()) {
	f := &follower{ctx: ctx, feed: feed}
	stop := tags.Subscribe(func(s TagSnapshot) { f.update(s) })
	f.update(tags.Snapshot())
	return stop
}

type follower struct {
	ctx  context.Context
	feed *FeedStore

	mu   sync.Mutex
	last []string // sorted
}

func (f *follower) update(s TagSnapshot) {
	ids := make([]string, len(s.SelectedTags))
	for i, t := range s.SelectedTags {
		ids[i] = t.ID
	}
	set := slices.Clone(ids)
	slices.Sort(set)

	f.mu.Lock()
	defer f.mu.Unlock()
	if slices.Equal(set, f.last) {
		return
	}
	f.last = set
	if len(ids) == 0 {
		return
	}
	_ = f.feed.SearchMediaByTags(f.ctx, ids)
}
