package store

import (
	"context"
	"strings"
	"sync"

	"github.com/lanalbum/albumclient/internal/errors"
	"github.com/lanalbum/albumclient/internal/gateway"
	"github.com/lanalbum/albumclient/internal/model"
)

const loadTagsFailed = "Failed to load tags"

// TagSnapshot is a point-in-time copy of the tag search state.
type TagSnapshot struct {
	AllTags      []model.Tag
	SelectedTags []model.Tag // in selection order
	IsFetching   bool
	LastError    string
}

// tagSection is the persisted selection plus the last confirmed tag list.
type tagSection struct {
	SelectedTags []model.Tag `json:"selectedTags"`
	AllTags      []model.Tag `json:"allTags"`
}

// TagStore holds the known tags and the user's tag selection for search.
type TagStore struct {
	gw   gateway.Gateway
	opts options

	mu    sync.RWMutex
	state TagSnapshot

	subs listeners[TagSnapshot]
}

func NewTagStore(gw gateway.Gateway, opts ...Option) *TagStore {
	return &TagStore{
		gw:   gw,
		opts: newOptions(opts),
		state: TagSnapshot{
			AllTags:      []model.Tag{},
			SelectedTags: []model.Tag{},
		},
	}
}

func (s *TagStore) Snapshot() TagSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.state
	c.AllTags = append([]model.Tag{}, s.state.AllTags...)
	c.SelectedTags = append([]model.Tag{}, s.state.SelectedTags...)
	return c
}

func (s *TagStore) Subscribe(fn func(TagSnapshot)) (cancel func()) {
	return s.subs.add(fn)
}

func (s *TagStore) transition(fn func(st *TagSnapshot)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.subs.notify(s.Snapshot)
}

// SelectedTagIDs returns the ids of the selected tags in selection order.
func (s *TagStore) SelectedTagIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.state.SelectedTags))
	for i, t := range s.state.SelectedTags {
		ids[i] = t.ID
	}
	return ids
}

// Restore loads the persisted selection and tag list without contacting the backend.
func (s *TagStore) Restore(ctx context.Context) {
	var p tagSection
	if !s.opts.load(ctx, searchKey, &p) {
		return
	}
	s.transition(func(st *TagSnapshot) {
		st.SelectedTags = st.SelectedTags[:0]
		for _, t := range p.SelectedTags {
			if !containsTag(st.SelectedTags, t.ID) {
				st.SelectedTags = append(st.SelectedTags, t)
			}
		}
		if p.AllTags != nil {
			st.AllTags = p.AllTags
		}
	})
}

func (s *TagStore) persist() {
	s.mu.RLock()
	p := tagSection{
		SelectedTags: append([]model.Tag{}, s.state.SelectedTags...),
		AllTags:      append([]model.Tag{}, s.state.AllTags...),
	}
	s.mu.RUnlock()
	s.opts.save(searchKey, p)
}

// FetchTags replaces the known tags. On failure the previous tags are kept.
func (s *TagStore) FetchTags(ctx context.Context) error {
	s.transition(func(st *TagSnapshot) {
		st.IsFetching = true
		st.LastError = ""
	})

	tags, err := s.gw.ListTags(ctx)
	s.opts.record("tags", "fetch", err)
	if err != nil {
		s.opts.logger.Error("failed to fetch tags", "error", err)
		s.transition(func(st *TagSnapshot) {
			st.IsFetching = false
			st.LastError = loadTagsFailed
		})
		return err
	}

	s.transition(func(st *TagSnapshot) {
		st.AllTags = append([]model.Tag{}, tags...)
		st.IsFetching = false
	})
	s.persist()
	return nil
}

// AddTag selects tag. Selecting an already selected tag does nothing.
func (s *TagStore) AddTag(tag model.Tag) {
	changed := false
	s.transition(func(st *TagSnapshot) {
		if containsTag(st.SelectedTags, tag.ID) {
			return
		}
		st.SelectedTags = append(st.SelectedTags, tag)
		changed = true
	})
	if changed {
		s.persist()
	}
}

// RemoveTag deselects the tag with the given id.
func (s *TagStore) RemoveTag(id string) {
	s.transition(func(st *TagSnapshot) {
		kept := st.SelectedTags[:0]
		for _, t := range st.SelectedTags {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		st.SelectedTags = kept
	})
	s.persist()
}

func (s *TagStore) ClearTags() {
	s.transition(func(st *TagSnapshot) { st.SelectedTags = []model.Tag{} })
	s.persist()
}

// CreateTag creates a tag named name and appends it to AllTags. It never selects the new
// tag. A blank name is rejected without contacting the backend. On any failure the
// returned tag is nil.
func (s *TagStore) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("tag name must not be empty")
	}

	tag, err := s.gw.CreateTag(ctx, name)
	s.opts.record("tags", "create", err)
	if err != nil {
		s.opts.logger.Error("failed to create tag", "name", name, "error", err)
		return nil, err
	}

	s.transition(func(st *TagSnapshot) {
		if !containsTag(st.AllTags, tag.ID) {
			st.AllTags = append(st.AllTags, tag)
		}
	})
	s.persist()
	if err := s.opts.publisher.PublishTagCreated(ctx, tag); err != nil {
		s.opts.logger.Warn("failed to publish tag created", "tag_id", tag.ID, "error", err)
	}
	return &tag, nil
}

func containsTag(tags []model.Tag, id string) bool {
	for _, t := range tags {
		if t.ID == id {
			return true
		}
	}
	return false
}
