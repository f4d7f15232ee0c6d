package store

import (
	"context"
	"testing"

	"github.com/lanalbum/albumclient/internal/errors"
	"github.com/lanalbum/albumclient/internal/model"
	"github.com/lanalbum/albumclient/internal/storage"
)

func newTags(t *testing.T, opts ...Option) (*TagStore, *stubGateway) {
	t.Helper()
	gw := newStub()
	return NewTagStore(gw, append([]Option{WithLogger(quietLogger())}, opts...)...), gw
}

func TestFetchTags(t *testing.T) {
	ctx := context.Background()
	s, gw := newTags(t)
	if err := s.FetchTags(ctx); err != nil {
		t.Fatalf("FetchTags() error = %v", err)
	}
	if n := len(s.Snapshot().AllTags); n != 10 {
		t.Fatalf("len(AllTags) = %d, want 10", n)
	}

	gw.failOn("ListTags")
	if err := s.FetchTags(ctx); err == nil {
		t.Fatal("FetchTags() error = nil, want failure")
	}
	snap := s.Snapshot()
	if len(snap.AllTags) != 10 {
		t.Errorf("len(AllTags) after failure = %d, want 10", len(snap.AllTags))
	}
	if snap.LastError != "Failed to load tags" || snap.IsFetching {
		t.Errorf("after failure LastError = %q, IsFetching = %v", snap.LastError, snap.IsFetching)
	}
}

func TestTagSelection(t *testing.T) {
	s, _ := newTags(t)
	nature := model.Tag{ID: "tag1", Name: "Nature"}
	travel := model.Tag{ID: "tag2", Name: "Travel"}

	s.AddTag(travel)
	s.AddTag(nature)
	s.AddTag(travel)
	if got := s.SelectedTagIDs(); !equal(got, []string{"tag2", "tag1"}) {
		t.Errorf("SelectedTagIDs() = %v, want [tag2 tag1]", got)
	}

	s.RemoveTag("tag2")
	if got := s.SelectedTagIDs(); !equal(got, []string{"tag1"}) {
		t.Errorf("SelectedTagIDs() after remove = %v, want [tag1]", got)
	}

	s.RemoveTag("missing")
	s.ClearTags()
	if got := s.SelectedTagIDs(); len(got) != 0 {
		t.Errorf("SelectedTagIDs() after clear = %v, want empty", got)
	}
}

func TestCreateTag(t *testing.T) {
	ctx := context.Background()
	s, gw := newTags(t)

	for _, name := range []string{"", "   "} {
		tag, err := s.CreateTag(ctx, name)
		if tag != nil || !errors.IsValidation(err) {
			t.Errorf("CreateTag(%q) = %v, %v, want nil and validation error", name, tag, err)
		}
	}
	if n := gw.count("CreateTag"); n != 0 {
		t.Errorf("CreateTag calls = %d, want 0", n)
	}

	tag, err := s.CreateTag(ctx, "  Sunsets ")
	if err != nil || tag == nil {
		t.Fatalf("CreateTag() = %v, %v", tag, err)
	}
	if tag.Name != "Sunsets" {
		t.Errorf("CreateTag().Name = %q, want Sunsets", tag.Name)
	}
	snap := s.Snapshot()
	if len(snap.AllTags) != 1 || snap.AllTags[0].ID != tag.ID {
		t.Errorf("AllTags = %v, want the new tag appended", snap.AllTags)
	}
	if len(snap.SelectedTags) != 0 {
		t.Errorf("SelectedTags = %v, want the new tag left unselected", snap.SelectedTags)
	}

	// same name comes back as the same tag
	again, err := s.CreateTag(ctx, "Sunsets")
	if err != nil || again.ID != tag.ID {
		t.Fatalf("CreateTag(existing) = %v, %v", again, err)
	}
	if n := len(s.Snapshot().AllTags); n != 1 {
		t.Errorf("len(AllTags) = %d, want 1", n)
	}

	gw.failOn("CreateTag")
	if tag, err := s.CreateTag(ctx, "Rain"); tag != nil || err == nil {
		t.Errorf("CreateTag() on failure = %v, %v, want nil and error", tag, err)
	}
}

func TestCreateTagPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	s, _ := newTags(t, WithPublisher(pub))
	tag, err := s.CreateTag(context.Background(), "Snow")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	if len(pub.tags) != 1 || pub.tags[0] != *tag {
		t.Errorf("published tags = %v, want [%v]", pub.tags, *tag)
	}
}

func TestTagRestore(t *testing.T) {
	prefs := storage.NewMemory()
	s, _ := newTags(t, WithPersistence(prefs))
	s.AddTag(model.Tag{ID: "tag5", Name: "Pets"})
	s.AddTag(model.Tag{ID: "tag7", Name: "Friends"})

	restored, _ := newTags(t, WithPersistence(prefs))
	restored.Restore(context.Background())
	if got := restored.SelectedTagIDs(); !equal(got, []string{"tag5", "tag7"}) {
		t.Errorf("SelectedTagIDs() after Restore = %v, want [tag5 tag7]", got)
	}
}

func TestTagRestoreShowsLastTagsWhenBackendIsDown(t *testing.T) {
	ctx := context.Background()
	prefs := storage.NewMemory()
	s, _ := newTags(t, WithPersistence(prefs))
	if err := s.FetchTags(ctx); err != nil {
		t.Fatalf("FetchTags() error = %v", err)
	}
	if _, err := s.CreateTag(ctx, "Snow"); err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}

	restored, gw := newTags(t, WithPersistence(prefs))
	gw.failOn("ListTags")
	restored.Restore(ctx)
	if err := restored.FetchTags(ctx); err == nil {
		t.Fatal("FetchTags() error = nil, want failure")
	}
	snap := restored.Snapshot()
	if n := len(snap.AllTags); n != 11 {
		t.Errorf("len(AllTags) = %d, want 11", n)
	}
	if snap.LastError != "Failed to load tags" {
		t.Errorf("LastError = %q", snap.LastError)
	}
}
