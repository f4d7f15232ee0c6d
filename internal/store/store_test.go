package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/lanalbum/albumclient/internal/errors"
	"github.com/lanalbum/albumclient/internal/event"
	"github.com/lanalbum/albumclient/internal/gateway"
	"github.com/lanalbum/albumclient/internal/model"
	"github.com/lanalbum/albumclient/internal/storage"
)

// stubGateway is the seeded fixture with per-operation call counting and failure injection.
type stubGateway struct {
	*gateway.Fixture

	mu        sync.Mutex
	calls     map[string]int
	fail      map[string]error
	lastSort  model.SortingMode
	lastItems []model.MediaItem
}

func newStub() *stubGateway {
	return &stubGateway{
		Fixture: gateway.NewFixture(),
		calls:   make(map[string]int),
		fail:    make(map[string]error),
	}
}

var errBackend = errors.New(errors.ALBUM_GATEWAY, "server returned 500")

func (s *stubGateway) failOn(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = errBackend
}

func (s *stubGateway) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubGateway) hit(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.fail[op]
}

func (s *stubGateway) ListMedia(ctx context.Context, mode model.SortingMode) ([]model.MediaItem, error) {
	if err := s.hit("ListMedia"); err != nil {
		return nil, err
	}
	items, err := s.Fixture.ListMedia(ctx, mode)
	s.mu.Lock()
	s.lastSort, s.lastItems = mode, model.CloneItems(items)
	s.mu.Unlock()
	return items, err
}

func (s *stubGateway) SearchMediaByTags(ctx context.Context, tagIDs []string) ([]model.MediaItem, error) {
	if err := s.hit("SearchMediaByTags"); err != nil {
		return nil, err
	}
	return s.Fixture.SearchMediaByTags(ctx, tagIDs)
}

func (s *stubGateway) SetLiked(ctx context.Context, id string, liked bool) (model.MediaItem, error) {
	if err := s.hit("SetLiked"); err != nil {
		return model.MediaItem{}, err
	}
	return s.Fixture.SetLiked(ctx, id, liked)
}

func (s *stubGateway) SetFavorited(ctx context.Context, id string, favorited bool) (model.MediaItem, error) {
	if err := s.hit("SetFavorited"); err != nil {
		return model.MediaItem{}, err
	}
	return s.Fixture.SetFavorited(ctx, id, favorited)
}

func (s *stubGateway) DeleteMedia(ctx context.Context, id string) error {
	if err := s.hit("DeleteMedia"); err != nil {
		return err
	}
	return s.Fixture.DeleteMedia(ctx, id)
}

func (s *stubGateway) AddTag(ctx context.Context, mediaID, tagID string) (model.Ack, error) {
	if err := s.hit("AddTag"); err != nil {
		return model.Ack{}, err
	}
	return s.Fixture.AddTag(ctx, mediaID, tagID)
}

func (s *stubGateway) RemoveTag(ctx context.Context, mediaID, tagID string) (model.Ack, error) {
	if err := s.hit("RemoveTag"); err != nil {
		return model.Ack{}, err
	}
	return s.Fixture.RemoveTag(ctx, mediaID, tagID)
}

func (s *stubGateway) ListTags(ctx context.Context) ([]model.Tag, error) {
	if err := s.hit("ListTags"); err != nil {
		return nil, err
	}
	return s.Fixture.ListTags(ctx)
}

func (s *stubGateway) CreateTag(ctx context.Context, name string) (model.Tag, error) {
	if err := s.hit("CreateTag"); err != nil {
		return model.Tag{}, err
	}
	return s.Fixture.CreateTag(ctx, name)
}

func (s *stubGateway) ListRootFolders(ctx context.Context) ([]model.Folder, error) {
	if err := s.hit("ListRootFolders"); err != nil {
		return nil, err
	}
	return s.Fixture.ListRootFolders(ctx)
}

func (s *stubGateway) ListSubfolders(ctx context.Context, id string) ([]model.Folder, error) {
	if err := s.hit("ListSubfolders"); err != nil {
		return nil, err
	}
	return s.Fixture.ListSubfolders(ctx, id)
}

func (s *stubGateway) ListFolderMedia(ctx context.Context, id string) ([]model.MediaItem, error) {
	if err := s.hit("ListFolderMedia"); err != nil {
		return nil, err
	}
	return s.Fixture.ListFolderMedia(ctx, id)
}

func (s *stubGateway) ListBreadcrumb(ctx context.Context, id string) ([]model.Folder, error) {
	if err := s.hit("ListBreadcrumb"); err != nil {
		return nil, err
	}
	return s.Fixture.ListBreadcrumb(ctx, id)
}

// recordingPublisher keeps every event it is handed.
type recordingPublisher struct {
	mu      sync.Mutex
	changes []event.MediaChange
	tags    []model.Tag
}

func (p *recordingPublisher) PublishMediaChanged(ctx context.Context, c event.MediaChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

func (p *recordingPublisher) PublishTagCreated(ctx context.Context, t model.Tag) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tags = append(p.tags, t)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ids(items []model.MediaItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func folderIDs(folders []model.Folder) []string {
	out := make([]string, len(folders))
	for i, f := range folders {
		out[i] = f.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListenersCancel(t *testing.T) {
	var l listeners[int]
	var got []int
	cancel := l.add(func(v int) { got = append(got, v) })

	n := 0
	next := func() int { n++; return n }
	l.notify(next)
	cancel()
	l.notify(next)

	if len(got) != 1 || got[0] != 1 {
		t.Errorf("delivered = %v, want [1]", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	prefs := storage.NewMemory()
	o := newOptions([]Option{WithPersistence(prefs), WithLogger(quietLogger())})

	o.save(feedKey, feedSection{SortingMode: model.SortPopular, ActiveIndex: 3})

	var got feedSection
	if !o.load(context.Background(), feedKey, &got) {
		t.Fatal("load() = false, want true")
	}
	if got.SortingMode != model.SortPopular || got.ActiveIndex != 3 {
		t.Errorf("load() = %+v", got)
	}

	if o.load(context.Background(), browserKey, &got) {
		t.Error("load(missing) = true, want false")
	}

	if err := prefs.Put(context.Background(), searchKey, []byte("not json")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	var tp tagSection
	if o.load(context.Background(), searchKey, &tp) {
		t.Error("load(garbage) = true, want false")
	}
}

func TestWithoutPersistenceIsSilent(t *testing.T) {
	o := newOptions(nil)
	o.save(feedKey, feedSection{})
	var p feedSection
	if o.load(context.Background(), feedKey, &p) {
		t.Error("load() without persistence = true, want false")
	}
}
