package gateway

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lanalbum/albumclient/internal/errors"
	"github.com/lanalbum/albumclient/internal/model"
)

// Fixture is an in-memory Gateway. It mirrors the backend's observable behaviour closely
// enough that the stores cannot tell it apart from HTTPGateway, and it is safe for
// concurrent use. Every value it returns is a deep copy.
type Fixture struct {
	mu sync.RWMutex

	media      map[string]model.MediaItem
	mediaOrder []string
	mediaDir   map[string]string // media id -> folder id

	tags []model.Tag

	folders     map[string]model.Folder
	folderOrder []string

	now func() time.Time
}

// NewFixture returns a fixture seeded with the demo collection.
func NewFixture() *Fixture {
	f := NewEmptyFixture()
	tags := seedTags()
	f.tags = tags
	for _, item := range seedMedia(tags) {
		f.media[item.ID] = item
		f.mediaOrder = append(f.mediaOrder, item.ID)
	}
	for _, folder := range seedFolders() {
		f.folders[folder.ID] = folder
		f.folderOrder = append(f.folderOrder, folder.ID)
		for _, id := range folder.MediaItems {
			f.mediaDir[id] = folder.ID
		}
	}
	return f
}

// NewEmptyFixture returns a fixture with no media, tags or folders.
func NewEmptyFixture() *Fixture {
	return &Fixture{
		media:    make(map[string]model.MediaItem),
		mediaDir: make(map[string]string),
		folders:  make(map[string]model.Folder),
		now:      time.Now,
	}
}

func (f *Fixture) ListMedia(ctx context.Context, mode model.SortingMode) ([]model.MediaItem, error) {
	if !mode.Valid() {
		return nil, apperrors.Validation("unknown sorting mode %q", mode)
	}
	f.mu.RLock()
	items := f.itemsLocked(f.mediaOrder)
	f.mu.RUnlock()

	switch mode {
	case model.SortRecent:
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	case model.SortPopular:
		sort.SliceStable(items, func(i, j int) bool { return items[i].LikeCount > items[j].LikeCount })
	case model.SortRandom:
		rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	}
	return items, nil
}

// SearchMediaByTags matches with AND semantics: an item must carry every requested tag.
func (f *Fixture) SearchMediaByTags(ctx context.Context, tagIDs []string) ([]model.MediaItem, error) {
	if len(tagIDs) == 0 {
		return nil, apperrors.Validation("at least one tag id is required")
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := []model.MediaItem{}
	for _, id := range f.mediaOrder {
		item := f.media[id]
		matched := true
		for _, tagID := range tagIDs {
			if !item.HasTag(tagID) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

// SetLiked moves like_count with the flag: +1 when a like is added, -1 (never below zero)
// when one is removed.
func (f *Fixture) SetLiked(ctx context.Context, id string, liked bool) (model.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.media[id]
	if !ok {
		return model.MediaItem{}, apperrors.NotFound("media %s not found", id)
	}
	if item.Liked != liked {
		if liked {
			item.LikeCount++
		} else if item.LikeCount > 0 {
			item.LikeCount--
		}
	}
	item.Liked = liked
	f.media[id] = item
	return item.Clone(), nil
}

func (f *Fixture) SetFavorited(ctx context.Context, id string, favorited bool) (model.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.media[id]
	if !ok {
		return model.MediaItem{}, apperrors.NotFound("media %s not found", id)
	}
	item.Favorited = favorited
	f.media[id] = item
	return item.Clone(), nil
}

func (f *Fixture) DeleteMedia(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.media[id]; !ok {
		return apperrors.NotFound("media %s not found", id)
	}
	delete(f.media, id)
	f.mediaOrder = removeString(f.mediaOrder, id)
	if folderID, ok := f.mediaDir[id]; ok {
		folder := f.folders[folderID]
		folder.MediaItems = removeString(folder.MediaItems, id)
		f.folders[folderID] = folder
		delete(f.mediaDir, id)
	}
	return nil
}

// AddTag is idempotent: attaching a tag twice leaves one copy.
func (f *Fixture) AddTag(ctx context.Context, mediaID, tagID string) (model.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.media[mediaID]
	if !ok {
		return model.Ack{}, apperrors.NotFound("media %s not found", mediaID)
	}
	tag, ok := f.tagLocked(tagID)
	if !ok {
		return model.Ack{}, apperrors.NotFound("tag %s not found", tagID)
	}
	f.media[mediaID] = item.WithTag(tag)
	return model.Ack{Message: "Tag added to media"}, nil
}

func (f *Fixture) RemoveTag(ctx context.Context, mediaID, tagID string) (model.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.media[mediaID]
	if !ok {
		return model.Ack{}, apperrors.NotFound("media %s not found", mediaID)
	}
	if !item.HasTag(tagID) {
		return model.Ack{Message: "Tag not associated with media"}, nil
	}
	f.media[mediaID] = item.WithoutTag(tagID)
	return model.Ack{Message: "Tag removed from media"}, nil
}

func (f *Fixture) ListTags(ctx context.Context) ([]model.Tag, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]model.Tag{}, f.tags...), nil
}

// CreateTag returns the existing tag when the name is already taken.
func (f *Fixture) CreateTag(ctx context.Context, name string) (model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Tag{}, apperrors.Validation("tag name must not be blank")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tags {
		if t.Name == name {
			return t, nil
		}
	}
	tag := model.Tag{ID: uuid.NewString(), Name: name}
	f.tags = append(f.tags, tag)
	return tag, nil
}

func (f *Fixture) ListRootFolders(ctx context.Context) ([]model.Folder, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := []model.Folder{}
	for _, id := range f.folderOrder {
		if folder := f.folders[id]; folder.IsRoot() {
			out = append(out, folder.Clone())
		}
	}
	return out, nil
}

func (f *Fixture) ListSubfolders(ctx context.Context, folderID string) ([]model.Folder, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if _, ok := f.folders[folderID]; !ok {
		return nil, apperrors.NotFound("folder %s not found", folderID)
	}
	out := []model.Folder{}
	for _, id := range f.folderOrder {
		folder := f.folders[id]
		if folder.ParentID != nil && *folder.ParentID == folderID {
			out = append(out, folder.Clone())
		}
	}
	return out, nil
}

func (f *Fixture) ListFolderMedia(ctx context.Context, folderID string) ([]model.MediaItem, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	folder, ok := f.folders[folderID]
	if !ok {
		return nil, apperrors.NotFound("folder %s not found", folderID)
	}
	return f.itemsLocked(folder.MediaItems), nil
}

// ListBreadcrumb walks parent links up from folderID. A dangling parent ends the walk.
func (f *Fixture) ListBreadcrumb(ctx context.Context, folderID string) ([]model.Folder, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	folder, ok := f.folders[folderID]
	if !ok {
		return nil, apperrors.NotFound("folder %s not found", folderID)
	}
	var path []model.Folder
	seen := make(map[string]bool)
	for {
		if seen[folder.ID] {
			break
		}
		seen[folder.ID] = true
		path = append(path, folder.Clone())
		if folder.ParentID == nil {
			break
		}
		parent, ok := f.folders[*folder.ParentID]
		if !ok {
			break
		}
		folder = parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// CheckAvailability always succeeds: the fixture lives in process.
func (f *Fixture) CheckAvailability(ctx context.Context) bool {
	return true
}

// itemsLocked resolves ids to deep copies, skipping ids that no longer exist.
func (f *Fixture) itemsLocked(ids []string) []model.MediaItem {
	out := make([]model.MediaItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := f.media[id]; ok {
			out = append(out, item.Clone())
		}
	}
	return out
}

func (f *Fixture) tagLocked(id string) (model.Tag, bool) {
	for _, t := range f.tags {
		if t.ID == id {
			return t, true
		}
	}
	return model.Tag{}, false
}

func removeString(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
