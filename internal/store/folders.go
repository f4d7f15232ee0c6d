package store

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lanalbum/albumclient/internal/gateway"
	"github.com/lanalbum/albumclient/internal/model"
)

const loadFolderFailed = "Failed to load folder contents"

// FolderContents is what a folder shows: its subfolders and the media it holds directly.
type FolderContents struct {
	Folders []model.Folder
	Media   []model.MediaItem
}

// FolderSnapshot is a point-in-time copy of the folder browser state.
type FolderSnapshot struct {
	CurrentFolderID *string // nil at the root
	Contents        FolderContents
	Breadcrumb      []model.Folder // root first, current folder last
	IsLoading       bool
	LastError       string
}

// AtRoot reports whether the browser shows the root folders.
func (s FolderSnapshot) AtRoot() bool {
	return s.CurrentFolderID == nil
}

// folderSection is the last location the browser landed on, with what it showed there.
type folderSection struct {
	CurrentFolderID *string           `json:"currentFolderId"`
	Folders         []model.Folder    `json:"folders"`
	Media           []model.MediaItem `json:"media"`
	Breadcrumb      []model.Folder    `json:"breadcrumb"`
}

// FolderStore browses the server-side folder tree. A navigation either lands completely
// or leaves the previous location in place.
type FolderStore struct {
	gw   gateway.Gateway
	opts options

	mu    sync.RWMutex
	state FolderSnapshot

	subs listeners[FolderSnapshot]
}

func NewFolderStore(gw gateway.Gateway, opts ...Option) *FolderStore {
	return &FolderStore{
		gw:   gw,
		opts: newOptions(opts),
		state: FolderSnapshot{
			Contents:   FolderContents{Folders: []model.Folder{}, Media: []model.MediaItem{}},
			Breadcrumb: []model.Folder{},
		},
	}
}

func (s *FolderStore) Snapshot() FolderSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.state
	if s.state.CurrentFolderID != nil {
		c.CurrentFolderID = model.StringPtr(*s.state.CurrentFolderID)
	}
	c.Contents = FolderContents{
		Folders: model.CloneFolders(s.state.Contents.Folders),
		Media:   model.CloneItems(s.state.Contents.Media),
	}
	c.Breadcrumb = model.CloneFolders(s.state.Breadcrumb)
	return c
}

func (s *FolderStore) Subscribe(fn func(FolderSnapshot)) (cancel func()) {
	return s.subs.add(fn)
}

func (s *FolderStore) transition(fn func(st *FolderSnapshot)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.subs.notify(s.Snapshot)
}

// Restore shows the persisted location and then reloads it from the backend. If the reload
// fails the saved view stays up with LastError set. Without a saved location it loads the
// root.
func (s *FolderStore) Restore(ctx context.Context) error {
	var p folderSection
	if s.opts.load(ctx, browserKey, &p) && p.Folders != nil {
		s.transition(func(st *FolderSnapshot) {
			st.CurrentFolderID = p.CurrentFolderID
			st.Contents = FolderContents{Folders: p.Folders, Media: p.Media}
			if st.Contents.Media == nil {
				st.Contents.Media = []model.MediaItem{}
			}
			st.Breadcrumb = p.Breadcrumb
			if st.Breadcrumb == nil {
				st.Breadcrumb = []model.Folder{}
			}
		})
	}
	return s.NavigateToFolder(ctx, p.CurrentFolderID)
}

// NavigateToFolder loads folder id, or the root when id is nil. For a concrete folder the
// subfolders, media and breadcrumb are fetched concurrently and committed together; if any
// of them fails, CurrentFolderID stays where it was and LastError is set.
func (s *FolderStore) NavigateToFolder(ctx context.Context, id *string) error {
	s.transition(func(st *FolderSnapshot) {
		st.IsLoading = true
		st.LastError = ""
	})

	var (
		folders    []model.Folder
		media      = []model.MediaItem{}
		breadcrumb = []model.Folder{}
		err        error
	)
	if id == nil {
		folders, err = s.gw.ListRootFolders(ctx)
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			folders, err = s.gw.ListSubfolders(gctx, *id)
			return err
		})
		g.Go(func() (err error) {
			media, err = s.gw.ListFolderMedia(gctx, *id)
			return err
		})
		g.Go(func() (err error) {
			breadcrumb, err = s.gw.ListBreadcrumb(gctx, *id)
			return err
		})
		err = g.Wait()
	}
	s.opts.record("folders", "navigate", err)
	if err != nil {
		s.opts.logger.Error("failed to navigate to folder", "folder_id", derefOr(id, "<root>"), "error", err)
		s.transition(func(st *FolderSnapshot) {
			st.IsLoading = false
			st.LastError = loadFolderFailed
		})
		return err
	}

	s.transition(func(st *FolderSnapshot) {
		st.CurrentFolderID = nil
		if id != nil {
			st.CurrentFolderID = model.StringPtr(*id)
		}
		st.Contents = FolderContents{
			Folders: model.CloneFolders(folders),
			Media:   model.CloneItems(media),
		}
		st.Breadcrumb = model.CloneFolders(breadcrumb)
		st.IsLoading = false
	})
	s.opts.save(browserKey, folderSection{
		CurrentFolderID: id,
		Folders:         model.CloneFolders(folders),
		Media:           model.CloneItems(media),
		Breadcrumb:      model.CloneFolders(breadcrumb),
	})
	return nil
}

// NavigateUp moves to the parent of the current folder as recorded in the breadcrumb, or
// to the root when the breadcrumb has fewer than two entries. At the root it does nothing.
func (s *FolderStore) NavigateUp(ctx context.Context) error {
	s.mu.RLock()
	atRoot := s.state.CurrentFolderID == nil
	var parent *string
	if n := len(s.state.Breadcrumb); n >= 2 {
		parent = model.StringPtr(s.state.Breadcrumb[n-2].ID)
	}
	s.mu.RUnlock()

	if atRoot {
		return nil
	}
	return s.NavigateToFolder(ctx, parent)
}

func derefOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
