package gateway

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/oklog/ulid/v2"

	apperrors "github.com/lanalbum/albumclient/internal/errors"
	"github.com/lanalbum/albumclient/internal/model"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func newID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Go's built-in MIME table has no video types and the system table may be absent.
var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// mediaKind classifies a file by the MIME type registered for its extension.
func mediaKind(name string) (model.MediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	typ := mime.TypeByExtension(ext)
	if typ == "" {
		typ = videoExtensions[ext]
	}
	switch {
	case strings.HasPrefix(typ, "image/"):
		return model.KindImage, true
	case strings.HasPrefix(typ, "video/"):
		return model.KindVideo, true
	}
	return "", false
}

type scanEntry struct {
	path  string
	dir   bool
	size  int64
	depth int
}

// ScanDirectory walks root and adds one folder per directory and one media item per image
// or video file. Directories and files already known by path are skipped, so rescanning
// only picks up new content. Media paths are recorded relative to root's parent, with a
// leading slash.
func (f *Fixture) ScanDirectory(ctx context.Context, root string) (model.ScanResult, error) {
	if strings.TrimSpace(root) == "" {
		return model.ScanResult{}, apperrors.Validation("scan path must not be blank")
	}
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return model.ScanResult{}, apperrors.Validation("path does not exist: %s", root)
	}
	if !info.IsDir() {
		return model.ScanResult{}, apperrors.Validation("path is not a directory: %s", root)
	}

	var (
		mu      sync.Mutex
		entries []scanEntry
	)
	conf := &fastwalk.Config{Follow: false}
	err = fastwalk.Walk(conf, root, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e := scanEntry{path: filepath.Clean(fullPath), dir: d.IsDir()}
		if !e.dir {
			if _, ok := mediaKind(d.Name()); !ok {
				return nil
			}
			fi, err := fastwalk.StatDirEntry(fullPath, d)
			if err != nil || !fi.Mode().IsRegular() {
				return nil
			}
			e.size = fi.Size()
		}
		e.depth = strings.Count(e.path, string(filepath.Separator))
		mu.Lock()
		entries = append(entries, e)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return model.ScanResult{}, apperrors.Wrap(err, "scan "+root)
	}

	// Parents before children, then by path, so results do not depend on walk order.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].depth != entries[j].depth {
			return entries[i].depth < entries[j].depth
		}
		return entries[i].path < entries[j].path
	})

	webBase := filepath.Dir(root)
	f.mu.Lock()
	defer f.mu.Unlock()

	byPath := make(map[string]string, len(f.folders))
	for id, folder := range f.folders {
		byPath[folder.Path] = id
	}
	knownMedia := make(map[string]bool, len(f.media))
	for _, item := range f.media {
		knownMedia[item.Path] = true
	}

	now := f.now().UTC()
	folderCount, mediaCount := 0, 0
	for _, e := range entries {
		if e.dir {
			if _, ok := byPath[e.path]; ok {
				continue
			}
			folder := model.Folder{
				ID:         newID(),
				Name:       filepath.Base(e.path),
				Path:       e.path,
				CreatedAt:  now,
				Subfolders: []string{},
				MediaItems: []string{},
			}
			if parentID, ok := byPath[filepath.Dir(e.path)]; ok && e.path != root {
				folder.ParentID = model.StringPtr(parentID)
				parent := f.folders[parentID]
				parent.Subfolders = append(parent.Subfolders, folder.ID)
				f.folders[parentID] = parent
			}
			f.folders[folder.ID] = folder
			f.folderOrder = append(f.folderOrder, folder.ID)
			byPath[folder.Path] = folder.ID
			folderCount++
			continue
		}

		rel, err := filepath.Rel(webBase, e.path)
		if err != nil {
			continue
		}
		webPath := "/" + filepath.ToSlash(rel)
		if knownMedia[webPath] {
			continue
		}
		kind, _ := mediaKind(e.path)
		name := filepath.Base(e.path)
		item := model.MediaItem{
			ID:        newID(),
			Kind:      kind,
			Path:      webPath,
			Title:     strings.TrimSuffix(name, filepath.Ext(name)),
			CreatedAt: now,
			Size:      e.size,
			Tags:      []model.Tag{},
		}
		f.media[item.ID] = item
		f.mediaOrder = append(f.mediaOrder, item.ID)
		knownMedia[webPath] = true
		if folderID, ok := byPath[filepath.Dir(e.path)]; ok {
			folder := f.folders[folderID]
			folder.MediaItems = append(folder.MediaItems, item.ID)
			f.folders[folderID] = folder
			f.mediaDir[item.ID] = folderID
		}
		mediaCount++
	}

	return model.ScanResult{
		Message:     fmt.Sprintf("Scanned %d media files and %d folders", mediaCount, folderCount),
		MediaCount:  &mediaCount,
		FolderCount: &folderCount,
	}, nil
}
