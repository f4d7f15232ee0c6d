package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/lanalbum/albumclient/internal/errors"
	"github.com/lanalbum/albumclient/internal/model"
)

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

func TestFixtureListMediaSorting(t *testing.T) {
	ctx := context.Background()
	f := NewFixture()

	recent, err := f.ListMedia(ctx, model.SortRecent)
	if err != nil {
		t.Fatalf("ListMedia(recent) error = %v", err)
	}
	if len(recent) != 10 || recent[0].ID != "media10" || recent[9].ID != "media1" {
		t.Errorf("ListMedia(recent) = %v", ids(recent))
	}

	popular, err := f.ListMedia(ctx, model.SortPopular)
	if err != nil {
		t.Fatalf("ListMedia(popular) error = %v", err)
	}
	for i := 1; i < len(popular); i++ {
		if popular[i-1].LikeCount < popular[i].LikeCount {
			t.Fatalf("ListMedia(popular) not ordered by like count: %v", ids(popular))
		}
	}
	if popular[0].ID != "media8" {
		t.Errorf("ListMedia(popular)[0] = %v, want media8", popular[0].ID)
	}

	random, err := f.ListMedia(ctx, model.SortRandom)
	if err != nil || len(random) != 10 {
		t.Errorf("ListMedia(random) = %d items, %v", len(random), err)
	}

	if _, err := f.ListMedia(ctx, "oldest"); !apperrors.IsValidation(err) {
		t.Errorf("ListMedia(oldest) error = %v, want validation error", err)
	}
}

func TestFixtureSearchIsConjunctive(t *testing.T) {
	ctx := context.Background()
	f := NewEmptyFixture()
	f.tags = []model.Tag{{ID: "t1", Name: "one"}, {ID: "t2", Name: "two"}}
	f.media["A"] = model.MediaItem{ID: "A", Kind: model.KindImage, Tags: f.tags}
	f.media["B"] = model.MediaItem{ID: "B", Kind: model.KindImage, Tags: f.tags[:1]}
	f.mediaOrder = []string{"A", "B"}

	got, err := f.SearchMediaByTags(ctx, []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("SearchMediaByTags() error = %v", err)
	}
	if !equal(ids(got), []string{"A"}) {
		t.Errorf("SearchMediaByTags(t1,t2) = %v, want [A]", ids(got))
	}

	if _, err := f.SearchMediaByTags(ctx, nil); !apperrors.IsValidation(err) {
		t.Errorf("SearchMediaByTags(nil) error = %v, want validation error", err)
	}
}

func TestFixtureSetLikedAdjustsCount(t *testing.T) {
	ctx := context.Background()
	f := NewFixture()

	item, err := f.SetLiked(ctx, "media2", true)
	if err != nil {
		t.Fatalf("SetLiked() error = %v", err)
	}
	if !item.Liked || item.LikeCount != 9 {
		t.Errorf("SetLiked(true) = liked %v count %d, want true 9", item.Liked, item.LikeCount)
	}
	item, _ = f.SetLiked(ctx, "media2", false)
	if item.Liked || item.LikeCount != 8 {
		t.Errorf("SetLiked(false) = liked %v count %d, want false 8", item.Liked, item.LikeCount)
	}

	if _, err := f.SetLiked(ctx, "missing", true); !apperrors.IsNotFound(err) {
		t.Errorf("SetLiked(missing) error = %v, want not found", err)
	}
}

func TestFixtureReturnsCopies(t *testing.T) {
	ctx := context.Background()
	f := NewFixture()

	items, _ := f.ListFolderMedia(ctx, "folder8")
	items[0].Tags[0].Name = "mutated"

	again, _ := f.ListFolderMedia(ctx, "folder8")
	if again[0].Tags[0].Name != "Nature" {
		t.Errorf("fixture state leaked through a returned slice: %v", again[0].Tags)
	}
}

func TestFixtureTags(t *testing.T) {
	ctx := context.Background()
	f := NewFixture()

	tag, err := f.CreateTag(ctx, "  Nature ")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	if tag.ID != "tag1" {
		t.Errorf("CreateTag(existing name) = %v, want tag1", tag.ID)
	}

	fresh, err := f.CreateTag(ctx, "Sunsets")
	if err != nil || fresh.ID == "" {
		t.Fatalf("CreateTag(Sunsets) = %v, %v", fresh, err)
	}
	if _, err := f.CreateTag(ctx, "   "); !apperrors.IsValidation(err) {
		t.Errorf("CreateTag(blank) error = %v, want validation error", err)
	}

	if _, err := f.AddTag(ctx, "media1", fresh.ID); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}
	if _, err := f.AddTag(ctx, "media1", fresh.ID); err != nil {
		t.Fatalf("AddTag() second call error = %v", err)
	}
	got, _ := f.SearchMediaByTags(ctx, []string{fresh.ID})
	if len(got) != 1 || len(got[0].Tags) != 3 {
		t.Errorf("after double AddTag: %v", got)
	}

	if _, err := f.AddTag(ctx, "media1", "nope"); !apperrors.IsNotFound(err) {
		t.Errorf("AddTag(unknown tag) error = %v, want not found", err)
	}
	if _, err := f.RemoveTag(ctx, "media1", "tag5"); err != nil {
		t.Errorf("RemoveTag(absent) error = %v, want nil", err)
	}
}

func TestFixtureFolders(t *testing.T) {
	ctx := context.Background()
	f := NewFixture()

	roots, _ := f.ListRootFolders(ctx)
	want := []string{"folder1", "folder4", "folder6", "folder7", "folder8", "folder9"}
	if !equal(folderIDs(roots), want) {
		t.Errorf("ListRootFolders() = %v, want %v", folderIDs(roots), want)
	}

	subs, _ := f.ListSubfolders(ctx, "folder1")
	if !equal(folderIDs(subs), []string{"folder2", "folder3"}) {
		t.Errorf("ListSubfolders(folder1) = %v", folderIDs(subs))
	}

	crumb, _ := f.ListBreadcrumb(ctx, "folder5")
	if !equal(folderIDs(crumb), []string{"folder4", "folder5"}) {
		t.Errorf("ListBreadcrumb(folder5) = %v", folderIDs(crumb))
	}

	if _, err := f.ListFolderMedia(ctx, "nope"); !apperrors.IsNotFound(err) {
		t.Errorf("ListFolderMedia(nope) error = %v, want not found", err)
	}
}

func TestFixtureDeleteMedia(t *testing.T) {
	ctx := context.Background()
	f := NewFixture()

	if err := f.DeleteMedia(ctx, "media4"); err != nil {
		t.Fatalf("DeleteMedia() error = %v", err)
	}
	media, _ := f.ListFolderMedia(ctx, "folder8")
	if !equal(ids(media), []string{"media1"}) {
		t.Errorf("folder8 media after delete = %v", ids(media))
	}
	if err := f.DeleteMedia(ctx, "media4"); !apperrors.IsNotFound(err) {
		t.Errorf("DeleteMedia twice error = %v, want not found", err)
	}
}

func TestFixtureScanDirectory(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "album")
	for _, p := range []string{"beach/waves.mp4", "beach/sunset.JPG", "cover.png", "notes.txt"} {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	f := NewEmptyFixture()
	res, err := f.ScanDirectory(ctx, root)
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}
	if *res.MediaCount != 3 || *res.FolderCount != 2 {
		t.Errorf("ScanDirectory() = %d media %d folders, want 3 and 2", *res.MediaCount, *res.FolderCount)
	}

	roots, _ := f.ListRootFolders(ctx)
	if len(roots) != 1 || roots[0].Name != "album" {
		t.Fatalf("ListRootFolders() = %+v", roots)
	}
	subs, _ := f.ListSubfolders(ctx, roots[0].ID)
	if len(subs) != 1 || subs[0].Name != "beach" {
		t.Fatalf("ListSubfolders(album) = %+v", subs)
	}
	media, _ := f.ListFolderMedia(ctx, subs[0].ID)
	if len(media) != 2 {
		t.Fatalf("ListFolderMedia(beach) = %+v", media)
	}
	for _, m := range media {
		if m.Title == "waves" && (m.Kind != model.KindVideo || m.Path != "/album/beach/waves.mp4") {
			t.Errorf("waves = %+v", m)
		}
		if m.Title == "sunset" && m.Kind != model.KindImage {
			t.Errorf("sunset kind = %v, want image", m.Kind)
		}
	}

	again, err := f.ScanDirectory(ctx, root)
	if err != nil {
		t.Fatalf("rescan error = %v", err)
	}
	if *again.MediaCount != 0 || *again.FolderCount != 0 {
		t.Errorf("rescan = %s, want nothing new", again.Message)
	}

	if _, err := f.ScanDirectory(ctx, "  "); !apperrors.IsValidation(err) {
		t.Errorf("ScanDirectory(blank) error = %v, want validation error", err)
	}
	if _, err := f.ScanDirectory(ctx, filepath.Join(root, "cover.png")); !apperrors.IsValidation(err) {
		t.Errorf("ScanDirectory(file) error = %v, want validation error", err)
	}
}
