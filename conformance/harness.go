// Package conformance checks that every Gateway implementation honours the same contract.
// The fixture is exercised directly and through the HTTP gateway talking to the fixture
// server, so the two paths a store can be wired to behave the same.
package conformance

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	apperrors "github.com/lanalbum/albumclient/internal/errors"
	"github.com/lanalbum/albumclient/internal/gateway"
	"github.com/lanalbum/albumclient/internal/model"
	"github.com/lanalbum/albumclient/internal/server"
)

// Target builds a fresh gateway seeded with the demo collection.
type Target struct {
	Name string
	New  func(t *testing.T) gateway.Gateway
}

// Harness runs the contract against a set of targets.
type Harness struct {
	logger  *slog.Logger
	targets []Target
}

// NewHarness returns a harness for the fixture and for HTTP over the fixture server.
// A nil logger discards output.
func NewHarness(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Harness{logger: logger}
	h.targets = []Target{
		{Name: "Fixture", New: func(t *testing.T) gateway.Gateway { return gateway.NewFixture() }},
		{Name: "HTTP", New: h.newHTTP},
	}
	return h
}

func (h *Harness) newHTTP(t *testing.T) gateway.Gateway {
	t.Helper()
	srv := httptest.NewServer(server.NewMux(gateway.NewFixture(), h.logger))
	t.Cleanup(srv.Close)
	gw, err := gateway.NewHTTP(srv.URL, gateway.WithLogger(h.logger))
	if err != nil {
		t.Fatalf("NewHTTP() error = %v", err)
	}
	return gw
}

// Targets returns the gateways under test.
func (h *Harness) Targets() []Target {
	return h.targets
}

// RunConformanceTests runs every contract check against every target.
func (h *Harness) RunConformanceTests(t *testing.T) {
	checks := []struct {
		name string
		fn   func(t *testing.T, gw gateway.Gateway)
	}{
		{"Availability", testAvailability},
		{"ListMediaOrder", testListMediaOrder},
		{"SearchIsConjunctive", testSearch},
		{"LikeRoundTrip", testLikeRoundTrip},
		{"TagLifecycle", testTagLifecycle},
		{"DeleteMedia", testDeleteMedia},
		{"FolderTree", testFolderTree},
		{"ValidationBeforeNetwork", testValidation},
		{"UnknownIDsFail", testUnknownIDs},
	}
	for _, target := range h.targets {
		t.Run(target.Name, func(t *testing.T) {
			for _, c := range checks {
				t.Run(c.name, func(t *testing.T) {
					c.fn(t, target.New(t))
				})
			}
		})
	}
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

func testAvailability(t *testing.T, gw gateway.Gateway) {
	if !gw.CheckAvailability(context.Background()) {
		t.Error("CheckAvailability() = false, want true")
	}
}

func testListMediaOrder(t *testing.T, gw gateway.Gateway) {
	ctx := context.Background()
	recent, err := gw.ListMedia(ctx, model.SortRecent)
	if err != nil {
		t.Fatalf("ListMedia(recent) error = %v", err)
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].CreatedAt.After(recent[i-1].CreatedAt) {
			t.Fatalf("ListMedia(recent) out of order: %v", ids(recent))
		}
	}
	popular, err := gw.ListMedia(ctx, model.SortPopular)
	if err != nil {
		t.Fatalf("ListMedia(popular) error = %v", err)
	}
	for i := 1; i < len(popular); i++ {
		if popular[i].LikeCount > popular[i-1].LikeCount {
			t.Fatalf("ListMedia(popular) out of order: %v", ids(popular))
		}
	}
	random, err := gw.ListMedia(ctx, model.SortRandom)
	if err != nil || len(random) != len(recent) {
		t.Errorf("ListMedia(random) = %d items, %v; want %d", len(random), err, len(recent))
	}
}

func testSearch(t *testing.T, gw gateway.Gateway) {
	got, err := gw.SearchMediaByTags(context.Background(), []string{"tag2", "tag6"})
	if err != nil {
		t.Fatalf("SearchMediaByTags() error = %v", err)
	}
	if !equal(ids(got), []string{"media2", "media8"}) {
		t.Errorf("SearchMediaByTags(tag2, tag6) = %v, want [media2 media8]", ids(got))
	}
}

func testLikeRoundTrip(t *testing.T, gw gateway.Gateway) {
	ctx := context.Background()
	item, err := gw.SetLiked(ctx, "media3", true)
	if err != nil {
		t.Fatalf("SetLiked(true) error = %v", err)
	}
	if !item.Liked || item.LikeCount != 6 {
		t.Errorf("SetLiked(true) = liked %v count %d, want true 6", item.Liked, item.LikeCount)
	}
	item, err = gw.SetLiked(ctx, "media3", false)
	if err != nil {
		t.Fatalf("SetLiked(false) error = %v", err)
	}
	if item.Liked || item.LikeCount != 5 {
		t.Errorf("SetLiked(false) = liked %v count %d, want false 5", item.Liked, item.LikeCount)
	}
	item, err = gw.SetFavorited(ctx, "media3", true)
	if err != nil || !item.Favorited {
		t.Errorf("SetFavorited(true) = %v, %v", item.Favorited, err)
	}
}

func testTagLifecycle(t *testing.T, gw gateway.Gateway) {
	ctx := context.Background()
	tag, err := gw.CreateTag(ctx, "Sunsets")
	if err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	again, err := gw.CreateTag(ctx, "Sunsets")
	if err != nil || again.ID != tag.ID {
		t.Errorf("CreateTag(existing) = %v, %v, want %v", again, err, tag)
	}

	if _, err := gw.AddTag(ctx, "media1", tag.ID); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}
	if _, err := gw.AddTag(ctx, "media1", tag.ID); err != nil {
		t.Fatalf("AddTag(again) error = %v", err)
	}
	tagged, err := gw.SearchMediaByTags(ctx, []string{tag.ID})
	if err != nil || !equal(ids(tagged), []string{"media1"}) {
		t.Fatalf("SearchMediaByTags(new tag) = %v, %v", ids(tagged), err)
	}
	if n := len(tagged[0].Tags); n != 3 {
		t.Errorf("media1 carries %d tags, want 3", n)
	}

	if _, err := gw.RemoveTag(ctx, "media1", tag.ID); err != nil {
		t.Fatalf("RemoveTag() error = %v", err)
	}
	if ack, err := gw.RemoveTag(ctx, "media1", tag.ID); err != nil || ack.Message == "" {
		t.Errorf("RemoveTag(absent) = %v, %v", ack, err)
	}

	tags, err := gw.ListTags(ctx)
	if err != nil || len(tags) != 11 {
		t.Errorf("ListTags() = %d tags, %v; want 11", len(tags), err)
	}
}

func testDeleteMedia(t *testing.T, gw gateway.Gateway) {
	ctx := context.Background()
	if err := gw.DeleteMedia(ctx, "media7"); err != nil {
		t.Fatalf("DeleteMedia() error = %v", err)
	}
	items, _ := gw.ListMedia(ctx, model.SortRecent)
	for _, it := range items {
		if it.ID == "media7" {
			t.Fatal("media7 still listed after delete")
		}
	}
	media, err := gw.ListFolderMedia(ctx, "folder6")
	if err != nil || len(media) != 0 {
		t.Errorf("ListFolderMedia(folder6) = %v, %v; want empty", ids(media), err)
	}
}

func testFolderTree(t *testing.T, gw gateway.Gateway) {
	ctx := context.Background()
	roots, err := gw.ListRootFolders(ctx)
	if err != nil {
		t.Fatalf("ListRootFolders() error = %v", err)
	}
	for _, f := range roots {
		if !f.IsRoot() {
			t.Errorf("root folder %s has parent %v", f.ID, *f.ParentID)
		}
	}
	subs, err := gw.ListSubfolders(ctx, "folder1")
	if err != nil || !equal(folderIDs(subs), []string{"folder2", "folder3"}) {
		t.Errorf("ListSubfolders(folder1) = %v, %v", folderIDs(subs), err)
	}
	crumbs, err := gw.ListBreadcrumb(ctx, "folder3")
	if err != nil || !equal(folderIDs(crumbs), []string{"folder1", "folder3"}) {
		t.Errorf("ListBreadcrumb(folder3) = %v, %v", folderIDs(crumbs), err)
	}
	media, err := gw.ListFolderMedia(ctx, "folder8")
	if err != nil || !equal(ids(media), []string{"media1", "media4"}) {
		t.Errorf("ListFolderMedia(folder8) = %v, %v", ids(media), err)
	}
}

func testValidation(t *testing.T, gw gateway.Gateway) {
	ctx := context.Background()
	if _, err := gw.SearchMediaByTags(ctx, nil); !apperrors.IsValidation(err) {
		t.Errorf("SearchMediaByTags(nil) error = %v, want validation error", err)
	}
	if _, err := gw.ScanDirectory(ctx, "  "); !apperrors.IsValidation(err) {
		t.Errorf("ScanDirectory(blank) error = %v, want validation error", err)
	}
	if _, err := gw.CreateTag(ctx, ""); !apperrors.IsValidation(err) {
		t.Errorf("CreateTag(blank) error = %v, want validation error", err)
	}
}

func testUnknownIDs(t *testing.T, gw gateway.Gateway) {
	ctx := context.Background()
	if _, err := gw.SetLiked(ctx, "ghost", true); err == nil {
		t.Error("SetLiked(ghost) error = nil")
	}
	if err := gw.DeleteMedia(ctx, "ghost"); err == nil {
		t.Error("DeleteMedia(ghost) error = nil")
	}
	if _, err := gw.ListSubfolders(ctx, "ghost"); err == nil {
		t.Error("ListSubfolders(ghost) error = nil")
	}
	if _, err := gw.AddTag(ctx, "media1", "ghost"); err == nil {
		t.Error("AddTag(unknown tag) error = nil")
	}
}
