package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lanalbum/albumclient/internal/model"
	"github.com/lanalbum/albumclient/internal/playback"
	"github.com/lanalbum/albumclient/internal/store"
)

func pingCommand(ctx context.Context, a *app, args []string) error {
	if !a.gw.CheckAvailability(ctx) {
		return fmt.Errorf("backend at %s is not reachable", a.cfg.APIBaseURL)
	}
	fmt.Printf("backend available (%s mode)\n", a.cfg.Mode)
	return nil
}

func feedCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	sort := fs.String("sort", "", "Sorting mode: recent, popular or random (default: last used)")
	_ = fs.Parse(args)

	if *sort != "" {
		mode, err := model.ParseSortingMode(*sort)
		if err != nil {
			return err
		}
		if err := a.feed.SetSortingMode(mode); err != nil {
			return err
		}
	}
	if err := a.feed.FetchMediaItems(ctx); err != nil {
		return err
	}
	snap := a.feed.Snapshot()
	fmt.Printf("%d items, sorted by %s\n", len(snap.MediaItems), snap.SortingMode)
	return printItems(ctx, a, os.Stdout, snap.MediaItems, snap.ActiveIndex)
}

func searchCommand(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: albumctl search <tagId>...")
	}
	if err := a.tags.FetchTags(ctx); err != nil {
		return err
	}
	a.tags.ClearTags()
	known := a.tags.Snapshot().AllTags
	for _, id := range args {
		tag, ok := findTag(known, id)
		if !ok {
			return fmt.Errorf("unknown tag %q", id)
		}
		a.tags.AddTag(tag)
	}
	// searches the full selection once; failures are logged to stderr
	stop := store.FollowSelection(ctx, a.tags, a.feed)
	defer stop()
	results := a.feed.Snapshot().SearchResults
	fmt.Printf("%d items tagged %s\n", len(results), strings.Join(args, " and "))
	return printItems(ctx, a, os.Stdout, results, -1)
}

func browseCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	up := fs.Bool("up", false, "Go to the parent of the last visited folder")
	_ = fs.Parse(args)

	var err error
	switch {
	case *up:
		if err = a.folders.Restore(ctx); err == nil {
			err = a.folders.NavigateUp(ctx)
		}
	case fs.NArg() > 0:
		err = a.folders.NavigateToFolder(ctx, model.StringPtr(fs.Arg(0)))
	default:
		err = a.folders.NavigateToFolder(ctx, nil)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a.folders.Snapshot().LastError, err)
	}

	snap := a.folders.Snapshot()
	crumbs := []string{"/"}
	for _, f := range snap.Breadcrumb {
		crumbs = append(crumbs, f.Name)
	}
	fmt.Println(strings.Join(crumbs, " > "))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, f := range snap.Contents.Folders {
		fmt.Fprintf(w, "%s/\t%s\t%d folders, %d items\n", f.Name, f.ID, len(f.Subfolders), len(f.MediaItems))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return printItems(ctx, a, os.Stdout, snap.Contents.Media, -1)
}

func likeCommand(ctx context.Context, a *app, args []string) error {
	return toggle(ctx, a, args, "like", a.feed.ToggleLike)
}

func favoriteCommand(ctx context.Context, a *app, args []string) error {
	return toggle(ctx, a, args, "favorite", a.feed.ToggleFavorite)
}

// toggle loads the feed so the item is known locally, then flips one flag.
func toggle(ctx context.Context, a *app, args []string, what string, fn func(context.Context, string) error) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: albumctl %s <mediaId>", what)
	}
	id := args[0]
	if err := a.feed.FetchMediaItems(ctx); err != nil {
		return err
	}
	if _, ok := findItem(a.feed.Snapshot().MediaItems, id); !ok {
		return fmt.Errorf("media %q not in the feed", id)
	}
	if err := fn(ctx, id); err != nil {
		return err
	}
	item, _ := findItem(a.feed.Snapshot().MediaItems, id)
	fmt.Printf("%s: liked=%t favorited=%t\n", id, item.Liked, item.Favorited)
	return nil
}

func deleteCommand(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: albumctl delete <mediaId>")
	}
	if err := a.feed.DeleteMedia(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func tagsCommand(ctx context.Context, a *app, args []string) error {
	if err := a.tags.FetchTags(ctx); err != nil {
		return fmt.Errorf("%s: %w", a.tags.Snapshot().LastError, err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, t := range a.tags.Snapshot().AllTags {
		fmt.Fprintf(w, "%s\t%s\n", t.ID, t.Name)
	}
	return w.Flush()
}

func createTagCommand(ctx context.Context, a *app, args []string) error {
	tag, err := a.tags.CreateTag(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\n", tag.ID, tag.Name)
	return nil
}

func tagCommand(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: albumctl tag <mediaId> <tagId>")
	}
	if err := loadForTagging(ctx, a); err != nil {
		return err
	}
	tag, ok := findTag(a.tags.Snapshot().AllTags, args[1])
	if !ok {
		return fmt.Errorf("unknown tag %q", args[1])
	}
	if err := a.feed.AddTagToMedia(ctx, args[0], tag); err != nil {
		return err
	}
	fmt.Printf("tagged %s with %s\n", args[0], tag.Name)
	return nil
}

func untagCommand(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: albumctl untag <mediaId> <tagId>")
	}
	if err := loadForTagging(ctx, a); err != nil {
		return err
	}
	if err := a.feed.RemoveTagFromMedia(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("removed %s from %s\n", args[1], args[0])
	return nil
}

// loadForTagging fetches the feed and the tags so tag edits can skip no-op calls.
func loadForTagging(ctx context.Context, a *app) error {
	if err := a.feed.FetchMediaItems(ctx); err != nil {
		return err
	}
	return a.tags.FetchTags(ctx)
}

func scanCommand(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: albumctl scan <path>")
	}
	res, err := a.gw.ScanDirectory(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(res.Message)
	return nil
}

// logSurface prints what a video player would be told to do.
type logSurface struct{ w io.Writer }

func (s logSurface) Play(id string)  { fmt.Fprintf(s.w, "play  %s (from start, muted)\n", id) }
func (s logSurface) Pause(id string) { fmt.Fprintf(s.w, "pause %s\n", id) }

func playCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	index := fs.Int("index", -1, "Make this item active (default: last active)")
	tap := fs.Bool("tap", false, "Double-tap the active item, which toggles its like")
	_ = fs.Parse(args)

	defer a.feed.Flush()
	if err := a.feed.FetchMediaItems(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	c := playback.NewController(logSurface{w: os.Stdout},
		playback.WithLogger(a.logger),
		playback.WithLikeIntent(func(id string) {
			if err := a.feed.ToggleLike(ctx, id); err != nil {
				fmt.Fprintf(os.Stderr, "like failed: %v\n", err)
			}
		}),
		playback.WithStateHook(func(id string, s playback.State) {
			fmt.Printf("gesture %s: %s\n", id, s)
			if s == playback.Idle {
				select {
				case <-done:
				default:
					close(done)
				}
			}
		}),
	)
	defer c.Close()
	detach := c.Attach(a.feed)
	defer detach()

	if *index >= 0 {
		a.feed.SetActiveIndex(*index)
	}
	snap := a.feed.Snapshot()
	item, ok := snap.ActiveItem()
	if !ok {
		return fmt.Errorf("no item at index %d of %d", snap.ActiveIndex, len(snap.MediaItems))
	}
	fmt.Printf("active: #%d %s (%s) %q\n", snap.ActiveIndex, item.ID, item.Kind, item.Title)

	if !*tap {
		return nil
	}
	g := c.Gesture(item.ID)
	g.Tap()
	g.Tap()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * playback.DefaultFeedback):
	}
	if liked, ok := findItem(a.feed.Snapshot().MediaItems, item.ID); ok {
		fmt.Printf("%s liked=%t\n", item.ID, liked.Liked)
	}
	return nil
}

func printItems(ctx context.Context, a *app, out io.Writer, items []model.MediaItem, active int) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, it := range items {
		marker := " "
		if i == active {
			marker = ">"
		}
		flags := ""
		if it.Liked {
			flags += "♥"
		}
		if it.Favorited {
			flags += "★"
		}
		u, err := a.resolver.URL(ctx, it.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %d\t%s\t%s\t%s\t%s\t%d likes %s\t%s\t%s\n",
			marker, i, it.ID, it.Kind, it.Title,
			humanize.Bytes(uint64(it.Size)), it.LikeCount, flags,
			humanize.Time(it.CreatedAt), u)
	}
	return w.Flush()
}

func findItem(items []model.MediaItem, id string) (model.MediaItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.MediaItem{}, false
}

func findTag(tags []model.Tag, id string) (model.Tag, bool) {
	for _, t := range tags {
		if t.ID == id {
			return t, true
		}
	}
	return model.Tag{}, false
}
