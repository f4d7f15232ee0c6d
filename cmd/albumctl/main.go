// Package main is a command-line front end to the album client: it drives the feed, tag
// search and folder browser stores against the configured backend or the fixture.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lanalbum/albumclient/internal/config"
	"github.com/lanalbum/albumclient/internal/event"
	"github.com/lanalbum/albumclient/internal/gateway"
	"github.com/lanalbum/albumclient/internal/media"
	"github.com/lanalbum/albumclient/internal/storage"
	"github.com/lanalbum/albumclient/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	commands := map[string]func(ctx context.Context, a *app, args []string) error{
		"ping":       pingCommand,
		"feed":       feedCommand,
		"search":     searchCommand,
		"browse":     browseCommand,
		"like":       likeCommand,
		"favorite":   favoriteCommand,
		"delete":     deleteCommand,
		"tags":       tagsCommand,
		"create-tag": createTagCommand,
		"tag":        tagCommand,
		"untag":      untagCommand,
		"scan":       scanCommand,
		"play":       playCommand,
	}
	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", name)
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup error: %v\n", err)
		os.Exit(1)
	}
	err = cmd(ctx, a, os.Args[2:])
	a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s error: %v\n", name, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: albumctl <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  ping                    Check whether the backend answers")
	fmt.Println("  feed [-sort mode]       List the feed (recent, popular, random)")
	fmt.Println("  search <tagId>...       List items carrying every given tag")
	fmt.Println("  browse [-up] [folderId] Show a folder, the root, or the parent folder")
	fmt.Println("  like <mediaId>          Toggle the like flag")
	fmt.Println("  favorite <mediaId>      Toggle the favorite flag")
	fmt.Println("  delete <mediaId>        Delete a media item")
	fmt.Println("  tags                    List all tags")
	fmt.Println("  create-tag <name>       Create a tag")
	fmt.Println("  tag <mediaId> <tagId>   Attach a tag")
	fmt.Println("  untag <mediaId> <tagId> Detach a tag")
	fmt.Println("  scan <path>             Ask the backend to scan a directory")
	fmt.Println("  play [-index n] [-tap]  Show which item the player would drive")
}

// app holds everything a command needs. The stores share one persistence port and one
// publisher.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	gw       gateway.Gateway
	prefs    storage.Store
	pub      event.Publisher
	resolver media.Resolver

	feed    *store.FeedStore
	tags    *store.TagStore
	folders *store.FolderStore
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	// Logs go to stderr so command output stays clean.
	logLevel := slog.LevelWarn
	if cfg.IsDev() {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	prefs, err := storage.Open(cfg.PrefsDSN)
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	resolver, err := media.NewResolver(ctx, cfg)
	if err != nil {
		prefs.Close()
		return nil, fmt.Errorf("media resolver: %w", err)
	}
	pub := event.NewPublisher(cfg.NATSURL)

	opts := []store.Option{
		store.WithLogger(logger),
		store.WithPersistence(prefs),
		store.WithPublisher(pub),
	}
	a := &app{
		cfg:      cfg,
		logger:   logger,
		gw:       gw,
		prefs:    prefs,
		pub:      pub,
		resolver: resolver,
		feed:     store.NewFeedStore(gw, opts...),
		tags:     store.NewTagStore(gw, opts...),
		folders:  store.NewFolderStore(gw, opts...),
	}
	// Later saves rewrite whole sections, so start from what was saved last.
	a.feed.Restore(ctx)
	a.tags.Restore(ctx)
	return a, nil
}

func (a *app) Close() {
	if err := a.pub.Close(); err != nil {
		a.logger.Warn("failed to close publisher", "error", err)
	}
	if err := a.prefs.Close(); err != nil {
		a.logger.Warn("failed to close preferences", "error", err)
	}
}
