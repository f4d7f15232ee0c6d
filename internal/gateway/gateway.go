// Package gateway is the single choke-point for backend access. It exposes one method per
// backend resource and two implementations of the same contract: HTTPGateway talks to a real
// backend, Fixture answers from an in-memory collection.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lanalbum/albumclient/internal/config"
	"github.com/lanalbum/albumclient/internal/model"
)

// Gateway is the backend contract consumed by the stores.
type Gateway interface {
	ListMedia(ctx context.Context, sort model.SortingMode) ([]model.MediaItem, error)
	// SearchMediaByTags returns the items carrying every one of tagIDs. An empty tagIDs
	// is a validation error.
	SearchMediaByTags(ctx context.Context, tagIDs []string) ([]model.MediaItem, error)
	SetLiked(ctx context.Context, id string, liked bool) (model.MediaItem, error)
	SetFavorited(ctx context.Context, id string, favorited bool) (model.MediaItem, error)
	DeleteMedia(ctx context.Context, id string) error
	AddTag(ctx context.Context, mediaID, tagID string) (model.Ack, error)
	RemoveTag(ctx context.Context, mediaID, tagID string) (model.Ack, error)

	ListTags(ctx context.Context) ([]model.Tag, error)
	CreateTag(ctx context.Context, name string) (model.Tag, error)

	ListRootFolders(ctx context.Context) ([]model.Folder, error)
	ListSubfolders(ctx context.Context, folderID string) ([]model.Folder, error)
	ListFolderMedia(ctx context.Context, folderID string) ([]model.MediaItem, error)
	// ListBreadcrumb returns the path from the root to folderID, inclusive.
	ListBreadcrumb(ctx context.Context, folderID string) ([]model.Folder, error)

	ScanDirectory(ctx context.Context, path string) (model.ScanResult, error)

	// CheckAvailability reports whether the backend answers. It never fails and returns
	// within the configured availability timeout.
	CheckAvailability(ctx context.Context) bool
}

// New builds the gateway selected by cfg.Mode.
func New(cfg config.Config, logger *slog.Logger) (Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Mode {
	case config.ModeLive:
		return NewHTTP(cfg.APIBaseURL,
			WithRequestTimeout(cfg.RequestTimeout),
			WithAvailabilityTimeout(cfg.AvailabilityTimeout),
			WithToken(cfg.APIToken),
			WithLogger(logger),
		)
	case config.ModeFixture:
		logger.Info("using fixture gateway")
		return NewFixture(), nil
	default:
		return nil, fmt.Errorf("unknown gateway mode %q", cfg.Mode)
	}
}
