// Package media turns the storage path of a media item into a URL a viewer can fetch.
package media

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lanalbum/albumclient/internal/config"
)

// PlaceholderURL is returned for items without a storage path.
const PlaceholderURL = "/placeholder.svg"

// Resolver maps a storage path to a fetchable URL.
type Resolver interface {
	URL(ctx context.Context, path string) (string, error)
}

// BaseURLResolver joins storage paths onto a fixed media base URL.
type BaseURLResolver struct {
	base string
}

// NewBaseURLResolver normalises base the same way the API base URL is normalised.
func NewBaseURLResolver(base string) *BaseURLResolver {
	return &BaseURLResolver{base: config.NormalizeBaseURL(base)}
}

func (r *BaseURLResolver) URL(_ context.Context, path string) (string, error) {
	if path == "" {
		return PlaceholderURL, nil
	}
	if isAbsolute(path) {
		return path, nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return r.base + path, nil
}

func isAbsolute(path string) bool {
	return strings.HasPrefix(path, "http")
}

// NewResolver returns an S3Resolver when a bucket is configured and a BaseURLResolver
// otherwise.
func NewResolver(ctx context.Context, cfg config.Config) (Resolver, error) {
	if cfg.S3Bucket == "" {
		return NewBaseURLResolver(cfg.MediaBaseURL), nil
	}
	slog.Info("resolving media through presigned S3 URLs", "bucket", cfg.S3Bucket)
	return NewS3Resolver(ctx, cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PresignTTL)
}
