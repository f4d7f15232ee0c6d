// Package model defines the data structures shared by the gateway, the stores and the playback
// controller. The JSON names follow the backend's wire format.
package model

import (
	"fmt"
	"time"
)

// MediaKind distinguishes images from videos.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// SortingMode selects the server-side ordering of the feed.
type SortingMode string

const (
	SortRecent  SortingMode = "recent"  // newest first by creation time
	SortPopular SortingMode = "popular" // highest like count first
	SortRandom  SortingMode = "random"  // shuffled on every request
)

// Valid reports whether m is one of the known sorting modes.
func (m SortingMode) Valid() bool {
	switch m {
	case SortRecent, SortPopular, SortRandom:
		return true
	}
	return false
}

// ParseSortingMode converts user input into a SortingMode.
func ParseSortingMode(s string) (SortingMode, error) {
	m := SortingMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown sorting mode %q", s)
	}
	return m, nil
}

// Tag is a label that can be attached to media items.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MediaItem is a cached copy of a backend media record.
// The backend is authoritative; local copies are replaced on every full fetch.
type MediaItem struct {
	ID        string    `json:"id"`
	Kind      MediaKind `json:"type"`
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Liked     bool      `json:"liked"`
	Favorited bool      `json:"favorited"`
	LikeCount int       `json:"like_count"`
	Size      int64     `json:"size"`
	Tags      []Tag     `json:"tags"`
}

// IsVideo reports whether the item should be driven by the playback controller.
func (m MediaItem) IsVideo() bool {
	return m.Kind == KindVideo
}

// Clone returns a copy that shares no slices with m.
func (m MediaItem) Clone() MediaItem {
	c := m
	if m.Tags != nil {
		c.Tags = make([]Tag, len(m.Tags))
		copy(c.Tags, m.Tags)
	}
	return c
}

// HasTag reports whether a tag with the given id is attached.
func (m MediaItem) HasTag(tagID string) bool {
	for _, t := range m.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// WithTag returns a copy with tag attached. Attaching a tag that is already present
// returns an unchanged copy.
func (m MediaItem) WithTag(tag Tag) MediaItem {
	c := m.Clone()
	if c.HasTag(tag.ID) {
		return c
	}
	c.Tags = append(c.Tags, tag)
	return c
}

// WithoutTag returns a copy with the tag removed.
func (m MediaItem) WithoutTag(tagID string) MediaItem {
	c := m.Clone()
	if !c.HasTag(tagID) {
		return c
	}
	kept := make([]Tag, 0, len(c.Tags)-1)
	for _, t := range c.Tags {
		if t.ID != tagID {
			kept = append(kept, t)
		}
	}
	c.Tags = kept
	return c
}

// CloneItems deep-copies a slice of media items. A nil input yields an empty slice.
func CloneItems(items []MediaItem) []MediaItem {
	out := make([]MediaItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// ScanResult is returned by a directory scan.
type ScanResult struct {
	Message     string `json:"message"`
	MediaCount  *int   `json:"media_count,omitempty"`
	FolderCount *int   `json:"folder_count,omitempty"`
}

// Ack is the acknowledgement returned by tag attach and detach calls.
type Ack struct {
	Message string `json:"message"`
}
