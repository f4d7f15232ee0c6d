package model

import "time"

// Folder is a node of the server-side folder tree. Folders are read-only on the client.
type Folder struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at"`
	ParentID   *string   `json:"parent_id"`
	Subfolders []string  `json:"subfolders,omitempty"`
	MediaItems []string  `json:"media_items,omitempty"`
}

// IsRoot reports whether the folder has no parent.
func (f Folder) IsRoot() bool {
	return f.ParentID == nil
}

// Clone returns a copy that shares no slices or pointers with f.
func (f Folder) Clone() Folder {
	c := f
	if f.ParentID != nil {
		p := *f.ParentID
		c.ParentID = &p
	}
	if f.Subfolders != nil {
		c.Subfolders = append([]string(nil), f.Subfolders...)
	}
	if f.MediaItems != nil {
		c.MediaItems = append([]string(nil), f.MediaItems...)
	}
	return c
}

// CloneFolders deep-copies a slice of folders. A nil input yields an empty slice.
func CloneFolders(folders []Folder) []Folder {
	out := make([]Folder, len(folders))
	for i, f := range folders {
		out[i] = f.Clone()
	}
	return out
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}
