package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseSortingMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SortingMode
		wantErr bool
	}{
		{"recent", SortRecent, false},
		{"popular", SortPopular, false},
		{"random", SortRandom, false},
		{"oldest", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortingMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortingMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortingMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithTagNoDuplicate(t *testing.T) {
	item := MediaItem{ID: "m1", Tags: []Tag{{ID: "t1", Name: "Nature"}}}

	once := item.WithTag(Tag{ID: "t2", Name: "Travel"})
	twice := once.WithTag(Tag{ID: "t2", Name: "Travel"})

	if len(twice.Tags) != 2 {
		t.Fatalf("WithTag twice gave %d tags, want 2", len(twice.Tags))
	}
	if len(item.Tags) != 1 {
		t.Errorf("WithTag mutated the receiver: %v", item.Tags)
	}
}

func TestWithoutTag(t *testing.T) {
	item := MediaItem{ID: "m1", Tags: []Tag{{ID: "t1"}, {ID: "t2"}}}

	got := item.WithoutTag("t1")
	if got.HasTag("t1") || !got.HasTag("t2") {
		t.Errorf("WithoutTag(t1) = %v", got.Tags)
	}
	if absent := got.WithoutTag("t9"); len(absent.Tags) != 1 {
		t.Errorf("WithoutTag on absent tag changed tags: %v", absent.Tags)
	}
	if !item.HasTag("t1") {
		t.Error("WithoutTag mutated the receiver")
	}
}

func TestFolderCloneIsDeep(t *testing.T) {
	f := Folder{ID: "f2", ParentID: StringPtr("f1"), Subfolders: []string{"f3"}}
	c := f.Clone()
	*c.ParentID = "other"
	c.Subfolders[0] = "other"

	if *f.ParentID != "f1" || f.Subfolders[0] != "f3" {
		t.Errorf("Clone shares state with original: %+v", f)
	}
}

func TestMediaItemAcceptsNaiveTimestamp(t *testing.T) {
	var item MediaItem
	if err := json.Unmarshal([]byte(`{"id":"m1","type":"image","path":"/a.jpg","created_at":"2023-05-15T18:30:00.123456"}`), &item); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := time.Date(2023, 5, 15, 18, 30, 0, 123456000, time.UTC)
	if !item.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", item.CreatedAt, want)
	}
	if item.Kind != KindImage || item.Path != "/a.jpg" {
		t.Errorf("other fields lost: %+v", item)
	}

	var f Folder
	if err := json.Unmarshal([]byte(`{"id":"f1","name":"x","created_at":"yesterday"}`), &f); err == nil {
		t.Error("Unmarshal(bad timestamp) error = nil, want error")
	}
}
