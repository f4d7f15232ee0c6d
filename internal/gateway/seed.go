package gateway

import (
	"time"

	"github.com/lanalbum/albumclient/internal/model"
)

const mib = 1024 * 1024

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// seedTags, seedMedia and seedFolders make up the demo collection served in fixture mode.
func seedTags() []model.Tag {
	return []model.Tag{
		{ID: "tag1", Name: "Nature"},
		{ID: "tag2", Name: "Travel"},
		{ID: "tag3", Name: "Family"},
		{ID: "tag4", Name: "Food"},
		{ID: "tag5", Name: "Pets"},
		{ID: "tag6", Name: "Vacation"},
		{ID: "tag7", Name: "Friends"},
		{ID: "tag8", Name: "Selfie"},
		{ID: "tag9", Name: "Landscape"},
		{ID: "tag10", Name: "Architecture"},
	}
}

func seedMedia(tags []model.Tag) []model.MediaItem {
	tag := func(idx ...int) []model.Tag {
		out := make([]model.Tag, len(idx))
		for i, n := range idx {
			out[i] = tags[n]
		}
		return out
	}
	return []model.MediaItem{
		{ID: "media1", Kind: model.KindImage, Path: "/images/image1.jpg", Title: "Beautiful sunset",
			CreatedAt: ts("2023-05-15T18:30:00Z"), Liked: true, LikeCount: 12, Size: 2 * mib, Tags: tag(0, 8)},
		{ID: "media2", Kind: model.KindVideo, Path: "/videos/video1.mp4", Title: "Beach waves",
			CreatedAt: ts("2023-05-20T14:20:00Z"), Favorited: true, LikeCount: 8, Size: 4 * mib, Tags: tag(0, 1, 5)},
		{ID: "media3", Kind: model.KindImage, Path: "/images/image2.jpg", Title: "Mountain view",
			CreatedAt: ts("2023-06-01T10:15:00Z"), LikeCount: 5, Size: 3 * mib / 2, Tags: tag(0, 8)},
		{ID: "media4", Kind: model.KindImage, Path: "/images/image3.jpg", Title: "City skyline",
			CreatedAt: ts("2023-06-10T20:45:00Z"), Liked: true, Favorited: true, LikeCount: 20, Size: 3 * mib, Tags: tag(1, 9)},
		{ID: "media5", Kind: model.KindVideo, Path: "/videos/video2.mp4", Title: "Family gathering",
			CreatedAt: ts("2023-06-15T16:30:00Z"), LikeCount: 15, Size: 8 * mib, Tags: tag(2, 6)},
		{ID: "media6", Kind: model.KindImage, Path: "/images/image4.jpg", Title: "Delicious dinner",
			CreatedAt: ts("2023-06-20T19:00:00Z"), Liked: true, LikeCount: 10, Size: 22 * mib / 10, Tags: tag(3)},
		{ID: "media7", Kind: model.KindImage, Path: "/images/image5.jpg", Title: "My cat",
			CreatedAt: ts("2023-06-25T09:10:00Z"), Favorited: true, LikeCount: 18, Size: 18 * mib / 10, Tags: tag(4)},
		{ID: "media8", Kind: model.KindVideo, Path: "/videos/video3.mp4", Title: "Beach vacation",
			CreatedAt: ts("2023-07-01T11:20:00Z"), Liked: true, Favorited: true, LikeCount: 25, Size: 6 * mib, Tags: tag(1, 5)},
		{ID: "media9", Kind: model.KindImage, Path: "/images/image6.jpg", Title: "Friends reunion",
			CreatedAt: ts("2023-07-05T21:30:00Z"), LikeCount: 14, Size: 5 * mib / 2, Tags: tag(6)},
		{ID: "media10", Kind: model.KindImage, Path: "/images/image7.jpg", Title: "Selfie at the park",
			CreatedAt: ts("2023-07-10T15:40:00Z"), Liked: true, LikeCount: 9, Size: 12 * mib / 10, Tags: tag(7)},
	}
}

func seedFolders() []model.Folder {
	root := func(id, name, created string, subs, media []string) model.Folder {
		return model.Folder{ID: id, Name: name, Path: "/" + name, CreatedAt: ts(created), Subfolders: subs, MediaItems: media}
	}
	child := func(id, parent, parentName, name, created string, media []string) model.Folder {
		return model.Folder{ID: id, Name: name, Path: "/" + parentName + "/" + name, CreatedAt: ts(created),
			ParentID: model.StringPtr(parent), Subfolders: []string{}, MediaItems: media}
	}
	return []model.Folder{
		root("folder1", "Vacations", "2023-01-01T00:00:00Z", []string{"folder2", "folder3"}, []string{"media8"}),
		child("folder2", "folder1", "Vacations", "Beach Trip 2023", "2023-05-15T00:00:00Z", []string{"media2"}),
		child("folder3", "folder1", "Vacations", "Mountain Retreat", "2023-06-01T00:00:00Z", []string{"media3"}),
		root("folder4", "Family", "2023-02-01T00:00:00Z", []string{"folder5"}, []string{"media5"}),
		child("folder5", "folder4", "Family", "Gatherings", "2023-06-15T00:00:00Z", []string{"media9"}),
		root("folder6", "Pets", "2023-03-01T00:00:00Z", []string{}, []string{"media7"}),
		root("folder7", "Food", "2023-04-01T00:00:00Z", []string{}, []string{"media6"}),
		root("folder8", "Landscapes", "2023-05-01T00:00:00Z", []string{}, []string{"media1", "media4"}),
		root("folder9", "Selfies", "2023-07-01T00:00:00Z", []string{}, []string{"media10"}),
	}
}
