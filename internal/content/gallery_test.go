package content

import (
	"context"
	"strings"
	"testing"

	"github.com/abhinandan-events/site-bff-go/internal/media"
	"github.com/abhinandan-events/site-bff-go/internal/model"
)

func TestGalleryPhotos(t *testing.T) {
	c := New("http://backend.invalid/api", media.NewBaseResolver(testMediaBase))
	res := c.GalleryPhotos(context.Background())
	if res.Source != SourceStatic {
		t.Fatalf("Source = %v, want static", res.Source)
	}
	if len(res.Data) != 3 {
		t.Fatalf("len(photos) = %d, want 3", len(res.Data))
	}
	for i, p := range res.Data {
		if p.ID != model.IntID(i+1) {
			t.Errorf("photo %d ID = %q, want %d", i, p.ID, i+1)
		}
		if !strings.HasPrefix(p.Image, testMediaBase+"/") {
			t.Errorf("photo %d image %q not absolute", i, p.Image)
		}
	}
	if res.Data[0].Category != "Corporate" || res.Data[2].Category != "Social" {
		t.Errorf("categories = %q, %q", res.Data[0].Category, res.Data[2].Category)
	}
}

func TestFlattenPhotos(t *testing.T) {
	groups := []model.PhotoGroup{
		{Category: "A", Items: []model.PhotoItem{{Title: "a1", Image: "a1.jpg"}, {Title: "a2", Image: "a2.jpg"}}},
		{Category: "Empty"},
		{Category: "B", Items: []model.PhotoItem{{Title: "b1", Image: "b1.jpg"}}},
	}
	got := FlattenPhotos(groups)
	want := []model.Photo{
		{ID: "1", Category: "A", Title: "a1", Image: "a1.jpg"},
		{ID: "2", Category: "A", Title: "a2", Image: "a2.jpg"},
		{ID: "3", Category: "B", Title: "b1", Image: "b1.jpg"},
	}
	if len(got) != len(want) {
		t.Fatalf("FlattenPhotos() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("photo %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if got := FlattenPhotos(nil); got == nil || len(got) != 0 {
		t.Errorf("FlattenPhotos(nil) = %v, want empty list", got)
	}
}

func TestGalleryVideos(t *testing.T) {
	c := New("http://backend.invalid/api", media.NewBaseResolver(testMediaBase))
	res := c.GalleryVideos(context.Background())
	if res.Source != SourceStatic || len(res.Data) != 4 {
		t.Fatalf("GalleryVideos() = %d from %v", len(res.Data), res.Source)
	}

	if got := res.Data[0].Thumbnail; got != "https://img.youtube.com/vi/m75yqyOkZ48/hqdefault.jpg" {
		t.Errorf("youtube thumbnail = %q", got)
	}
	if got := res.Data[2].Thumbnail; got != testMediaBase+"/Reel1.png" {
		t.Errorf("instagram thumbnail = %q", got)
	}
	// The last bundled reel has no platform; it is inferred from the URL.
	if got := res.Data[3].Platform; got != model.PlatformInstagram {
		t.Errorf("inferred platform = %q, want instagram", got)
	}
}

func TestGalleryWithoutDataset(t *testing.T) {
	c := New("http://backend.invalid/api", nil, WithFallback(nil))
	if res := c.GalleryPhotos(context.Background()); res.Source != SourceUnavailable {
		t.Errorf("GalleryPhotos() source = %v, want unavailable", res.Source)
	}
	if res := c.GalleryVideos(context.Background()); res.Source != SourceUnavailable {
		t.Errorf("GalleryVideos() source = %v, want unavailable", res.Source)
	}
}
