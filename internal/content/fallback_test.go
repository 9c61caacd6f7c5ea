package content

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDataset(t *testing.T) {
	ds, err := DefaultDataset()
	if err != nil {
		t.Fatalf("DefaultDataset() error = %v", err)
	}
	if len(ds.Events) != 4 || len(ds.Testimonials) != 3 || len(ds.Photos) != 4 ||
		len(ds.Videos) != 4 || len(ds.Services) != 4 || len(ds.ServiceFeatures) != 3 {
		t.Errorf("DefaultDataset() sizes: events=%d testimonials=%d photos=%d videos=%d services=%d features=%d",
			len(ds.Events), len(ds.Testimonials), len(ds.Photos), len(ds.Videos), len(ds.Services), len(ds.ServiceFeatures))
	}
	for _, ev := range ds.Events {
		if ev.ID == "" || ev.Location == "" || ev.Image == "" {
			t.Errorf("bundled event incomplete: %+v", ev)
		}
	}
	if ds.GalleryStats.TotalPhotos != 450 || ds.GalleryStats.TotalVideos != 85 {
		t.Errorf("GalleryStats = %+v", ds.GalleryStats)
	}
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.yaml")
	doc := "events:\n  - id: \"9\"\n    title: Custom\n    image: custom.jpg\n    location: Jaipur\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	ds, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}
	if len(ds.Events) != 1 || ds.Events[0].ID != "9" || ds.Events[0].Location != "Jaipur" {
		t.Errorf("LoadDataset() events = %+v", ds.Events)
	}

	if _, err := LoadDataset(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadDataset(missing) succeeded, want error")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("events: [unclosed"), 0o600)
	if _, err := LoadDataset(bad); err == nil {
		t.Error("LoadDataset(bad yaml) succeeded, want error")
	}

	ds, err = LoadDataset("")
	if err != nil || len(ds.Events) != 4 {
		t.Errorf("LoadDataset(\"\") = %v, %v; want bundled dataset", ds, err)
	}
}
