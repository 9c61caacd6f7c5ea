package content

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abhinandan-events/site-bff-go/internal/model"
)

//go:embed fallback.yaml
var bundledFallback []byte

// Dataset is the bundled content served when the backend cannot be reached.
// Media references inside it are relative and resolved at read time.
type Dataset struct {
	Events          []model.Event          `yaml:"events"`
	Testimonials    []model.RawTestimonial `yaml:"testimonials"`
	Photos          []model.PhotoGroup     `yaml:"photos"`
	Videos          []model.Video          `yaml:"videos"`
	GalleryStats    model.GalleryStats     `yaml:"galleryStats"`
	Services        []model.Service        `yaml:"services"`
	ServiceFeatures []model.ServiceFeature `yaml:"serviceFeatures"`
}

// DefaultDataset parses the dataset compiled into the binary.
func DefaultDataset() (*Dataset, error) {
	return parseDataset(bundledFallback)
}

// LoadDataset reads a dataset from a YAML file. An empty path yields the bundled dataset.
func LoadDataset(path string) (*Dataset, error) {
	if path == "" {
		return DefaultDataset()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback dataset: %w", err)
	}
	return parseDataset(b)
}

func parseDataset(b []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("parse fallback dataset: %w", err)
	}
	return &ds, nil
}

// testimonials returns the bundled testimonials in canonical shape.
func (d *Dataset) testimonials() []model.Testimonial {
	out := make([]model.Testimonial, 0, len(d.Testimonials))
	for _, raw := range d.Testimonials {
		out = append(out, model.NormalizeTestimonial(raw))
	}
	return out
}
