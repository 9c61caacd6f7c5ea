package content

import (
	"context"
	"errors"
	"time"

	"github.com/abhinandan-events/site-bff-go/internal/media"
	"github.com/abhinandan-events/site-bff-go/internal/model"
)

var errNoDataset = errors.New("no bundled dataset configured")

// GalleryPhotos flattens the bundled photo groups into a single list. IDs are assigned
// sequentially from 1 in group order, so they are stable for a given dataset.
func (c *Client) GalleryPhotos(ctx context.Context) Result[[]model.Photo] {
	if c.fallback == nil {
		return Result[[]model.Photo]{Source: SourceUnavailable, Err: errNoDataset}
	}
	photos := FlattenPhotos(c.fallback.Photos)
	for i := range photos {
		photos[i].Image = c.media.Resolve(ctx, photos[i].Image)
	}
	c.observe("gallery_photos", SourceStatic, time.Now())
	return Result[[]model.Photo]{Data: photos, Source: SourceStatic}
}

// GalleryVideos returns the bundled videos with platform and thumbnail filled in.
func (c *Client) GalleryVideos(ctx context.Context) Result[[]model.Video] {
	if c.fallback == nil {
		return Result[[]model.Video]{Source: SourceUnavailable, Err: errNoDataset}
	}
	videos := make([]model.Video, len(c.fallback.Videos))
	for i, v := range c.fallback.Videos {
		v.Platform = media.InferPlatform(v.URL, v.Platform)
		v.Thumbnail = c.media.Resolve(ctx, v.Thumbnail)
		v.Thumbnail = media.VideoThumbnail(v)
		videos[i] = v
	}
	c.observe("gallery_videos", SourceStatic, time.Now())
	return Result[[]model.Video]{Data: videos, Source: SourceStatic}
}

// FlattenPhotos turns category groups into photos without resolving images.
func FlattenPhotos(groups []model.PhotoGroup) []model.Photo {
	out := []model.Photo{}
	next := 1
	for _, g := range groups {
		for _, item := range g.Items {
			out = append(out, model.Photo{
				ID:       model.IntID(next),
				Category: g.Category,
				Title:    item.Title,
				Image:    item.Image,
			})
			next++
		}
	}
	return out
}
