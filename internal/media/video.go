package media

import (
	"net/url"
	"strings"

	"github.com/abhinandan-events/site-bff-go/internal/model"
)

// InferPlatform returns given when it is a known platform, otherwise guesses from the URL.
func InferPlatform(rawURL, given string) string {
	switch strings.ToLower(strings.TrimSpace(given)) {
	case model.PlatformYouTube:
		return model.PlatformYouTube
	case model.PlatformInstagram:
		return model.PlatformInstagram
	}
	if strings.Contains(strings.ToLower(rawURL), "instagram.com") {
		return model.PlatformInstagram
	}
	return model.PlatformYouTube
}

// VideoThumbnail returns the explicit thumbnail when set, otherwise the YouTube poster
// frame derived from the video URL. Instagram reels without an override have none.
func VideoThumbnail(v model.Video) string {
	if v.URL == "" {
		return ""
	}
	if v.Thumbnail != "" {
		return v.Thumbnail
	}
	if id := YouTubeID(v.URL); id != "" {
		return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
	}
	return ""
}

// YouTubeID extracts the video id from youtu.be/ID, watch?v=ID and /shorts/ID URLs.
func YouTubeID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	if strings.Contains(u.Hostname(), "youtu.be") {
		return firstSegment(u.Path)
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	if _, rest, ok := strings.Cut(u.Path, "/shorts/"); ok {
		return firstSegment(rest)
	}
	return ""
}

func firstSegment(p string) string {
	seg, _, _ := strings.Cut(strings.TrimLeft(p, "/"), "/")
	return seg
}
