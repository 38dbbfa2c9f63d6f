package extractor

import (
	"net/url"
	"strings"
)

// ContentType classifies a resolved post
type ContentType string

const (
	ContentTypeImage    ContentType = "image"
	ContentTypeVideo    ContentType = "video"
	ContentTypeCarousel ContentType = "carousel"
	// ContentTypePost is the degraded shape, used when only a thumbnail is known
	ContentTypePost ContentType = "post"
)

// MediaKind is the kind of a single media item
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// UnknownAuthor is used when no author field resolves
const UnknownAuthor = "unknown"

// MediaItem is one downloadable asset of a post
type MediaItem struct {
	Kind      MediaKind `json:"type"`
	URL       string    `json:"url"`
	Thumbnail string    `json:"thumbnail,omitempty"`
}

// Result is the normalized view of a post. It is built once by the
// strategy that succeeded and never modified afterwards.
type Result struct {
	Type      ContentType `json:"type"`
	Caption   string      `json:"caption"`
	Author    string      `json:"author"`
	Thumbnail string      `json:"thumbnail,omitempty"`
	Media     []MediaItem `json:"media"`
	Shortcode string      `json:"shortcode,omitempty"`
}

// IsValidMediaURL reports whether s is an absolute http(s) URL
func IsValidMediaURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
