package extractor

import (
	"strings"
)

// Normalizer converts one raw payload shape into a Result. It returns nil
// when the payload does not carry a usable media reference.
type Normalizer interface {
	Normalize(payload []byte) *Result
}

// rawItem is the shape-neutral view every normalizer maps its payload to
// before classification. Candidate slices are in priority order.
type rawItem struct {
	Videos   []string
	Images   []string
	Children []rawItem

	// Caption candidates: caption edge text, articleBody, headline, caption
	CaptionEdge string
	ArticleBody string
	Headline    string
	Caption     string

	// Author candidates: owner username, author name, alternate name, raw string
	Username      string
	AuthorName    string
	AlternateName string
	AuthorString  string

	Shortcode string
}

// classify applies the shared video > carousel > image rule and returns nil
// when no media item with a valid URL survives.
func classify(item rawItem) *Result {
	res := &Result{
		Caption:   item.caption(),
		Author:    item.author(),
		Shortcode: item.Shortcode,
	}

	switch {
	case len(item.Videos) > 0:
		res.Type = ContentTypeVideo
		thumb := firstValid(item.Images)
		res.Thumbnail = thumb
		if v := firstValid(item.Videos); v != "" {
			res.Media = append(res.Media, MediaItem{Kind: MediaKindVideo, URL: v, Thumbnail: thumb})
		}
	case len(item.Children) > 0:
		res.Type = ContentTypeCarousel
		for _, child := range item.Children {
			if m, ok := child.mediaItem(); ok {
				res.Media = append(res.Media, m)
			}
		}
		res.Thumbnail = firstValid(item.Images)
		if res.Thumbnail == "" && len(res.Media) > 0 {
			res.Thumbnail = res.Media[0].Thumbnail
			if res.Thumbnail == "" && res.Media[0].Kind == MediaKindImage {
				res.Thumbnail = res.Media[0].URL
			}
		}
	default:
		res.Type = ContentTypeImage
		if img := firstValid(item.Images); img != "" {
			res.Thumbnail = img
			res.Media = append(res.Media, MediaItem{Kind: MediaKindImage, URL: img})
		}
	}

	if len(res.Media) == 0 {
		return nil
	}
	return res
}

// mediaItem classifies a carousel child
func (item rawItem) mediaItem() (MediaItem, bool) {
	if len(item.Videos) > 0 {
		v := firstValid(item.Videos)
		if v == "" {
			return MediaItem{}, false
		}
		return MediaItem{Kind: MediaKindVideo, URL: v, Thumbnail: firstValid(item.Images)}, true
	}
	img := firstValid(item.Images)
	if img == "" {
		return MediaItem{}, false
	}
	return MediaItem{Kind: MediaKindImage, URL: img}, true
}

func (item rawItem) caption() string {
	return firstNonEmpty(item.CaptionEdge, item.ArticleBody, item.Headline, item.Caption)
}

func (item rawItem) author() string {
	if a := firstNonEmpty(item.Username, item.AuthorName, item.AlternateName, item.AuthorString); a != "" {
		return a
	}
	return UnknownAuthor
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstValid(urls []string) string {
	for _, u := range urls {
		if IsValidMediaURL(u) {
			return u
		}
	}
	return ""
}

// appendNonEmpty appends the non-empty values to dst
func appendNonEmpty(dst []string, values ...string) []string {
	for _, v := range values {
		if v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}
