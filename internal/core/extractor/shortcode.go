package extractor

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrNotRecognized is returned when a URL is not an Instagram post, reel,
// tv or story link
var ErrNotRecognized = errors.New("url is not a recognized instagram post")

// PostKind is the content category hinted by the URL path
type PostKind string

const (
	PostKindPost  PostKind = "post"
	PostKindReel  PostKind = "reel"
	PostKindTV    PostKind = "tv"
	PostKindStory PostKind = "story"
)

// Identifier is a parsed post URL
type Identifier struct {
	Shortcode string
	Kind      PostKind
	// URL is the original input, untouched
	URL string

	storyUser string
}

// Path shapes, first match wins. An optional leading username segment is
// accepted for /p/, /reel/ and /tv/ share links.
var shortcodePatterns = []struct {
	re   *regexp.Regexp
	kind PostKind
}{
	{regexp.MustCompile(`^/(?:[A-Za-z0-9_.]+/)?p/([A-Za-z0-9_-]+)`), PostKindPost},
	{regexp.MustCompile(`^/(?:[A-Za-z0-9_.]+/)?reel/([A-Za-z0-9_-]+)`), PostKindReel},
	{regexp.MustCompile(`^/reels/([A-Za-z0-9_-]+)`), PostKindReel},
	{regexp.MustCompile(`^/(?:[A-Za-z0-9_.]+/)?tv/([A-Za-z0-9_-]+)`), PostKindTV},
	{regexp.MustCompile(`^/stories/([^/]+)/([0-9]+)`), PostKindStory},
}

// IsInstagramHost reports whether host is instagram.com, one of its
// subdomains or the instagr.am short domain
func IsInstagramHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	switch host {
	case "instagram.com", "instagr.am", "www.instagr.am":
		return true
	}
	return strings.HasSuffix(host, ".instagram.com")
}

// Identify extracts the shortcode from an Instagram URL. It never touches
// the network.
func Identify(rawURL string) (Identifier, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Identifier{}, ErrNotRecognized
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return Identifier{}, ErrNotRecognized
	}
	if !IsInstagramHost(u.Hostname()) {
		return Identifier{}, ErrNotRecognized
	}

	for _, p := range shortcodePatterns {
		m := p.re.FindStringSubmatch(u.Path)
		if m == nil {
			continue
		}
		id := Identifier{Kind: p.kind, URL: rawURL}
		if p.kind == PostKindStory {
			id.storyUser = m[1]
			id.Shortcode = m[2]
		} else {
			id.Shortcode = m[1]
		}
		return id, nil
	}
	return Identifier{}, ErrNotRecognized
}

// PostURL returns the canonical page URL for the identifier under base
// (e.g. "https://www.instagram.com"). The result always ends with a slash.
func (id Identifier) PostURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	switch id.Kind {
	case PostKindReel:
		return base + "/reel/" + id.Shortcode + "/"
	case PostKindTV:
		return base + "/tv/" + id.Shortcode + "/"
	case PostKindStory:
		return base + "/stories/" + id.storyUser + "/" + id.Shortcode + "/"
	default:
		return base + "/p/" + id.Shortcode + "/"
	}
}
