package extractor

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	inlineVideoRegex   = regexp.MustCompile(`"video_url"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	inlineDisplayRegex = regexp.MustCompile(`"display_url"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	sharedDataPrefix   = regexp.MustCompile(`^\s*window\._sharedData\s*=\s*`)
	additionalDataCall = regexp.MustCompile(`(?s)window\.__additionalDataLoaded\(\s*'[^']*'\s*,\s*(.+)\)\s*;?\s*$`)
)

// page is fetched markup, parsed once and searched by each stage
type page struct {
	raw []byte
	doc *goquery.Document
}

func parsePage(body []byte) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &page{raw: body, doc: doc}, nil
}

// linkedData returns the first ld+json block that parses as JSON
func (p *page) linkedData() []byte {
	var found []byte
	p.doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if b := validJSON(s.Text()); b != nil {
			found = b
			return false
		}
		return true
	})
	return found
}

// sharedData returns the legacy window._sharedData page state
func (p *page) sharedData() []byte {
	return p.scriptJSON(func(text string) string {
		loc := sharedDataPrefix.FindStringIndex(text)
		if loc == nil {
			return ""
		}
		return strings.TrimSuffix(strings.TrimSpace(text[loc[1]:]), ";")
	})
}

// additionalData returns the argument of window.__additionalDataLoaded,
// which carries a shortcode_media node on embed pages
func (p *page) additionalData() []byte {
	return p.scriptJSON(func(text string) string {
		m := additionalDataCall.FindStringSubmatch(strings.TrimSpace(text))
		if m == nil {
			return ""
		}
		return m[1]
	})
}

func (p *page) scriptJSON(capture func(text string) string) []byte {
	var found []byte
	p.doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		span := capture(s.Text())
		if span == "" {
			return true
		}
		if b := validJSON(span); b != nil {
			found = b
			return false
		}
		return true
	})
	return found
}

// inline scrapes raw "video_url" / "display_url" strings out of the markup
func (p *page) inline() InlineMedia {
	return InlineMedia{
		VideoURL:   inlineString(inlineVideoRegex, p.raw),
		DisplayURL: inlineString(inlineDisplayRegex, p.raw),
	}
}

func inlineString(re *regexp.Regexp, raw []byte) string {
	m := re.FindSubmatch(raw)
	if m == nil {
		return ""
	}
	// the capture is a JSON string body, so \u0026 and \/ escapes decode here
	var s string
	if err := json.Unmarshal(append(append([]byte{'"'}, m[1]...), '"'), &s); err != nil {
		return ""
	}
	if !IsValidMediaURL(s) {
		return ""
	}
	return s
}

func validJSON(span string) []byte {
	b := []byte(strings.TrimSpace(span))
	if len(b) == 0 || !json.Valid(b) {
		return nil
	}
	return b
}
