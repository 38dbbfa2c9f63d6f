package extractor

import (
	"github.com/tidwall/gjson"
)

// InlineMedia holds media URLs scraped straight out of page markup
type InlineMedia struct {
	VideoURL   string
	DisplayURL string
}

// Empty reports whether no inline URL was found
func (m InlineMedia) Empty() bool {
	return m.VideoURL == "" && m.DisplayURL == ""
}

// LinkedDataNormalizer handles <script type="application/ld+json"> documents.
// Inline URLs fill the gaps the linked data leaves: the inline video only
// for a video object without a content URL, the inline image only when the
// document lists none. With PreferInline they are tried before the
// linked-data media fields.
type LinkedDataNormalizer struct {
	Inline       InlineMedia
	PreferInline bool
	Shortcode    string
}

// linked-data node types that describe the post itself
var postNodeTypes = map[string]bool{
	"VideoObject":        true,
	"ImageObject":        true,
	"SocialMediaPosting": true,
	"Article":            true,
	"BlogPosting":        true,
	"MediaObject":        true,
}

// Normalize accepts a nil payload, in which case only the inline URLs are used.
func (n LinkedDataNormalizer) Normalize(payload []byte) *Result {
	item := rawItem{Shortcode: n.Shortcode}
	typ := ""

	if payload != nil {
		if !gjson.ValidBytes(payload) {
			return nil
		}
		node := selectPostNode(gjson.ParseBytes(payload))
		if !node.IsObject() {
			return nil
		}
		item = linkedDataItem(node)
		if item.Shortcode == "" {
			item.Shortcode = n.Shortcode
		}
		typ = nodeType(node)
	}

	if n.PreferInline {
		item.Videos = append(appendNonEmpty(nil, n.Inline.VideoURL), item.Videos...)
		item.Images = append(appendNonEmpty(nil, n.Inline.DisplayURL), item.Images...)
		return classify(item)
	}

	// The first "video_url" on a page may belong to any carousel child, so
	// it only stands in for a video object that lacks its own URL.
	if len(item.Videos) == 0 && (payload == nil || typ == "VideoObject") {
		item.Videos = appendNonEmpty(item.Videos, n.Inline.VideoURL)
	}
	if len(item.Images) == 0 {
		item.Images = appendNonEmpty(item.Images, n.Inline.DisplayURL)
	}

	return classify(item)
}

// selectPostNode picks the node describing the post out of an object, an
// array of nodes or an @graph container.
func selectPostNode(doc gjson.Result) gjson.Result {
	var nodes []gjson.Result
	switch {
	case doc.IsArray():
		nodes = doc.Array()
	case doc.IsObject():
		if graph := member(doc, "@graph"); graph.IsArray() {
			nodes = graph.Array()
		} else {
			return doc
		}
	default:
		return gjson.Result{}
	}

	for _, node := range nodes {
		if postNodeTypes[nodeType(node)] {
			return node
		}
	}
	for _, node := range nodes {
		if node.IsObject() {
			return node
		}
	}
	return gjson.Result{}
}

func linkedDataItem(node gjson.Result) rawItem {
	item := rawItem{
		ArticleBody: node.Get("articleBody").String(),
		Headline:    node.Get("headline").String(),
		Caption:     textField(node.Get("caption")),
		Shortcode:   node.Get("identifier.value").String(),
	}

	author := node.Get("author")
	if author.IsArray() {
		author = author.Get("0")
	}
	if author.Type == gjson.String {
		item.AuthorString = author.String()
	} else {
		item.AuthorName = author.Get("name").String()
		item.AlternateName = author.Get("alternateName").String()
	}

	typ := nodeType(node)
	if typ == "VideoObject" {
		item.Videos = appendNonEmpty(item.Videos, node.Get("contentUrl").String())
	}
	for _, v := range asList(node.Get("video")) {
		item.Videos = appendNonEmpty(item.Videos, v.Get("contentUrl").String())
		item.Images = append(item.Images, urlList(v.Get("thumbnailUrl"))...)
	}
	if typ == "ImageObject" {
		item.Images = appendNonEmpty(item.Images, node.Get("contentUrl").String(), node.Get("url").String())
	}

	images := urlList(node.Get("image"))
	item.Images = append(item.Images, images...)
	item.Images = append(item.Images, urlList(node.Get("thumbnailUrl"))...)

	if len(images) > 1 {
		for _, img := range images {
			item.Children = append(item.Children, rawItem{Images: []string{img}})
		}
	}
	return item
}

// member looks up a key without gjson path syntax, for keys such as "@type"
func member(node gjson.Result, key string) gjson.Result {
	var out gjson.Result
	node.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out = v
			return false
		}
		return true
	})
	return out
}

func nodeType(node gjson.Result) string {
	t := member(node, "@type")
	if t.IsArray() {
		t = t.Get("0")
	}
	return t.String()
}

// textField reads a value that is either a string or an object with "text"
func textField(v gjson.Result) string {
	if v.IsObject() {
		return v.Get("text").String()
	}
	if v.Type == gjson.String {
		return v.String()
	}
	return ""
}

func asList(v gjson.Result) []gjson.Result {
	if !v.Exists() {
		return nil
	}
	if v.IsArray() {
		return v.Array()
	}
	return []gjson.Result{v}
}

// urlList flattens a string, an object with url/contentUrl, or an array of either
func urlList(v gjson.Result) []string {
	var out []string
	for _, e := range asList(v) {
		switch {
		case e.Type == gjson.String:
			out = appendNonEmpty(out, e.String())
		case e.IsObject():
			out = appendNonEmpty(out, firstNonEmpty(e.Get("url").String(), e.Get("contentUrl").String()))
		}
	}
	return out
}
