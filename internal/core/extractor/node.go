package extractor

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// NodeNormalizer handles the web GraphQL media node ("shortcode_media"),
// found in graphql query responses, the legacy shared page state and the
// embed page's additional data. Keys lists candidate paths of the node
// inside the payload; the first one present wins.
type NodeNormalizer struct {
	Keys      []string
	Shortcode string
}

// SharedDataNormalizer handles the legacy window._sharedData page state
func SharedDataNormalizer(shortcode string) NodeNormalizer {
	return NodeNormalizer{
		Keys: []string{
			"entry_data.PostPage.0.graphql.shortcode_media",
			"entry_data.PostPage.0.media",
		},
		Shortcode: shortcode,
	}
}

type mediaNode struct {
	Shortcode        string `json:"shortcode"`
	VideoURL         string `json:"video_url"`
	DisplayURL       string `json:"display_url"`
	ThumbnailSrc     string `json:"thumbnail_src"`
	DisplayResources []struct {
		Src         string `json:"src"`
		ConfigWidth int    `json:"config_width"`
	} `json:"display_resources"`
	EdgeMediaToCaption struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
	EdgeSidecarToChildren struct {
		Edges []struct {
			Node mediaNode `json:"node"`
		} `json:"edges"`
	} `json:"edge_sidecar_to_children"`
	Owner struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
	} `json:"owner"`
}

func (n NodeNormalizer) Normalize(payload []byte) *Result {
	if !gjson.ValidBytes(payload) {
		return nil
	}
	doc := gjson.ParseBytes(payload)

	for _, key := range n.Keys {
		raw := doc.Get(key)
		if !raw.IsObject() {
			continue
		}
		var node mediaNode
		if err := json.Unmarshal([]byte(raw.Raw), &node); err != nil {
			return nil
		}
		item := node.rawItem()
		if item.Shortcode == "" {
			item.Shortcode = n.Shortcode
		}
		return classify(item)
	}
	return nil
}

func (node *mediaNode) rawItem() rawItem {
	item := rawItem{
		Username:   node.Owner.Username,
		AuthorName: node.Owner.FullName,
		Shortcode:  node.Shortcode,
	}
	if edges := node.EdgeMediaToCaption.Edges; len(edges) > 0 {
		item.CaptionEdge = edges[0].Node.Text
	}
	item.Videos = appendNonEmpty(nil, node.VideoURL)
	item.Images = node.images()

	for i := range node.EdgeSidecarToChildren.Edges {
		child := &node.EdgeSidecarToChildren.Edges[i].Node
		item.Children = append(item.Children, rawItem{
			Videos: appendNonEmpty(nil, child.VideoURL),
			Images: child.images(),
		})
	}
	return item
}

// images returns display_url first, then display resources from the widest down
func (node *mediaNode) images() []string {
	out := appendNonEmpty(nil, node.DisplayURL)
	best, bestWidth := "", -1
	for _, r := range node.DisplayResources {
		if r.Src != "" && r.ConfigWidth > bestWidth {
			best, bestWidth = r.Src, r.ConfigWidth
		}
	}
	return appendNonEmpty(out, best, node.ThumbnailSrc)
}
