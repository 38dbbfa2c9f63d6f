package extractor

import (
	"context"
	"encoding/json"
	"net/url"
)

// graphqlLSD is a static LSD token; upstream only checks it is present and
// matches the X-FB-LSD header
const graphqlLSD = "AVqbxe3J_YA"

// graphqlStrategy queries the private web GraphQL endpoint. Depending on
// the platform version the node is keyed xdt_shortcode_media or
// shortcode_media.
type graphqlStrategy struct {
	c *Client
}

func (s *graphqlStrategy) Name() string {
	return "graphql"
}

func (s *graphqlStrategy) Attempt(ctx context.Context, id Identifier) (*Result, error) {
	variables, err := json.Marshal(map[string]interface{}{
		"shortcode":                   id.Shortcode,
		"fetch_comment_count":         40,
		"parent_comment_count":        24,
		"child_comment_count":         3,
		"fetch_like_count":            10,
		"fetch_tagged_user_count":     nil,
		"fetch_preview_comment_count": 2,
		"has_threaded_comments":       true,
	})
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("av", "0")
	form.Set("__d", "www")
	form.Set("__user", "0")
	form.Set("__a", "1")
	form.Set("lsd", graphqlLSD)
	form.Set("fb_api_caller_class", "RelayModern")
	form.Set("fb_api_req_friendly_name", "PolarisPostActionLoadPostQueryQuery")
	form.Set("variables", string(variables))
	form.Set("server_timestamps", "true")
	form.Set("doc_id", s.c.DocID)

	endpoint := s.c.Endpoints.Web + "/graphql/query"
	body, err := s.c.postForm(ctx, endpoint, form.Encode(), s.c.appHeaders(id.PostURL(s.c.Endpoints.Web)))
	if err != nil {
		return nil, err
	}

	n := NodeNormalizer{
		Keys:      []string{"data.xdt_shortcode_media", "data.shortcode_media"},
		Shortcode: id.Shortcode,
	}
	if res := n.Normalize(body); res != nil {
		return res, nil
	}
	return nil, errNoPayload
}

func init() {
	Register("graphql", func(c *Client) Strategy { return &graphqlStrategy{c: c} })
}
