package extractor

import (
	"context"
)

// apiStrategy reads the legacy ?__a=1 JSON view of the post page, which
// answers either with a mobile API item list or with a graphql envelope
type apiStrategy struct {
	c *Client
}

func (s *apiStrategy) Name() string {
	return "api"
}

func (s *apiStrategy) Attempt(ctx context.Context, id Identifier) (*Result, error) {
	headers := s.c.browserHeaders()
	headers["X-IG-App-ID"] = s.c.AppID

	body, err := s.c.get(ctx, id.PostURL(s.c.Endpoints.Web)+"?__a=1&__d=dis", headers)
	if err != nil {
		return nil, err
	}

	if res := (ItemNormalizer{Path: "items.0", Shortcode: id.Shortcode}).Normalize(body); res != nil {
		return res, nil
	}
	node := NodeNormalizer{Keys: []string{"graphql.shortcode_media"}, Shortcode: id.Shortcode}
	if res := node.Normalize(body); res != nil {
		return res, nil
	}
	return nil, errNoPayload
}

func init() {
	Register("api", func(c *Client) Strategy { return &apiStrategy{c: c} })
}
