package extractor

import (
	"context"
	"net/url"
)

// oembedStrategy is the last resort: the public oEmbed endpoint only knows a
// title, a thumbnail and the author, never a video
type oembedStrategy struct {
	c *Client
}

func (s *oembedStrategy) Name() string {
	return "oembed"
}

func (s *oembedStrategy) Attempt(ctx context.Context, id Identifier) (*Result, error) {
	endpoint := s.c.Endpoints.API + "/oembed/?url=" + url.QueryEscape(id.URL)

	headers := s.c.lightHeaders()
	headers["Accept"] = "application/json"

	body, err := s.c.get(ctx, endpoint, headers)
	if err != nil {
		return nil, err
	}

	if res := (OEmbedNormalizer{Shortcode: id.Shortcode}).Normalize(body); res != nil {
		return res, nil
	}
	return nil, errNoPayload
}

func init() {
	Register("oembed", func(c *Client) Strategy { return &oembedStrategy{c: c} })
}
