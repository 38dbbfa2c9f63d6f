package extractor

import (
	"context"
	"fmt"
)

// embedStrategy scrapes the /embed/captioned/ variant. The embed's linked
// data rarely carries a playable URL, so the inline video_url/display_url
// strings take precedence over it.
type embedStrategy struct {
	c *Client
}

func (s *embedStrategy) Name() string {
	return "embed"
}

func (s *embedStrategy) Attempt(ctx context.Context, id Identifier) (*Result, error) {
	body, err := s.c.get(ctx, id.PostURL(s.c.Endpoints.Web)+"embed/captioned/", s.c.lightHeaders())
	if err != nil {
		return nil, err
	}

	p, err := parsePage(body)
	if err != nil {
		return nil, fmt.Errorf("parsing embed page: %w", err)
	}

	inline := p.inline()
	n := LinkedDataNormalizer{Inline: inline, PreferInline: true, Shortcode: id.Shortcode}

	if ld := p.linkedData(); ld != nil {
		if res := n.Normalize(ld); res != nil {
			return res, nil
		}
	}

	if data := p.additionalData(); data != nil {
		node := NodeNormalizer{
			Keys:      []string{"shortcode_media", "graphql.shortcode_media"},
			Shortcode: id.Shortcode,
		}
		if res := node.Normalize(data); res != nil {
			return res, nil
		}
	}

	if !inline.Empty() {
		if res := n.Normalize(nil); res != nil {
			return res, nil
		}
	}

	return nil, errNoPayload
}

func init() {
	Register("embed", func(c *Client) Strategy { return &embedStrategy{c: c} })
}
